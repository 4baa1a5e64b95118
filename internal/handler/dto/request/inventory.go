package request

type AdjustStockRequest struct {
	Delta  int32  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
	// AllowNegative permits a manual adjustment to take stock below zero.
	AllowNegative bool `json:"allow_negative"`
}
