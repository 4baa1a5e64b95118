package response

import (
	"time"

	"bookline/internal/usecase/queries"

	"github.com/google/uuid"
)

type InventoryTransactionResponse struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	Delta     int32     `json:"delta"`
	NewStock  int32     `json:"new_stock"`
	Reason    string    `json:"reason"`
	Flagged   bool      `json:"flagged"`
	CreatedAt time.Time `json:"created_at"`
}

func FromInventoryTransactionView(v *queries.InventoryTransactionView) *InventoryTransactionResponse {
	return &InventoryTransactionResponse{
		ID:        v.ID,
		ItemID:    v.ItemID,
		Delta:     v.Delta,
		NewStock:  v.NewStock,
		Reason:    v.Reason,
		Flagged:   v.Flagged,
		CreatedAt: v.CreatedAt,
	}
}
