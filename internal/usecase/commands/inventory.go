package commands

import (
	"context"
	"errors"

	"bookline/internal/domain/automation"
	"bookline/internal/domain/inventory"
	"bookline/internal/infra"
	"bookline/internal/pkg/clock"
	"bookline/internal/pkg/errs"
	"bookline/internal/usecase/queries"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

type AdjustStockParams struct {
	ItemID uuid.UUID
	Delta  int32
	Reason string
	// AllowNegative is the manual override flag; the resulting
	// transaction is flagged for audit.
	AllowNegative bool
}

type InventoryCommands interface {
	// AdjustStock appends a ledger transaction for a manual adjustment.
	// Auto-deduct adjustments go through the booking completion path.
	AdjustStock(ctx context.Context, params AdjustStockParams) (*queries.InventoryTransactionView, error)
}

type inventoryCommandsImpl struct {
	uow       shared.UnitOfWork
	publisher EventPublisher
	clock     clock.Clock
}

func NewInventoryCommands(uow shared.UnitOfWork, publisher EventPublisher, clk clock.Clock) InventoryCommands {
	return &inventoryCommandsImpl{uow: uow, publisher: publisher, clock: clk}
}

func (c *inventoryCommandsImpl) AdjustStock(ctx context.Context, params AdjustStockParams) (*queries.InventoryTransactionView, error) {
	var view queries.InventoryTransactionView
	var followUps []automation.Event

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		followUps = followUps[:0]

		item, err := tx.Inventory().FindItemForUpdate(ctx, params.ItemID)
		if err != nil {
			return err
		}

		adj, err := item.Adjust(params.Delta, inventory.ModeManual, params.Reason, params.AllowNegative, c.clock.Now())
		if err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return errs.Mark(err, errs.ErrInsufficientStock)
			}
			return errs.Mark(err, errs.ErrDomainValidation)
		}

		txnID, err := tx.Inventory().AppendTransaction(ctx, adj)
		if err != nil {
			return err
		}
		if err := tx.Inventory().UpdateStock(ctx, item.ID(), adj.NewStock); err != nil {
			return err
		}

		view = queries.InventoryTransactionView{
			ID:        txnID,
			ItemID:    item.ID(),
			Delta:     adj.Delta,
			NewStock:  adj.NewStock,
			Reason:    adj.Reason,
			Flagged:   adj.Flagged,
			CreatedAt: adj.AppliedAt,
		}
		followUps = append(followUps, inventorySignalEvents(item, adj, adj.AppliedAt)...)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInsufficientStock):
			return nil, errs.ErrInsufficientStock
		case errors.Is(err, errs.ErrDomainValidation):
			return nil, err
		case infra.IsKind(err, infra.KindNotFound):
			return nil, errs.ErrItemNotFound
		default:
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}

	for _, ev := range followUps {
		c.publisher.Publish(ev)
	}
	return &view, nil
}
