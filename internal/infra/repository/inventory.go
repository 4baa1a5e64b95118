package repository

import (
	"context"

	"bookline/internal/domain/inventory"
	"bookline/internal/infra"
	"bookline/internal/infra/db"
	"bookline/internal/usecase/shared"

	"github.com/google/uuid"
)

type InventoryRepository struct {
	db db.DBTX
}

func NewInventoryRepository(dbtx db.DBTX) shared.InventoryRepository {
	return &InventoryRepository{db: dbtx}
}

func (r *InventoryRepository) LinksByService(ctx context.Context, serviceID uuid.UUID) ([]shared.InventoryLink, error) {
	rows, err := r.db.Query(ctx,
		`SELECT item_id, quantity FROM service_inventory_links WHERE service_id = $1`,
		serviceID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list inventory links", err)
	}
	defer rows.Close()

	var links []shared.InventoryLink
	for rows.Next() {
		var link shared.InventoryLink
		if err := rows.Scan(&link.ItemID, &link.Quantity); err != nil {
			return nil, infra.WrapRepoErr("failed to scan inventory link", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read inventory links", err)
	}
	return links, nil
}

func (r *InventoryRepository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var (
		itemID                  uuid.UUID
		name                    string
		currentStock, threshold int32
		autoDeduct, active      bool
		supplierEmail           *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, name, current_stock, threshold, auto_deduct, supplier_email, active
		 FROM inventory_items WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&itemID, &name, &currentStock, &threshold, &autoDeduct, &supplierEmail, &active)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find inventory item", err)
	}

	supplier := ""
	if supplierEmail != nil {
		supplier = *supplierEmail
	}
	return inventory.ReconstructItem(itemID, name, currentStock, threshold, autoDeduct, supplier, active), nil
}

func (r *InventoryRepository) UpdateStock(ctx context.Context, id uuid.UUID, newStock int32) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE inventory_items SET current_stock = $2, updated_at = now() WHERE id = $1`,
		id, newStock,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErrKind(infra.KindNotFound, "inventory item not found", nil)
	}
	return nil
}

func (r *InventoryRepository) AppendTransaction(ctx context.Context, adj inventory.Adjustment) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Exec(ctx,
		`INSERT INTO inventory_transactions (id, item_id, delta, new_stock, reason, flagged, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, adj.ItemID, adj.Delta, adj.NewStock, adj.Reason, adj.Flagged, adj.AppliedAt,
	)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to append inventory transaction", err)
	}
	return id, nil
}
