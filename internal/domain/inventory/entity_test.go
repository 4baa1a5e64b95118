//go:build unit

package inventory_test

import (
	"testing"
	"time"

	"bookline/internal/domain/inventory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newItem(stock, threshold int32, active bool) *inventory.Item {
	return inventory.ReconstructItem(uuid.New(), "Shampoo", stock, threshold, true, "supplier@example.com", active)
}

func TestAdjustAuto(t *testing.T) {
	t.Run("plain deduction", func(t *testing.T) {
		item := newItem(10, 2, true)
		adj, err := item.Adjust(-3, inventory.ModeAuto, "auto-deduct", false, now)
		require.NoError(t, err)
		assert.Equal(t, int32(-3), adj.Delta)
		assert.Equal(t, int32(7), adj.NewStock)
		assert.Equal(t, int32(7), item.CurrentStock())
		assert.False(t, adj.Flagged)
		assert.Empty(t, adj.Signals)
	})

	t.Run("clamps at zero and raises backorder", func(t *testing.T) {
		item := newItem(2, 0, true)
		adj, err := item.Adjust(-5, inventory.ModeAuto, "auto-deduct", false, now)
		require.NoError(t, err)
		assert.Equal(t, int32(-2), adj.Delta, "delta is reduced to the available stock")
		assert.Equal(t, int32(0), adj.NewStock)
		assert.True(t, adj.Flagged)
		assert.Contains(t, adj.Signals, inventory.SignalBackorder)
		assert.Contains(t, adj.Signals, inventory.SignalLowStock)
	})

	t.Run("crossing threshold raises low stock", func(t *testing.T) {
		item := newItem(5, 3, true)
		adj, err := item.Adjust(-2, inventory.ModeAuto, "auto-deduct", false, now)
		require.NoError(t, err)
		assert.Equal(t, []inventory.Signal{inventory.SignalLowStock}, adj.Signals)
	})

	t.Run("restock never signals", func(t *testing.T) {
		item := newItem(1, 3, true)
		adj, err := item.Adjust(10, inventory.ModeAuto, "restock", false, now)
		require.NoError(t, err)
		assert.Empty(t, adj.Signals)
		assert.Equal(t, int32(11), adj.NewStock)
	})
}

func TestAdjustManual(t *testing.T) {
	t.Run("going negative fails without override", func(t *testing.T) {
		item := newItem(2, 0, true)
		_, err := item.Adjust(-5, inventory.ModeManual, "correction", false, now)
		require.ErrorIs(t, err, inventory.ErrInsufficientStock)
		assert.Equal(t, int32(2), item.CurrentStock(), "stock is untouched on rejection")
	})

	t.Run("override goes negative and is flagged", func(t *testing.T) {
		item := newItem(2, 0, true)
		adj, err := item.Adjust(-5, inventory.ModeManual, "correction", true, now)
		require.NoError(t, err)
		assert.Equal(t, int32(-3), adj.NewStock)
		assert.True(t, adj.Flagged)
	})

	t.Run("low stock signal on manual deduction", func(t *testing.T) {
		item := newItem(4, 3, true)
		adj, err := item.Adjust(-1, inventory.ModeManual, "correction", false, now)
		require.NoError(t, err)
		assert.Equal(t, []inventory.Signal{inventory.SignalLowStock}, adj.Signals)
	})
}

func TestAdjustInactive(t *testing.T) {
	item := newItem(10, 2, false)
	_, err := item.Adjust(-1, inventory.ModeAuto, "auto-deduct", false, now)
	require.ErrorIs(t, err, inventory.ErrInactiveItem)
}
