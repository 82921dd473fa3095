package billing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

// StockLedger owns stock-quantity arithmetic. The availability check and the
// decrement happen in one conditional store update, so concurrent
// reservations for the same product cannot jointly oversell.
type StockLedger struct {
	store  repository.Store
	logger *zap.Logger
}

// NewStockLedger wires a ledger over the given store.
func NewStockLedger(store repository.Store, logger *zap.Logger) *StockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedger{store: store, logger: logger}
}

// Reserve checks out delta units of a product. It fails with
// *models.InsufficientStockError carrying the available quantity when stock
// is short, and models.ErrProductInactive for products withdrawn from sale.
func (l *StockLedger) Reserve(ctx context.Context, productID string, delta float64) (float64, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("%w: reserve delta must be positive", models.ErrValidation)
	}
	remaining, err := l.store.ReserveStock(ctx, productID, delta)
	if err != nil {
		return 0, err
	}
	l.logger.Debug("stock reserved",
		zap.String("product_id", productID),
		zap.Float64("delta", delta),
		zap.Float64("remaining", remaining))
	return remaining, nil
}

// Release returns delta units of a product to stock.
func (l *StockLedger) Release(ctx context.Context, productID string, delta float64) (float64, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("%w: release delta must be positive", models.ErrValidation)
	}
	remaining, err := l.store.ReleaseStock(ctx, productID, delta)
	if err != nil {
		return 0, err
	}
	l.logger.Debug("stock released",
		zap.String("product_id", productID),
		zap.Float64("delta", delta),
		zap.Float64("remaining", remaining))
	return remaining, nil
}

// Adjust applies a signed quantity change: positive deltas reserve, negative
// deltas release, zero is a no-op. Quantity updates on an existing line go
// through here so that reducing a quantity is never rejected by a
// full-quantity availability re-check.
func (l *StockLedger) Adjust(ctx context.Context, productID string, delta float64) error {
	switch {
	case delta > 0:
		_, err := l.Reserve(ctx, productID, delta)
		return err
	case delta < 0:
		_, err := l.Release(ctx, productID, -delta)
		return err
	}
	return nil
}
