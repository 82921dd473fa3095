// Package verification drives the admin decision on submitted invoices. It
// is the only component that moves an invoice out of pending, and nothing
// ever moves one out of a terminal state.
package verification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

// Notifier is told about verification outcomes. Implementations must not
// influence the decision; a notification failure is logged, not surfaced.
type Notifier interface {
	InvoiceVerified(ctx context.Context, inv *models.Invoice, approved bool) error
}

// Service applies admin decisions to pending invoices.
type Service struct {
	store  repository.Store
	ledger StockLedger
	// restoreStockOnCancel controls whether a rejected invoice returns its
	// items to stock. The default (false) matches physical reality at the
	// till: a rejected sale still left the shelf.
	restoreStockOnCancel bool
	notifier             Notifier
	logger               *zap.Logger
	now                  func() time.Time
}

// StockLedger is the slice of the billing ledger the verifier needs.
type StockLedger interface {
	Release(ctx context.Context, productID string, delta float64) (float64, error)
}

// NewService constructs the verification service. notifier may be nil.
func NewService(store repository.Store, ledger StockLedger, restoreStockOnCancel bool, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:                store,
		ledger:               ledger,
		restoreStockOnCancel: restoreStockOnCancel,
		notifier:             notifier,
		logger:               logger,
		now:                  time.Now,
	}
}

// Verify records the admin decision: approved invoices become completed,
// rejected ones cancelled. The status flip, verifier identity and timestamp
// land in one atomic update, valid only from pending. When stock restore on
// cancellation is enabled, the releases join the same transaction.
func (s *Service) Verify(ctx context.Context, id models.Identity, invoiceID string, approved bool, notes string) (*models.Invoice, error) {
	if !id.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", models.ErrValidation)
	}

	var out *models.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.store.VerifyInvoice(ctx, invoiceID, approved, id.UserID, notes, s.now())
		if err != nil {
			return err
		}
		if !approved && s.restoreStockOnCancel {
			for _, item := range inv.Items {
				if _, err := s.ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("restore stock for item %s: %w", item.ID, err)
				}
			}
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice verified",
		zap.String("invoice_id", invoiceID),
		zap.Bool("approved", approved),
		zap.String("verified_by", id.UserID))

	if s.notifier != nil {
		if err := s.notifier.InvoiceVerified(ctx, out, approved); err != nil {
			s.logger.Warn("verification notification failed",
				zap.String("invoice_id", invoiceID), zap.Error(err))
		}
	}
	return out, nil
}

// ListPending returns invoices awaiting an admin decision.
func (s *Service) ListPending(ctx context.Context, id models.Identity, page, limit int) ([]models.Invoice, int64, error) {
	if !id.IsAdmin() {
		return nil, 0, fmt.Errorf("%w: admin role required", models.ErrValidation)
	}
	return s.store.ListInvoices(ctx, repository.InvoiceFilter{
		PendingOnly: true,
		Page:        page,
		Limit:       limit,
	})
}
