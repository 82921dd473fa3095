// Package billing implements the session-scoped draft-invoice engine: one
// live draft per cashier session, stock reservation against the shared
// catalog, deterministic line pricing and full-re-sum totals.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/pricing"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

// CompleteRequest carries the customer and payment fields captured when a
// cashier submits a draft for verification.
type CompleteRequest struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerAddress string
	PaymentMethod   models.PaymentMethod
	Notes           string
}

// Service is the invoice aggregate: every draft mutation enters here, and
// each one runs as a single transaction covering the stock movement, the
// item write and the totals recomputation.
type Service struct {
	store  repository.Store
	ledger *StockLedger
	clock  *SessionClock
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the billing service.
func NewService(store repository.Store, clock *SessionClock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = NewSessionClock(0)
	}
	return &Service{
		store:  store,
		ledger: NewStockLedger(store, logger),
		clock:  clock,
		logger: logger,
		now:    time.Now,
	}
}

// Ledger exposes the stock ledger for collaborators that move stock outside
// a draft mutation (verification stock restore).
func (s *Service) Ledger() *StockLedger { return s.ledger }

// GetOrCreateDraft returns the caller's live draft for this session, or
// creates one (created reports which). A draft whose window has lapsed is
// marked expired in the same transaction as the read that noticed it, then
// replaced. Non-admin callers without an open session are rejected; an admin
// without one is granted a session implicitly.
func (s *Service) GetOrCreateDraft(ctx context.Context, id models.Identity) (inv *models.Invoice, remaining time.Duration, created bool, err error) {
	sessionID := id.SessionID
	if sessionID == "" {
		if !id.IsAdmin() {
			return nil, 0, false, fmt.Errorf("%w: no open billing session", models.ErrSessionExpired)
		}
		sessionID = uuid.NewString()
		if err := s.store.GrantSession(ctx, id.UserID, sessionID, s.now().Add(s.clock.Window())); err != nil {
			return nil, 0, false, fmt.Errorf("grant admin session: %w", err)
		}
		s.logger.Info("implicit session granted to admin", zap.String("user_id", id.UserID))
	}

	var existing *models.Invoice
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		draft, err := s.store.FindActiveDraft(ctx, id.UserID, sessionID)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.clock.IsActive(draft, id.Role) {
			existing = draft
			return nil
		}
		// Lazy expiry: persist the sticky flag before falling through to
		// a fresh draft.
		return s.store.MarkSessionExpired(ctx, draft.ID)
	})
	if err != nil {
		return nil, 0, false, err
	}
	if existing != nil {
		return existing, s.clock.Remaining(existing), false, nil
	}

	now := s.now()
	inv = &models.Invoice{
		ID:               uuid.NewString(),
		InvoiceNumber:    fmt.Sprintf("INV-%d", now.UnixMilli()),
		UserID:           id.UserID,
		SessionID:        sessionID,
		Status:           models.StatusDraft,
		PaymentMethod:    models.PayCash,
		PaymentStatus:    models.PaymentPending,
		SessionStartTime: now,
		SessionEndTime:   s.clock.EndOf(now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.store.CreateDraft(ctx, inv)
	if errors.Is(err, models.ErrDuplicateDraft) {
		// Lost a creation race; the surviving draft is the session's draft.
		winner, ferr := s.store.FindActiveDraft(ctx, id.UserID, sessionID)
		if ferr != nil {
			return nil, 0, false, fmt.Errorf("%w: concurrent draft creation", models.ErrConflict)
		}
		return winner, s.clock.Remaining(winner), false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}

	s.logger.Info("draft invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("user_id", id.UserID))
	return inv, s.clock.Remaining(inv), true, nil
}

// AddItem puts quantity units of a product on the draft. An existing line
// for the same product is merged, reserving only the added quantity. Stock
// reservation, the item write and the totals recomputation commit or roll
// back together.
func (s *Service) AddItem(ctx context.Context, id models.Identity, invoiceID, productID string, quantity, discount float64, discountType models.DiscountType) (*models.Invoice, *models.InvoiceItem, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}
	if discountType == "" {
		discountType = models.DiscountAmount
	}

	var (
		out            *models.Invoice
		outItem        *models.InvoiceItem
		sessionExpired bool
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.guardDraft(ctx, id, invoiceID); err != nil {
			if errors.Is(err, models.ErrSessionExpired) {
				sessionExpired = true
				return nil
			}
			return err
		}

		product, err := s.store.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return models.ErrProductInactive
		}

		now := s.now()
		item, err := s.store.FindItemByProduct(ctx, invoiceID, productID)
		switch {
		case err == nil:
			item.Quantity += quantity
			item.Discount = discount
			item.DiscountType = discountType
			item.UpdatedAt = now
		case errors.Is(err, models.ErrNotFound):
			item = &models.InvoiceItem{
				ID:           uuid.NewString(),
				InvoiceID:    invoiceID,
				ProductID:    productID,
				ProductName:  product.Name,
				ProductCode:  product.Barcode,
				HSNCode:      product.HSNCode,
				Unit:         product.Unit,
				Quantity:     quantity,
				UnitPrice:    product.SalesPrice,
				MRP:          product.MRP,
				Discount:     discount,
				DiscountType: discountType,
				GSTRate:      product.GSTRate,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
		default:
			return err
		}

		gst, lineTotal, totalAmount, err := pricing.ComputeFloats(
			item.Quantity, item.UnitPrice, item.Discount, item.DiscountType, item.GSTRate)
		if err != nil {
			return err
		}
		item.GSTAmount = gst
		item.LineTotal = lineTotal
		item.TotalAmount = totalAmount

		// Only the added quantity is reserved, regardless of merge.
		if _, err := s.ledger.Reserve(ctx, productID, quantity); err != nil {
			return err
		}
		if err := s.store.SaveItem(ctx, item); err != nil {
			return err
		}
		if err := s.recalcTotals(ctx, invoiceID); err != nil {
			return err
		}

		out, err = s.store.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		outItem = item
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if sessionExpired {
		return nil, nil, models.ErrSessionExpired
	}

	s.logger.Info("item added to invoice",
		zap.String("invoice_id", invoiceID),
		zap.String("product_id", productID),
		zap.Float64("quantity", quantity))
	return out, outItem, nil
}

// RemoveItem deletes a line and returns its full quantity to stock. Removing
// the last item leaves a valid empty draft.
func (s *Service) RemoveItem(ctx context.Context, id models.Identity, invoiceID, itemID string) (*models.Invoice, error) {
	var (
		out            *models.Invoice
		sessionExpired bool
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		_, err := s.guardDraft(ctx, id, invoiceID)
		if errors.Is(err, models.ErrSessionExpired) {
			sessionExpired = true
			return nil
		}
		if err != nil {
			return err
		}

		item, err := s.store.GetItem(ctx, invoiceID, itemID)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := s.store.DeleteItem(ctx, invoiceID, itemID); err != nil {
			return err
		}
		if err := s.recalcTotals(ctx, invoiceID); err != nil {
			return err
		}
		out, err = s.store.GetInvoice(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sessionExpired {
		return nil, models.ErrSessionExpired
	}

	s.logger.Info("item removed from invoice",
		zap.String("invoice_id", invoiceID),
		zap.String("item_id", itemID))
	return out, nil
}

// RecalculateTotals re-reads all current items and overwrites the derived
// money fields. Calling it without intervening item changes is a no-op in
// effect: totals are always a full re-sum.
func (s *Service) RecalculateTotals(ctx context.Context, invoiceID string) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetInvoice(ctx, invoiceID); err != nil {
			return err
		}
		return s.recalcTotals(ctx, invoiceID)
	})
}

// Complete submits the draft for admin verification: draft -> pending, the
// session is closed, payment is recorded as settled. An empty draft cannot
// be completed. The session window is not re-checked here; a cashier may
// finish ringing up a sale they started.
func (s *Service) Complete(ctx context.Context, id models.Identity, invoiceID string, req CompleteRequest) (*models.Invoice, error) {
	method := req.PaymentMethod
	if method == "" {
		method = models.PayCash
	}
	if !models.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", models.ErrValidation, req.PaymentMethod)
	}

	var out *models.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.store.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.UserID != id.UserID {
			return models.ErrNotFound
		}
		if inv.Status != models.StatusDraft {
			return fmt.Errorf("%w: invoice is %s, not draft", models.ErrInvalidTransition, inv.Status)
		}
		if len(inv.Items) == 0 {
			return fmt.Errorf("%w: cannot complete invoice without items", models.ErrInvalidTransition)
		}

		now := s.now()
		inv.CustomerName = req.CustomerName
		inv.CustomerPhone = req.CustomerPhone
		inv.CustomerEmail = req.CustomerEmail
		inv.CustomerAddress = req.CustomerAddress
		inv.Notes = req.Notes
		inv.PaymentMethod = method
		inv.PaymentStatus = models.PaymentPaid
		inv.Status = models.StatusPending
		inv.SessionEndTime = now
		inv.IsSessionExpired = true
		inv.UpdatedAt = now

		if err := s.store.SaveDraft(ctx, inv); err != nil {
			return err
		}
		out, err = s.store.GetInvoice(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice submitted for verification",
		zap.String("invoice_id", invoiceID),
		zap.String("user_id", id.UserID))
	return out, nil
}

// GetInvoice fetches an invoice the caller may see: its owner, or any admin.
func (s *Service) GetInvoice(ctx context.Context, id models.Identity, invoiceID string) (*models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() && inv.UserID != id.UserID {
		return nil, models.ErrNotFound
	}
	return inv, nil
}

// ListInvoices pages invoices. Non-admin callers are always scoped to their
// own invoices.
func (s *Service) ListInvoices(ctx context.Context, id models.Identity, f repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	if !id.IsAdmin() {
		f.UserID = id.UserID
	}
	return s.store.ListInvoices(ctx, f)
}

// guardDraft loads the invoice and enforces the draft-mutation
// preconditions: ownership, draft status, live session. When the session has
// lapsed the sticky expiry flag is persisted in this same transaction and
// models.ErrSessionExpired is returned.
func (s *Service) guardDraft(ctx context.Context, id models.Identity, invoiceID string) (*models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != id.UserID {
		return nil, models.ErrNotFound
	}
	if inv.Status != models.StatusDraft {
		return nil, fmt.Errorf("%w: invoice is %s, not draft", models.ErrInvalidTransition, inv.Status)
	}
	if !s.clock.IsActive(inv, id.Role) {
		if err := s.store.MarkSessionExpired(ctx, inv.ID); err != nil {
			return nil, err
		}
		return nil, models.ErrSessionExpired
	}
	return inv, nil
}

func (s *Service) recalcTotals(ctx context.Context, invoiceID string) error {
	items, err := s.store.ListItems(ctx, invoiceID)
	if err != nil {
		return err
	}
	subtotal, totalGST, totalAmount := pricing.SumTotals(items)
	return s.store.SetInvoiceTotals(ctx, invoiceID, subtotal, totalGST, totalAmount)
}
