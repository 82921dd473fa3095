package verification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository/memory"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/service/billing"
)

var verifyTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	calls int
	fail  bool
}

func (f *fakeNotifier) InvoiceVerified(_ context.Context, _ *models.Invoice, _ bool) error {
	f.calls++
	if f.fail {
		return fmt.Errorf("webhook unreachable")
	}
	return nil
}

func admin() models.Identity {
	return models.Identity{UserID: "admin-1", Role: models.RoleAdmin}
}

// seedPending loads the store with a pending invoice holding one line of
// three units of prod-1, and the product with its post-sale stock of 47.
func seedPending(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	store.SeedProduct(models.Product{
		ID: "prod-1", Name: "Masala Tea", SalesPrice: 100.00, GSTRate: 18,
		StockQuantity: 47, IsActive: true,
	})
	if err := store.CreateDraft(ctx, &models.Invoice{
		ID: "inv-1", InvoiceNumber: "INV-100", UserID: "user-1",
		Status: models.StatusPending, PaymentStatus: models.PaymentPaid,
		Subtotal: 300.00, TotalGST: 54.00, TotalAmount: 354.00,
		CreatedAt: verifyTime.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	if err := store.SaveItem(ctx, &models.InvoiceItem{
		ID: "item-1", InvoiceID: "inv-1", ProductID: "prod-1",
		ProductName: "Masala Tea", Quantity: 3, UnitPrice: 100.00,
		GSTRate: 18, GSTAmount: 54.00, LineTotal: 300.00, TotalAmount: 354.00,
	}); err != nil {
		t.Fatalf("seed item: %v", err)
	}
}

func newVerifier(t *testing.T, restoreStock bool, notifier Notifier) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	seedPending(t, store)
	svc := NewService(store, billing.NewStockLedger(store, nil), restoreStock, notifier, nil)
	svc.now = func() time.Time { return verifyTime }
	return svc, store
}

func TestVerifyApprove(t *testing.T) {
	svc, store := newVerifier(t, false, nil)

	inv, err := svc.Verify(context.Background(), admin(), "inv-1", true, "checked at gate")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if inv.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", inv.Status)
	}
	if !inv.AdminVerified {
		t.Fatalf("adminVerified not set")
	}
	if inv.VerifiedBy != "admin-1" || !inv.VerifiedAt.Equal(verifyTime) {
		t.Fatalf("verifier identity not recorded: by=%s at=%v", inv.VerifiedBy, inv.VerifiedAt)
	}
	if inv.Notes != "checked at gate" {
		t.Fatalf("notes = %q", inv.Notes)
	}

	// Approval never touches stock.
	p, err := store.GetProduct(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.StockQuantity != 47 {
		t.Fatalf("stock = %v, want 47", p.StockQuantity)
	}
}

func TestVerifyRejectKeepsStockByDefault(t *testing.T) {
	svc, store := newVerifier(t, false, nil)

	inv, err := svc.Verify(context.Background(), admin(), "inv-1", false, "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if inv.Status != models.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", inv.Status)
	}
	if inv.AdminVerified {
		t.Fatalf("adminVerified must stay false on rejection")
	}

	p, err := store.GetProduct(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.StockQuantity != 47 {
		t.Fatalf("stock = %v, want 47 (restore disabled)", p.StockQuantity)
	}
}

func TestVerifyRejectRestoresStockWhenEnabled(t *testing.T) {
	svc, store := newVerifier(t, true, nil)

	if _, err := svc.Verify(context.Background(), admin(), "inv-1", false, ""); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	p, err := store.GetProduct(context.Background(), "prod-1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.StockQuantity != 50 {
		t.Fatalf("stock = %v, want 50 (3 units restored)", p.StockQuantity)
	}
}

func TestVerifyRequiresAdmin(t *testing.T) {
	svc, _ := newVerifier(t, false, nil)

	_, err := svc.Verify(context.Background(),
		models.Identity{UserID: "user-1", Role: models.RoleUser}, "inv-1", true, "")
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyOnlyFromPending(t *testing.T) {
	svc, store := newVerifier(t, false, nil)
	ctx := context.Background()

	if err := store.CreateDraft(ctx, &models.Invoice{
		ID: "inv-draft", UserID: "user-1", Status: models.StatusDraft,
	}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	if _, err := svc.Verify(ctx, admin(), "inv-draft", true, ""); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("draft: expected ErrInvalidTransition, got %v", err)
	}

	// Terminal states are final: a second decision is rejected.
	if _, err := svc.Verify(ctx, admin(), "inv-1", true, ""); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := svc.Verify(ctx, admin(), "inv-1", false, ""); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("re-verify: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Verify(ctx, admin(), "no-such-invoice", true, ""); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("unknown invoice: expected ErrNotFound, got %v", err)
	}
}

func TestVerifyRestoreFailureRollsBack(t *testing.T) {
	svc, store := newVerifier(t, true, nil)
	ctx := context.Background()

	// An orphan line whose product no longer exists makes the restore fail.
	if err := store.SaveItem(ctx, &models.InvoiceItem{
		ID: "item-gone", InvoiceID: "inv-1", ProductID: "prod-gone", Quantity: 1,
	}); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	if _, err := svc.Verify(ctx, admin(), "inv-1", false, ""); err == nil {
		t.Fatalf("expected restore failure")
	}

	// The whole decision rolled back: still pending, stock unchanged.
	inv, err := store.GetInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if inv.Status != models.StatusPending {
		t.Fatalf("status = %s, want pending after rollback", inv.Status)
	}
	p, err := store.GetProduct(ctx, "prod-1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.StockQuantity != 47 {
		t.Fatalf("stock = %v, want 47 after rollback", p.StockQuantity)
	}
}

func TestVerifyNotifiesOutcome(t *testing.T) {
	n := &fakeNotifier{}
	svc, _ := newVerifier(t, false, n)

	if _, err := svc.Verify(context.Background(), admin(), "inv-1", true, ""); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if n.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", n.calls)
	}
}

func TestVerifyNotifierFailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{fail: true}
	svc, _ := newVerifier(t, false, n)

	inv, err := svc.Verify(context.Background(), admin(), "inv-1", true, "")
	if err != nil {
		t.Fatalf("notifier failure must not surface: %v", err)
	}
	if inv.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed", inv.Status)
	}
}

func TestListPending(t *testing.T) {
	svc, store := newVerifier(t, false, nil)
	ctx := context.Background()

	if err := store.CreateDraft(ctx, &models.Invoice{
		ID: "inv-draft", UserID: "user-1", Status: models.StatusDraft,
	}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	invoices, total, err := svc.ListPending(ctx, admin(), 1, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if total != 1 || len(invoices) != 1 || invoices[0].ID != "inv-1" {
		t.Fatalf("expected only the pending invoice, got %d", total)
	}

	// A decided invoice leaves the queue.
	if _, err := svc.Verify(ctx, admin(), "inv-1", true, ""); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	_, total, err = svc.ListPending(ctx, admin(), 1, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if total != 0 {
		t.Fatalf("queue should be empty, got %d", total)
	}

	if _, _, err := svc.ListPending(ctx, models.Identity{UserID: "user-1", Role: models.RoleUser}, 1, 10); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("non-admin: expected validation error, got %v", err)
	}
}
