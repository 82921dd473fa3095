// Package repository defines the transactional storage contract required by
// the billing core. Implementations must provide atomic multi-record
// read-modify-write via WithTx, uniqueness of live drafts per (user, session),
// and conditional stock updates that can never drive a quantity negative.
package repository

import (
	"context"
	"time"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

// InvoiceFilter narrows and pages invoice listings.
type InvoiceFilter struct {
	UserID string
	Status models.InvoiceStatus

	// When set, only invoices created within [StartDate, EndDate].
	StartDate time.Time
	EndDate   time.Time

	// HideVerified excludes admin-verified and completed invoices, and
	// drafts whose session expired without completion; the default cashier
	// listing uses it so abandoned drafts and settled sales drop out of
	// the working view.
	HideVerified bool

	// PendingOnly limits to invoices awaiting admin decision.
	PendingOnly bool

	Page  int
	Limit int
}

// Store is the persistence surface consumed by the services. All reads and
// writes made inside a WithTx callback commit or roll back as one unit.
type Store interface {
	// WithTx runs fn inside a single transaction. Any error returned by fn
	// aborts the transaction and is returned unchanged.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Users.
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserBySession(ctx context.Context, sessionID string) (*models.User, error)
	GrantSession(ctx context.Context, userID, sessionID string, expiry time.Time) error

	// Products. ReserveStock atomically checks availability and decrements;
	// it fails with *models.InsufficientStockError (carrying the available
	// quantity) when stock is short and models.ErrProductInactive when the
	// product cannot be sold. ReleaseStock increments unconditionally.
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ReserveStock(ctx context.Context, productID string, qty float64) (remaining float64, err error)
	ReleaseStock(ctx context.Context, productID string, qty float64) (remaining float64, err error)
	ListLowStockProducts(ctx context.Context) ([]models.Product, error)

	// Invoices. CreateDraft fails with models.ErrDuplicateDraft when a live
	// draft already exists for the same (user, session). SaveDraft replaces
	// the invoice only while its stored status is still draft.
	CreateDraft(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	FindActiveDraft(ctx context.Context, userID, sessionID string) (*models.Invoice, error)
	MarkSessionExpired(ctx context.Context, invoiceID string) error
	SaveDraft(ctx context.Context, inv *models.Invoice) error
	SetInvoiceTotals(ctx context.Context, invoiceID string, subtotal, totalGST, totalAmount float64) error
	ListInvoices(ctx context.Context, f InvoiceFilter) ([]models.Invoice, int64, error)

	// VerifyInvoice applies the admin decision in one conditional update;
	// it fails with models.ErrInvalidTransition unless the stored status is
	// pending.
	VerifyInvoice(ctx context.Context, invoiceID string, approved bool, adminID, notes string, at time.Time) (*models.Invoice, error)

	// RecordPrint bumps the print counter for the document renderer.
	RecordPrint(ctx context.Context, invoiceID string, at time.Time) (*models.Invoice, error)

	// Invoice items.
	ListItems(ctx context.Context, invoiceID string) ([]models.InvoiceItem, error)
	GetItem(ctx context.Context, invoiceID, itemID string) (*models.InvoiceItem, error)
	FindItemByProduct(ctx context.Context, invoiceID, productID string) (*models.InvoiceItem, error)
	SaveItem(ctx context.Context, item *models.InvoiceItem) error
	DeleteItem(ctx context.Context, invoiceID, itemID string) error
}
