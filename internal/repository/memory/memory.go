// Package memory provides an in-process Store used by tests and local
// development. A single mutex serializes transactions; WithTx snapshots all
// tables up front and restores them when the callback fails, giving the same
// all-or-nothing behavior the mongo implementation gets from server-side
// transactions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

type txKey struct{}

// Store is an in-memory implementation of repository.Store.
type Store struct {
	mu       sync.Mutex
	users    map[string]models.User
	products map[string]models.Product
	invoices map[string]models.Invoice
	items    map[string]models.InvoiceItem
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		products: make(map[string]models.Product),
		invoices: make(map[string]models.Invoice),
		items:    make(map[string]models.InvoiceItem),
	}
}

// enter acquires the store lock unless ctx is already inside a transaction,
// in which case WithTx holds it.
func (s *Store) enter(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithTx serializes the callback against all other store access and rolls
// every table back if it returns an error.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		// Nested call joins the enclosing transaction.
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := copyMap(s.users)
	products := copyMap(s.products)
	invoices := copyMap(s.invoices)
	items := copyMap(s.items)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.users = users
		s.products = products
		s.invoices = invoices
		s.items = items
		return err
	}
	return nil
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SeedUser inserts or replaces a user record.
func (s *Store) SeedUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedProduct inserts or replaces a product record.
func (s *Store) SeedProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer s.enter(ctx)()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserBySession(ctx context.Context, sessionID string) (*models.User, error) {
	defer s.enter(ctx)()
	if sessionID == "" {
		return nil, models.ErrNotFound
	}
	for _, u := range s.users {
		if u.SessionID == sessionID {
			out := u
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) GrantSession(ctx context.Context, userID, sessionID string, expiry time.Time) error {
	defer s.enter(ctx)()
	u, ok := s.users[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.SessionID = sessionID
	u.SessionExpiry = expiry
	s.users[userID] = u
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	defer s.enter(ctx)()
	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ReserveStock(ctx context.Context, productID string, qty float64) (float64, error) {
	defer s.enter(ctx)()
	p, ok := s.products[productID]
	if !ok {
		return 0, models.ErrNotFound
	}
	if !p.IsActive {
		return 0, models.ErrProductInactive
	}
	if p.StockQuantity < qty {
		return 0, &models.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: p.StockQuantity,
		}
	}
	p.StockQuantity -= qty
	s.products[productID] = p
	return p.StockQuantity, nil
}

func (s *Store) ReleaseStock(ctx context.Context, productID string, qty float64) (float64, error) {
	defer s.enter(ctx)()
	p, ok := s.products[productID]
	if !ok {
		return 0, models.ErrNotFound
	}
	p.StockQuantity += qty
	s.products[productID] = p
	return p.StockQuantity, nil
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]models.Product, error) {
	defer s.enter(ctx)()
	var out []models.Product
	for _, p := range s.products {
		if p.IsActive && p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateDraft(ctx context.Context, inv *models.Invoice) error {
	defer s.enter(ctx)()
	for _, existing := range s.invoices {
		if existing.UserID == inv.UserID &&
			existing.SessionID == inv.SessionID &&
			existing.Status == models.StatusDraft &&
			!existing.IsSessionExpired {
			return models.ErrDuplicateDraft
		}
	}
	s.invoices[inv.ID] = *inv
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	defer s.enter(ctx)()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	inv.Items = s.itemsOf(id)
	return &inv, nil
}

func (s *Store) FindActiveDraft(ctx context.Context, userID, sessionID string) (*models.Invoice, error) {
	defer s.enter(ctx)()
	for _, inv := range s.invoices {
		if inv.UserID == userID &&
			inv.SessionID == sessionID &&
			inv.Status == models.StatusDraft &&
			!inv.IsSessionExpired {
			inv.Items = s.itemsOf(inv.ID)
			return &inv, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) MarkSessionExpired(ctx context.Context, invoiceID string) error {
	defer s.enter(ctx)()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return models.ErrNotFound
	}
	inv.IsSessionExpired = true
	s.invoices[invoiceID] = inv
	return nil
}

func (s *Store) SaveDraft(ctx context.Context, inv *models.Invoice) error {
	defer s.enter(ctx)()
	existing, ok := s.invoices[inv.ID]
	if !ok {
		return models.ErrNotFound
	}
	if existing.Status != models.StatusDraft {
		return models.ErrInvalidTransition
	}
	saved := *inv
	saved.Items = nil
	s.invoices[inv.ID] = saved
	return nil
}

func (s *Store) SetInvoiceTotals(ctx context.Context, invoiceID string, subtotal, totalGST, totalAmount float64) error {
	defer s.enter(ctx)()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return models.ErrNotFound
	}
	inv.Subtotal = subtotal
	inv.TotalGST = totalGST
	inv.TotalAmount = totalAmount
	s.invoices[invoiceID] = inv
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, f repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	defer s.enter(ctx)()

	var matched []models.Invoice
	for _, inv := range s.invoices {
		if f.UserID != "" && inv.UserID != f.UserID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.PendingOnly && (inv.Status != models.StatusPending || inv.AdminVerified) {
			continue
		}
		if f.HideVerified && (inv.AdminVerified || inv.Status == models.StatusCompleted ||
			(inv.Status == models.StatusDraft && inv.IsSessionExpired)) {
			continue
		}
		if !f.StartDate.IsZero() && inv.CreatedAt.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && inv.CreatedAt.After(f.EndDate) {
			continue
		}
		matched = append(matched, inv)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := matched[start:end]
	for i := range out {
		out[i].Items = s.itemsOf(out[i].ID)
	}
	return out, total, nil
}

func (s *Store) VerifyInvoice(ctx context.Context, invoiceID string, approved bool, adminID, notes string, at time.Time) (*models.Invoice, error) {
	defer s.enter(ctx)()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if inv.Status != models.StatusPending {
		return nil, models.ErrInvalidTransition
	}
	inv.AdminVerified = approved
	inv.VerifiedBy = adminID
	inv.VerifiedAt = at
	if approved {
		inv.Status = models.StatusCompleted
	} else {
		inv.Status = models.StatusCancelled
	}
	if notes != "" {
		inv.Notes = notes
	}
	inv.UpdatedAt = at
	s.invoices[invoiceID] = inv
	inv.Items = s.itemsOf(invoiceID)
	return &inv, nil
}

func (s *Store) RecordPrint(ctx context.Context, invoiceID string, at time.Time) (*models.Invoice, error) {
	defer s.enter(ctx)()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, models.ErrNotFound
	}
	inv.PrintCount++
	inv.LastPrintedAt = at
	s.invoices[invoiceID] = inv
	inv.Items = s.itemsOf(invoiceID)
	return &inv, nil
}

func (s *Store) ListItems(ctx context.Context, invoiceID string) ([]models.InvoiceItem, error) {
	defer s.enter(ctx)()
	return s.itemsOf(invoiceID), nil
}

func (s *Store) GetItem(ctx context.Context, invoiceID, itemID string) (*models.InvoiceItem, error) {
	defer s.enter(ctx)()
	it, ok := s.items[itemID]
	if !ok || it.InvoiceID != invoiceID {
		return nil, models.ErrNotFound
	}
	return &it, nil
}

func (s *Store) FindItemByProduct(ctx context.Context, invoiceID, productID string) (*models.InvoiceItem, error) {
	defer s.enter(ctx)()
	for _, it := range s.items {
		if it.InvoiceID == invoiceID && it.ProductID == productID {
			out := it
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) SaveItem(ctx context.Context, item *models.InvoiceItem) error {
	defer s.enter(ctx)()
	s.items[item.ID] = *item
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, invoiceID, itemID string) error {
	defer s.enter(ctx)()
	it, ok := s.items[itemID]
	if !ok || it.InvoiceID != invoiceID {
		return models.ErrNotFound
	}
	delete(s.items, itemID)
	return nil
}

func (s *Store) itemsOf(invoiceID string) []models.InvoiceItem {
	var out []models.InvoiceItem
	for _, it := range s.items {
		if it.InvoiceID == invoiceID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

var _ repository.Store = (*Store)(nil)
