package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

func (s *Store) CreateDraft(ctx context.Context, inv *models.Invoice) error {
	_, err := s.coll(invoicesColl).InsertOne(ctx, inv)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateDraft
	}
	if err != nil {
		return fmt.Errorf("insert draft invoice: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.coll(invoicesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	items, err := s.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (s *Store) FindActiveDraft(ctx context.Context, userID, sessionID string) (*models.Invoice, error) {
	filter := bson.M{
		"user_id":            userID,
		"session_id":         sessionID,
		"status":             models.StatusDraft,
		"is_session_expired": false,
	}
	var inv models.Invoice
	err := s.coll(invoicesColl).FindOne(ctx, filter).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active draft: %w", err)
	}
	items, err := s.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

// MarkSessionExpired flips the sticky expiry flag. It never clears it.
func (s *Store) MarkSessionExpired(ctx context.Context, invoiceID string) error {
	res, err := s.coll(invoicesColl).UpdateByID(ctx, invoiceID,
		bson.M{"$set": bson.M{"is_session_expired": true}})
	if err != nil {
		return fmt.Errorf("mark session expired: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SaveDraft replaces the invoice document only while its stored status is
// still draft, so a concurrent completion or verification cannot be
// overwritten.
func (s *Store) SaveDraft(ctx context.Context, inv *models.Invoice) error {
	saved := *inv
	saved.Items = nil
	res, err := s.coll(invoicesColl).ReplaceOne(ctx,
		bson.M{"_id": inv.ID, "status": models.StatusDraft}, &saved)
	if err != nil {
		return fmt.Errorf("save draft invoice: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, gerr := s.GetInvoice(ctx, inv.ID); gerr != nil {
			return gerr
		}
		return models.ErrInvalidTransition
	}
	return nil
}

func (s *Store) SetInvoiceTotals(ctx context.Context, invoiceID string, subtotal, totalGST, totalAmount float64) error {
	res, err := s.coll(invoicesColl).UpdateByID(ctx, invoiceID, bson.M{"$set": bson.M{
		"subtotal":     subtotal,
		"total_gst":    totalGST,
		"total_amount": totalAmount,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set invoice totals: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, f repository.InvoiceFilter) ([]models.Invoice, int64, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.PendingOnly {
		filter["status"] = models.StatusPending
		filter["admin_verified"] = false
	}
	if f.HideVerified {
		filter["admin_verified"] = false
		filter["status"] = bson.M{"$ne": models.StatusCompleted}
		// Abandoned drafts (session lapsed, never completed) stay out of the
		// default views too.
		filter["$nor"] = []bson.M{{
			"status":             models.StatusDraft,
			"is_session_expired": true,
		}}
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() {
		filter["created_at"] = bson.M{"$gte": f.StartDate, "$lte": f.EndDate}
	}

	total, err := s.coll(invoicesColl).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := s.coll(invoicesColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	var out []models.Invoice
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode invoices: %w", err)
	}
	for i := range out {
		items, err := s.ListItems(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Items = items
	}
	return out, total, nil
}

// VerifyInvoice applies the admin decision with a conditional update keyed on
// status=pending; the terminal status, verifier and timestamp land in one
// write.
func (s *Store) VerifyInvoice(ctx context.Context, invoiceID string, approved bool, adminID, notes string, at time.Time) (*models.Invoice, error) {
	status := models.StatusCancelled
	if approved {
		status = models.StatusCompleted
	}
	set := bson.M{
		"status":         status,
		"admin_verified": approved,
		"verified_by":    adminID,
		"verified_at":    at,
		"updated_at":     at,
	}
	if notes != "" {
		set["notes"] = notes
	}

	var inv models.Invoice
	err := s.coll(invoicesColl).FindOneAndUpdate(ctx,
		bson.M{"_id": invoiceID, "status": models.StatusPending},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetInvoice(ctx, invoiceID); gerr != nil {
			return nil, gerr
		}
		return nil, models.ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("verify invoice: %w", err)
	}
	items, err := s.ListItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (s *Store) RecordPrint(ctx context.Context, invoiceID string, at time.Time) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.coll(invoicesColl).FindOneAndUpdate(ctx,
		bson.M{"_id": invoiceID},
		bson.M{
			"$inc": bson.M{"print_count": 1},
			"$set": bson.M{"last_printed_at": at},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("record print: %w", err)
	}
	items, err := s.ListItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (s *Store) ListItems(ctx context.Context, invoiceID string) ([]models.InvoiceItem, error) {
	cur, err := s.coll(itemsColl).Find(ctx, bson.M{"invoice_id": invoiceID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	var out []models.InvoiceItem
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	return out, nil
}

func (s *Store) GetItem(ctx context.Context, invoiceID, itemID string) (*models.InvoiceItem, error) {
	var it models.InvoiceItem
	err := s.coll(itemsColl).FindOne(ctx, bson.M{"_id": itemID, "invoice_id": invoiceID}).Decode(&it)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invoice item: %w", err)
	}
	return &it, nil
}

func (s *Store) FindItemByProduct(ctx context.Context, invoiceID, productID string) (*models.InvoiceItem, error) {
	var it models.InvoiceItem
	err := s.coll(itemsColl).FindOne(ctx, bson.M{"invoice_id": invoiceID, "product_id": productID}).Decode(&it)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find invoice item by product: %w", err)
	}
	return &it, nil
}

func (s *Store) SaveItem(ctx context.Context, item *models.InvoiceItem) error {
	_, err := s.coll(itemsColl).ReplaceOne(ctx, bson.M{"_id": item.ID}, item,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save invoice item: %w", err)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, invoiceID, itemID string) error {
	res, err := s.coll(itemsColl).DeleteOne(ctx, bson.M{"_id": itemID, "invoice_id": invoiceID})
	if err != nil {
		return fmt.Errorf("delete invoice item: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
