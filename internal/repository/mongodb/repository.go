// Package mongodb implements the repository.Store contract on MongoDB.
// Multi-record mutations run inside server-side transactions; the single
// live draft per (user, session) invariant is enforced with a partial unique
// index so concurrent draft creation cannot race past the application check.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
)

const (
	usersColl    = "users"
	productsColl = "products"
	invoicesColl = "invoices"
	itemsColl    = "invoice_items"
)

// Store implements repository.Store on MongoDB.
type Store struct {
	client *mongo.Client
	dbName string
}

// NewStore connects to MongoDB, verifies the connection and ensures the
// indexes the billing invariants rely on.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, dbName: dbName}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return s, nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	// One live draft per (user, session): uniqueness applies only while the
	// invoice is an unexpired draft.
	_, err := s.coll(invoicesColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"status":             models.StatusDraft,
				"is_session_expired": false,
			}),
		},
		{
			Keys:    bson.D{{Key: "invoice_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = s.coll(itemsColl).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invoice_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = s.coll(usersColl).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}},
	})
	return err
}

// WithTx runs fn inside a MongoDB transaction. A call made while already in
// a transaction joins the enclosing one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

var _ repository.Store = (*Store)(nil)
