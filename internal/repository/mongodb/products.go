package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.coll(productsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

// ReserveStock decrements stock with a single conditional update so two
// concurrent reservations can never both pass the availability check.
func (s *Store) ReserveStock(ctx context.Context, productID string, qty float64) (float64, error) {
	filter := bson.M{
		"_id":            productID,
		"is_active":      true,
		"stock_quantity": bson.M{"$gte": qty},
	}
	update := bson.M{"$inc": bson.M{"stock_quantity": -qty}}

	var p models.Product
	err := s.coll(productsColl).FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err == nil {
		return p.StockQuantity, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("reserve stock: %w", err)
	}

	// The conditional update missed; re-read to report why.
	current, gerr := s.GetProduct(ctx, productID)
	if gerr != nil {
		return 0, gerr
	}
	if !current.IsActive {
		return 0, models.ErrProductInactive
	}
	return 0, &models.InsufficientStockError{
		ProductID: productID,
		Requested: qty,
		Available: current.StockQuantity,
	}
}

func (s *Store) ReleaseStock(ctx context.Context, productID string, qty float64) (float64, error) {
	var p models.Product
	err := s.coll(productsColl).FindOneAndUpdate(ctx,
		bson.M{"_id": productID},
		bson.M{"$inc": bson.M{"stock_quantity": qty}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("release stock: %w", err)
	}
	return p.StockQuantity, nil
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]models.Product, error) {
	filter := bson.M{
		"is_active": true,
		"$expr":     bson.M{"$lte": bson.A{"$stock_quantity", "$min_stock_level"}},
	}
	cur, err := s.coll(productsColl).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode low stock products: %w", err)
	}
	return out, nil
}
