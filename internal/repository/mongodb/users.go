package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.coll(usersColl).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserBySession(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, models.ErrNotFound
	}
	var u models.User
	err := s.coll(usersColl).FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by session: %w", err)
	}
	return &u, nil
}

func (s *Store) GrantSession(ctx context.Context, userID, sessionID string, expiry time.Time) error {
	res, err := s.coll(usersColl).UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"session_id":     sessionID,
		"session_expiry": expiry,
	}})
	if err != nil {
		return fmt.Errorf("grant session: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
