package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/go_storefront/internal/domain"
)

// UserRepository reads the identity provider's user mirror for analytics.
type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection("users")}
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	cur, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpsertUser(ctx context.Context, u domain.User) error {
	_, err := r.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
