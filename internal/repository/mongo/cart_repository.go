package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/go_storefront/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists whole carts. Line merging is done by the cart engine
// before the document is written, so the store never edits lines in place.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
	// CreateIndexes makes user_id unique so concurrent first writes for one
	// user land on a single document.
	CreateIndexes(ctx context.Context) error
}

type cartRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{
		collection: db.Collection("carts"),
		now:        time.Now,
	}
}

func (m *cartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *cartRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := m.now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}

	filter := bson.M{"user_id": cart.UserID}
	update := bson.M{"$set": cart}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *cartRepository) DeleteCart(ctx context.Context, userID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *cartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
