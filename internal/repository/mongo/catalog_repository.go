package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
)

type CatalogRepository struct {
	products *mongo.Collection
}

var _ catalog.Reader = (*CatalogRepository)(nil)

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{products: db.Collection("products")}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	cur, err := r.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// UpsertProduct is used by seeding and tests; the storefront only reads.
func (r *CatalogRepository) UpsertProduct(ctx context.Context, p domain.Product) error {
	_, err := r.products.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}
