package mongo

import (
	"context"
	"errors"
	"time"

	"storefront/domain/catalog"
	"storefront/domain/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Price     int64     `bson:"price"`
	Currency  string    `bson:"currency"`
	Image     string    `bson:"image,omitempty"`
	Stock     int       `bson:"stock"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (doc *productDocument) toDomain() *catalog.Product {
	return &catalog.Product{
		ID:    doc.ID,
		Name:  doc.Name,
		Price: *shared.NewMoney(doc.Price, doc.Currency),
		Image: doc.Image,
		Stock: doc.Stock,
	}
}

// ProductRepository catalog.Catalog on the products collection
type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

func (r *ProductRepository) GetByID(ctx context.Context, productID string) (*catalog.Product, error) {
	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.NewProductNotFoundError(productID)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// AdjustStock $inc guarded by a stock >= -delta filter.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int) error {
	filter := bson.M{"_id": productID, "stock": bson.M{"$gte": -delta}}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	product, err := r.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	return catalog.NewInsufficientStockError(product.Name)
}

// Seed upserts products (development fixtures).
func (r *ProductRepository) Seed(ctx context.Context, products ...catalog.Product) error {
	for _, p := range products {
		doc := productDocument{
			ID:        p.ID,
			Name:      p.Name,
			Price:     p.Price.Amount(),
			Currency:  p.Price.Currency(),
			Image:     p.Image,
			Stock:     p.Stock,
			UpdatedAt: time.Now().UTC(),
		}
		opts := options.Replace().SetUpsert(true)
		if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, opts); err != nil {
			return err
		}
	}
	return nil
}

var _ catalog.Catalog = (*ProductRepository)(nil)
