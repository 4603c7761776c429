package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/example/ec-store/internal/domain/inventory"
	"github.com/example/ec-store/internal/domain/product"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Image       string               `bson:"image,omitempty"`
	Brand       string               `bson:"brand,omitempty"`
	Stock       int                  `bson:"stock"`
	CategoryID  string               `bson:"category_id"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newProductDocument(p *product.Product) (*productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	return &productDocument{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Image:       p.Image,
		Brand:       p.Brand,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (d *productDocument) toDomain() (*product.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", d.ID, err)
	}
	return &product.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Image:       d.Image,
		Brand:       d.Brand,
		Stock:       d.Stock,
		CategoryID:  d.CategoryID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

// ProductRepository is the product catalogue and also its stock counter.
// Stock only changes through the conditional $inc updates below.
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(productsCollection)}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	doc, err := newProductDocument(p)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	var doc productDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain()
}

func (r *ProductRepository) List(ctx context.Context) ([]*product.Product, error) {
	return r.find(ctx, bson.M{}, newestFirst())
}

// Update writes every field except stock and created_at
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"name":        p.Name,
			"description": p.Description,
			"price":       price,
			"image":       p.Image,
			"brand":       p.Brand,
			"category_id": p.CategoryID,
			"updated_at":  p.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) ListByCategories(ctx context.Context, categoryIDs []string) ([]*product.Product, error) {
	return r.find(ctx, bson.M{"category_id": bson.M{"$in": categoryIDs}}, newestFirst())
}

func (r *ProductRepository) Search(ctx context.Context, f product.Filter) ([]*product.Product, int64, error) {
	filter := bson.M{}
	if f.Keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"brand": pattern},
		}
	}
	if f.CategoryID != "" {
		filter["category_id"] = f.CategoryID
	}

	priceRange := bson.M{}
	if f.MinPrice.Valid {
		v, err := toDecimal128(f.MinPrice.Decimal)
		if err != nil {
			return nil, 0, err
		}
		priceRange["$gte"] = v
	}
	if f.MaxPrice.Valid {
		v, err := toDecimal128(f.MaxPrice.Decimal)
		if err != nil {
			return nil, 0, err
		}
		priceRange["$lte"] = v
	}
	if len(priceRange) > 0 {
		filter["price"] = priceRange
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().SetSkip(int64(f.Skip))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	switch f.Sort {
	case product.SortPriceAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	case product.SortPriceDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	default:
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	}

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// DecrementStock subtracts qty only when at least qty units remain. The
// filter and the $inc run as one atomic document update; a miss is then
// told apart from a deleted product.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": productID, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	if result.ModifiedCount == 1 {
		return true, nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		return false, fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return false, inventory.ErrUnknownProduct
	}
	return false, nil
}

func (r *ProductRepository) IncrementStock(ctx context.Context, productID string, qty int) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$inc": bson.M{"stock": qty}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return inventory.ErrUnknownProduct
	}
	return nil
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*product.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*product.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
}
