package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-store/internal/domain/category"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Slug      string    `bson:"slug,omitempty"`
	ParentID  string    `bson:"parent_id,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *categoryDocument) toDomain() *category.Category {
	return &category.Category{
		ID:        d.ID,
		Name:      d.Name,
		Slug:      d.Slug,
		ParentID:  d.ParentID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection(categoriesCollection)}
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	doc := categoryDocument{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return category.ErrCategoryExists
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*category.Category, error) {
	var doc categoryDocument
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, category.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*category.Category, error) {
	return r.find(ctx, bson.M{})
}

// ListChildren returns the direct children of every id in parentIDs.
func (r *CategoryRepository) ListChildren(ctx context.Context, parentIDs []string) ([]*category.Category, error) {
	return r.find(ctx, bson.M{"parent_id": bson.M{"$in": parentIDs}})
}

func (r *CategoryRepository) find(ctx context.Context, filter bson.M) ([]*category.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]*category.Category, 0, len(docs))
	for i := range docs {
		categories = append(categories, docs[i].toDomain())
	}
	return categories, nil
}
