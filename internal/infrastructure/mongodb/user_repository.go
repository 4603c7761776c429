package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-store/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Name         string    `bson:"name"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d *userDocument) toDomain() *user.User {
	return &user.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	doc := userDocument{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*user.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}
