package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/domain/shared"
	"storefront/domain/user"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	IsActive  bool      `bson:"is_active"`
	Version   int       `bson:"version"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newUserDocument(u *user.User) *userDocument {
	dto := u.ToDTO()
	return &userDocument{
		ID:        dto.ID,
		Name:      dto.Name,
		Email:     dto.Email,
		Role:      string(dto.Role),
		IsActive:  dto.IsActive,
		Version:   dto.Version,
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
	}
}

func (doc *userDocument) toDomain() *user.User {
	return user.RebuildFromDTO(user.ReconstructionDTO{
		ID:        doc.ID,
		Name:      doc.Name,
		Email:     doc.Email,
		Role:      user.Role(doc.Role),
		IsActive:  doc.IsActive,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	})
}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	doc := newUserDocument(u)
	expectedVersion := u.Version()
	doc.Version = expectedVersion + 1

	if expectedVersion == 0 {
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return shared.NewConflictError("user", "email already registered: "+doc.Email)
			}
			return err
		}
		u.IncrementVersionForSave()
		return nil
	}

	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID(), "version": expectedVersion}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		count, err := r.coll.CountDocuments(ctx, bson.M{"_id": u.ID()})
		if err != nil {
			return err
		}
		if count == 0 {
			return user.NewUserNotFoundError(u.ID())
		}
		return user.NewConcurrentModificationError(u.ID())
	}
	u.IncrementVersionForSave()
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, label string) (*user.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.NewUserNotFoundError(label)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

var _ user.Repository = (*UserRepository)(nil)
