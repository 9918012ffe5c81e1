package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"go-auth-service/internal/model"
)

const UsersCollectionName = "users"

type mongoUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Mobile    string             `bson:"mobile"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d mongoUser) toModel() model.User {
	return model.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		Mobile:       d.Mobile,
		PasswordHash: d.Password,
		Role:         model.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoUserRepository stores users in a single collection. Emails are stored in
// the normalized (lower-cased) form the service hands in.
type MongoUserRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users: db.Collection(UsersCollectionName),
		now:   time.Now,
	}
}

// EnsureIndexes creates the unique email index. Safe to call on every start.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	// BSON dates carry millisecond precision.
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := mongoUser{
		Name:      u.Name,
		Email:     strings.ToLower(strings.TrimSpace(u.Email)),
		Mobile:    u.Mobile,
		Password:  u.PasswordHash,
		Role:      string(u.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := r.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return model.User{}, model.ErrUserAlreadyExists
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return model.User{}, fmt.Errorf("create user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id

	return doc.toModel(), nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	user, err := r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, err
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.User{}, model.ErrUserNotFound
	}

	user, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, err
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.users.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (model.User, error) {
	var doc mongoUser
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return doc.toModel(), nil
}
