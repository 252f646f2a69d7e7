package user

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection is the collection users are stored in.
const DefaultMongoCollection = "users"

// MongoRepositoryConfig holds configuration for the MongoDB repository.
type MongoRepositoryConfig struct {
	Database   *mongo.Database
	Collection string

	// BadgeIDByName resolves legacy badges stored by name only.
	BadgeIDByName func(name string) (int, bool)

	// LevelFor recomputes the derived level on read.
	LevelFor func(points int) string
}

// MongoRepository is a MongoDB implementation of Repository.
type MongoRepository struct {
	coll    *mongo.Collection
	adapter documentAdapter
}

// NewMongoRepository creates a new MongoDB user repository.
func NewMongoRepository(cfg MongoRepositoryConfig) *MongoRepository {
	name := cfg.Collection
	if name == "" {
		name = DefaultMongoCollection
	}

	return &MongoRepository{
		coll: cfg.Database.Collection(name),
		adapter: documentAdapter{
			badgeIDByName: cfg.BadgeIDByName,
			levelFor:      cfg.LevelFor,
		},
	}
}

// EnsureIndexes creates the unique email index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (r *MongoRepository) Get(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, idFilter(id))
}

// GetByEmail retrieves a user by email.
func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

// Create inserts a new user document.
func (r *MongoRepository) Create(ctx context.Context, u *User) error {
	_, err := r.coll.InsertOne(ctx, r.adapter.toDocument(u))
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

// Update overwrites the stored fields of an existing user.
// The _id is left untouched so legacy ObjectID documents keep their key.
func (r *MongoRepository) Update(ctx context.Context, u *User) error {
	doc := r.adapter.toDocument(u)
	doc.ID = ""

	// Drop legacy field names so the document converges on the canonical shape.
	update := bson.M{
		"$set": doc,
		"$unset": bson.M{
			"nome":        "",
			"senha":       "",
			"nivel":       "",
			"googleId":    "",
			"dataCriacao": "",
		},
	}

	result, err := r.coll.UpdateOne(ctx, idFilter(u.ID), update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

// List returns all users in natural order.
func (r *MongoRepository) List(ctx context.Context) ([]*User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*User
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, r.adapter.toUser(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// Ping checks MongoDB connectivity.
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return r.adapter.toUser(&doc), nil
}

// Ensure MongoRepository implements Repository interface.
var _ Repository = (*MongoRepository)(nil)
