package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreybb/ikizamini/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase       = "ikizamini"
	mongoConnectTimeout = 10 * time.Second
)

// MongoStore is the document-store backend. IDs are UUID strings rather than
// ObjectIDs so the same model serves every backend.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	marks    *mongo.Collection
	contacts *mongo.Collection
}

// OpenMongo connects to the cluster, verifies the connection, and ensures the
// unique index on users.email that CreateUser's duplicate detection relies on.
func OpenMongo(ctx context.Context, uri string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(mongoDatabase)
	store := &MongoStore{
		client:   client,
		users:    db.Collection("users"),
		marks:    db.Collection("marks"),
		contacts: db.Collection("contacts"),
	}

	_, err = store.users.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure email index: %w", err)
	}

	return store, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"name": name})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) MarkVerified(ctx context.Context, email string) error {
	update := bson.M{
		"$set":   bson.M{"is_verified": true},
		"$unset": bson.M{"otp_code": ""},
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"email": email}, update); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateMark(ctx context.Context, userID string, score, total int) (*models.Mark, error) {
	mark := models.Mark{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.marks.InsertOne(ctx, &mark); err != nil {
		return nil, fmt.Errorf("failed to insert mark: %w", err)
	}
	return &mark, nil
}

func (s *MongoStore) ListMarksByUser(ctx context.Context, userID string) ([]models.Mark, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := s.marks.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query marks: %w", err)
	}

	var marks []models.Mark
	if err := cursor.All(ctx, &marks); err != nil {
		return nil, fmt.Errorf("failed to decode marks: %w", err)
	}
	return marks, nil
}

func (s *MongoStore) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	if _, err := s.contacts.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
