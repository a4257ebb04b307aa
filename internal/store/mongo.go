package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/happyshelf/backend/internal/models"
)

// MongoStore is the document backend. Users and items live in their own
// collections; item ownership is enforced by filtering on _id and user_id
// in the same query.
type MongoStore struct {
	users *mongo.Collection
	items *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users: db.Collection("users"),
		items: db.Collection("inventory_items"),
	}
}

// EnsureIndexes creates the unique email index and the per-owner item index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	_, err = s.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("items user_id index: %w", err)
	}
	return nil
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

type mongoItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     string             `bson:"user_id"`
	Name       string             `bson:"name"`
	Category   string             `bson:"category"`
	Quantity   int                `bson:"quantity"`
	DailyUsage float64            `bson:"daily_usage"`
	ExpiryDate *time.Time         `bson:"expiry_date"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (u *mongoUser) toModel() *models.User {
	return &models.User{
		ID:           u.ID.Hex(),
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (i *mongoItem) toModel() models.InventoryItem {
	return models.InventoryItem{
		ID:         i.ID.Hex(),
		UserID:     i.UserID,
		Name:       i.Name,
		Category:   i.Category,
		Quantity:   i.Quantity,
		DailyUsage: i.DailyUsage,
		ExpiryDate: i.ExpiryDate,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

func (s *MongoStore) CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	doc := mongoUser{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("mongo insert user: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc mongoUser
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find user by email: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc mongoUser
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find user by id: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) FindByOwner(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.items.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find items: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoItem
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode items: %w", err)
	}
	items := make([]models.InventoryItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toModel())
	}
	return items, nil
}

func (s *MongoStore) FindOneScoped(ctx context.Context, id, ownerID string) (*models.InventoryItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc mongoItem
	err = s.items.FindOne(ctx, bson.M{"_id": oid, "user_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find item: %w", err)
	}
	item := doc.toModel()
	return &item, nil
}

func (s *MongoStore) Insert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	now := time.Now().UTC()
	doc := mongoItem{
		UserID:     item.UserID,
		Name:       item.Name,
		Category:   item.Category,
		Quantity:   item.Quantity,
		DailyUsage: item.DailyUsage,
		ExpiryDate: item.ExpiryDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := s.items.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("mongo insert item: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	saved := doc.toModel()
	return &saved, nil
}

func (s *MongoStore) UpdateScoped(ctx context.Context, id, ownerID string, patch ItemPatch) (*models.InventoryItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	if patch.DailyUsage != nil {
		set["daily_usage"] = *patch.DailyUsage
	}
	if patch.SetExpiry {
		set["expiry_date"] = patch.ExpiryDate
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoItem
	err = s.items.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "user_id": ownerID},
		bson.M{"$set": set},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo update item: %w", err)
	}
	item := doc.toModel()
	return &item, nil
}

func (s *MongoStore) DeleteScoped(ctx context.Context, id, ownerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.items.DeleteOne(ctx, bson.M{"_id": oid, "user_id": ownerID})
	if err != nil {
		return fmt.Errorf("mongo delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
