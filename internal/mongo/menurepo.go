// Package mongo adapts a MongoDB collection to the storefront's menu.Repo
// contract, for deployments that host the menu in Mongo instead of Firestore.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fuegoaustral/storefront/internal/menu"
)

// MenuRepo implements the menu.Repo interface using MongoDB.
type MenuRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     apt.Logger
	config     *apt.Config
}

// NewMenuRepo creates a new MongoDB menu repository.
func NewMenuRepo(config *apt.Config, logger apt.Logger) *MenuRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MenuRepo{
		logger: logger,
		config: config,
	}
}

// Start initializes the MongoDB connection.
func (r *MenuRepo) Start(ctx context.Context) error {
	mongoURL := r.config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := r.config.GetStringOrDef("db.mongo.name", "storefront")

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection("menu_items")

	// Index on active status for the storefront's only query shape
	activeIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, activeIndexModel); err != nil {
		return fmt.Errorf("cannot create active index: %w", err)
	}

	categoryIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, categoryIndexModel); err != nil {
		return fmt.Errorf("cannot create category index: %w", err)
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: menu_items", mongoURL, dbName)
	return nil
}

// Stop closes the MongoDB connection.
func (r *MenuRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

// List retrieves all active menu items.
func (r *MenuRepo) List(ctx context.Context) ([]*menu.MenuItem, error) {
	return r.find(ctx, bson.M{"active": true})
}

// ListByCategory retrieves active menu items in one category.
func (r *MenuRepo) ListByCategory(ctx context.Context, category menu.Category) ([]*menu.MenuItem, error) {
	return r.find(ctx, bson.M{"active": true, "category": string(category)})
}

// Get retrieves a menu item by ID.
func (r *MenuRepo) Get(ctx context.Context, id string) (*menu.MenuItem, error) {
	var item menu.MenuItem

	filter := bson.M{"_id": id, "active": true}
	err := r.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("menu item with ID %s not found", id)
		}
		return nil, fmt.Errorf("could not get menu item: %w", err)
	}
	return &item, nil
}

func (r *MenuRepo) find(ctx context.Context, filter bson.M) ([]*menu.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("could not list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*menu.MenuItem
	for cursor.Next(ctx) {
		var item menu.MenuItem
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("could not decode menu item: %w", err)
		}
		items = append(items, &item)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return items, nil
}
