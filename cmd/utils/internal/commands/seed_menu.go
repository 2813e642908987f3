package commands

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fuegoaustral/storefront/internal/menu"
)

const (
	defaultMongoURL     = "mongodb://localhost:27017"
	defaultMongoDB      = "storefront"
	menuCollection      = "menu_items"
	firestoreCollection = "pizzas"
	builtinMenuSeedID   = "builtin_menu_v1"
)

// SeedMenu loads the built-in menu into the configured document store so a
// fresh environment starts with real items instead of the offline fallback.
func SeedMenu(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	provider := config.GetStringOrDef("menu.provider", "mongo")
	logger.Info("Starting menu seeding", "provider", provider)

	switch provider {
	case "mongo":
		return seedMongo(ctx, config, logger)
	case "firestore":
		return seedFirestore(ctx, config, logger)
	default:
		return fmt.Errorf("unknown menu provider: %s", provider)
	}
}

func seedMongo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	db, disconnect, err := connectMongo(ctx, config)
	if err != nil {
		return err
	}
	defer disconnect()

	logger.Info("Connected to MongoDB")

	// Check if already seeded
	seeds := db.Collection("_seeds")
	count, err := seeds.CountDocuments(ctx, bson.M{"_id": builtinMenuSeedID})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}
	if count > 0 {
		logger.Info("Menu already seeded, skipping")
		return nil
	}

	items := menu.FallbackItems()
	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		docs = append(docs, item)
	}

	if _, err := db.Collection(menuCollection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert menu items: %w", err)
	}

	if _, err := seeds.InsertOne(ctx, bson.M{"_id": builtinMenuSeedID, "applied_at": time.Now().UTC()}); err != nil {
		return fmt.Errorf("record seed: %w", err)
	}

	logger.Info("Seeded menu items", "count", len(items))
	return nil
}

func seedFirestore(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	client, collection, err := connectFirestore(ctx, config)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("Connected to Firestore")

	now := time.Now().UTC()
	items := menu.FallbackItems()
	for _, item := range items {
		doc := map[string]interface{}{
			"name":        item.Name,
			"ingredients": item.Ingredients,
			"price":       item.Price,
			"category":    string(item.Category),
			"description": item.Description,
			"badge":       item.Badge,
			"icon":        item.Icon,
			"imageUrl":    item.ImageURL,
			"isActive":    true,
			"createdAt":   now,
			"updatedAt":   now,
		}
		if _, err := client.Collection(collection).Doc(item.ID).Set(ctx, doc); err != nil {
			return fmt.Errorf("set menu item %s: %w", item.ID, err)
		}
	}

	logger.Info("Seeded menu items", "count", len(items))
	return nil
}

func connectMongo(ctx context.Context, config *apt.Config) (*mongo.Database, func(), error) {
	mongoURL := config.GetStringOrDef("db.mongo.url", defaultMongoURL)
	dbName := config.GetStringOrDef("db.mongo.name", defaultMongoDB)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	disconnect := func() { client.Disconnect(ctx) }
	return client.Database(dbName), disconnect, nil
}

func connectFirestore(ctx context.Context, config *apt.Config) (*firestore.Client, string, error) {
	projectID, _ := config.GetString("db.firestore.project")
	if projectID == "" {
		return nil, "", fmt.Errorf("db.firestore.project is required")
	}
	collection := config.GetStringOrDef("db.firestore.collection", firestoreCollection)

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, "", fmt.Errorf("connect to firestore: %w", err)
	}
	return client, collection, nil
}
