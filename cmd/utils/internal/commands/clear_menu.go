package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"google.golang.org/api/iterator"
)

// ClearMenu removes every menu item from the configured document store,
// along with the seed marker so seed-menu can run again.
func ClearMenu(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	provider := config.GetStringOrDef("menu.provider", "mongo")
	logger.Info("Clearing menu", "provider", provider)

	switch provider {
	case "mongo":
		return clearMongo(ctx, config, logger)
	case "firestore":
		return clearFirestore(ctx, config, logger)
	default:
		return fmt.Errorf("unknown menu provider: %s", provider)
	}
}

func clearMongo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	db, disconnect, err := connectMongo(ctx, config)
	if err != nil {
		return err
	}
	defer disconnect()

	res, err := db.Collection(menuCollection).DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("delete menu items: %w", err)
	}

	if _, err := db.Collection("_seeds").DeleteOne(ctx, bson.M{"_id": builtinMenuSeedID}); err != nil {
		return fmt.Errorf("remove seed marker: %w", err)
	}

	logger.Info("Cleared menu items", "count", res.DeletedCount)
	return nil
}

func clearFirestore(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	client, collection, err := connectFirestore(ctx, config)
	if err != nil {
		return err
	}
	defer client.Close()

	it := client.Collection(collection).Documents(ctx)
	defer it.Stop()

	removed := 0
	for {
		snap, err := it.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return fmt.Errorf("iterate menu items: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete menu item %s: %w", snap.Ref.ID, err)
		}
		removed++
	}

	logger.Info("Cleared menu items", "count", removed)
	return nil
}
