package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
)

// ResetDB drops the storefront MongoDB database. Firestore has no drop
// operation; use clear-menu there instead.
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	db, disconnect, err := connectMongo(ctx, config)
	if err != nil {
		return err
	}
	defer disconnect()

	logger.Info("Dropping database", "name", db.Name())
	if err := db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}

	return nil
}
