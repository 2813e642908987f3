package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"

	"github.com/fuegoaustral/storefront/cmd/utils/internal/commands"
)

const (
	appName    = "storefront-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-menu":
		if err := commands.SeedMenu(ctx, config, logger); err != nil {
			log.Fatalf("❌ Menu seeding failed: %v", err)
		}
		logger.Info("✅ Menu seeding completed successfully")

	case "clear-menu":
		if err := commands.ClearMenu(ctx, config, logger); err != nil {
			log.Fatalf("❌ Clear menu failed: %v", err)
		}
		logger.Info("✅ Menu cleared successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Storefront utility commands

Usage:
  %s <command> [options]

Commands:
  seed-menu    Seed the configured menu store with the built-in menu items
  clear-menu   Remove every menu item from the configured menu store
  reset-db     Full database reset (drops the storefront database - USE WITH CAUTION)
  version      Print version information
  help         Show this help message

Environment Variables:
  UTILS_MENU_PROVIDER         Menu store: mongo or firestore (default: mongo)
  UTILS_DB_MONGO_URL          MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB_MONGO_NAME         MongoDB database name (default: storefront)
  UTILS_DB_FIRESTORE_PROJECT  Firestore project id (required for firestore)
  UTILS_LOG_LEVEL             Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-menu
  %s clear-menu
  UTILS_MENU_PROVIDER=firestore UTILS_DB_FIRESTORE_PROJECT=my-project %s seed-menu

`, appName, appName, appName, appName, appName)
}
