package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"

	"github.com/fuegoaustral/storefront/internal/cart"
	"github.com/fuegoaustral/storefront/internal/checkout"
	"github.com/fuegoaustral/storefront/internal/clock"
	"github.com/fuegoaustral/storefront/internal/firestore"
	"github.com/fuegoaustral/storefront/internal/menu"
	"github.com/fuegoaustral/storefront/internal/mongo"
	"github.com/fuegoaustral/storefront/pkg/event"
)

const (
	appNamespace = "STOREFRONT"
	appName      = "storefront"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup with error: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	// Menu provider: a hosted document database when configured, with the
	// built-in menu as a safety net either way.
	var menuRepo menu.Repo
	var lifecycle []interface{}

	switch provider := config.GetStringOrDef("menu.provider", "firestore"); provider {
	case "firestore":
		repo := firestore.NewMenuRepo(config, logger)
		lifecycle = append(lifecycle, repo)
		menuRepo = menu.NewFallback(repo, logger)
	case "mongo":
		repo := mongo.NewMenuRepo(config, logger)
		lifecycle = append(lifecycle, repo)
		menuRepo = menu.NewFallback(repo, logger)
	case "builtin":
		menuRepo = menu.NewFallback(nil, logger)
	default:
		log.Fatalf("%s(%s) unknown menu provider: %s", appName, appVersion, provider)
	}

	// Confirmed orders are published for kitchen and notification consumers.
	// The storefront runs fine without a broker.
	var publisher events.Publisher
	if natsURL, _ := config.GetString("nats.url"); natsURL != "" {
		pub, err := event.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Info("nats.url not set, confirmed order events disabled")
	}

	sessionTTL := cart.DefaultSessionTTL
	if raw := config.GetStringOrDef("cart.session_ttl", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("%s(%s) invalid cart.session_ttl: %v", appName, appVersion, err)
		}
		sessionTTL = ttl
	}
	sessions := cart.NewSessions(clock.System(), sessionTTL, logger)
	lifecycle = append(lifecycle, sessions)

	menuHandler := menu.NewHandler(menuRepo, config, logger)
	cartHandler := cart.NewHandler(sessions, menuRepo, config, logger)
	checkoutHandler := checkout.NewHandler(sessions, publisher, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", menuHandler, cartHandler, checkoutHandler),
		apt.WithLifecycle(lifecycle...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
