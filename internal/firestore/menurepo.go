// Package firestore adapts the hosted Firestore menu collection to the
// storefront's menu.Repo contract.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/appetiteclub/apt"
	"google.golang.org/api/iterator"

	"github.com/fuegoaustral/storefront/internal/menu"
)

// MenuRepo implements menu.Repo against a Firestore collection.
type MenuRepo struct {
	client     *firestore.Client
	collection string
	logger     apt.Logger
	config     *apt.Config
}

// NewMenuRepo creates a Firestore menu repository.
func NewMenuRepo(config *apt.Config, logger apt.Logger) *MenuRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MenuRepo{
		logger: logger,
		config: config,
	}
}

// Start initializes the Firestore client.
func (r *MenuRepo) Start(ctx context.Context) error {
	projectID, _ := r.config.GetString("db.firestore.project")
	if projectID == "" {
		return fmt.Errorf("db.firestore.project is required for the firestore menu provider")
	}

	r.collection = r.config.GetStringOrDef("db.firestore.collection", "pizzas")

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("cannot create Firestore client: %w", err)
	}
	r.client = client

	r.logger.Infof("Connected to Firestore: project %s, collection %s", projectID, r.collection)
	return nil
}

// Stop closes the Firestore client.
func (r *MenuRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Close(); err != nil {
			return fmt.Errorf("cannot close Firestore client: %w", err)
		}
	}
	return nil
}

// menuItemDoc mirrors the document layout the menu administration tool
// writes. Field names are the collection's, not ours.
type menuItemDoc struct {
	Name        string    `firestore:"name"`
	Ingredients string    `firestore:"ingredients"`
	Price       int       `firestore:"price"`
	Category    string    `firestore:"category"`
	Description string    `firestore:"description"`
	Badge       string    `firestore:"badge"`
	Icon        string    `firestore:"icon"`
	ImageURL    string    `firestore:"imageUrl"`
	IsActive    bool      `firestore:"isActive"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (d *menuItemDoc) toMenuItem(id string) *menu.MenuItem {
	return &menu.MenuItem{
		ID:          id,
		Name:        d.Name,
		Ingredients: d.Ingredients,
		Price:       d.Price,
		Category:    menu.Category(d.Category),
		Description: d.Description,
		Badge:       d.Badge,
		Icon:        d.Icon,
		ImageURL:    d.ImageURL,
		Active:      d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// List retrieves all active menu items.
func (r *MenuRepo) List(ctx context.Context) ([]*menu.MenuItem, error) {
	if r.client == nil {
		return nil, fmt.Errorf("firestore menu repo not started")
	}

	it := r.client.Collection(r.collection).
		Where("isActive", "==", true).
		Documents(ctx)
	defer it.Stop()

	return collect(it)
}

// ListByCategory retrieves active menu items in one category.
func (r *MenuRepo) ListByCategory(ctx context.Context, category menu.Category) ([]*menu.MenuItem, error) {
	if r.client == nil {
		return nil, fmt.Errorf("firestore menu repo not started")
	}

	it := r.client.Collection(r.collection).
		Where("isActive", "==", true).
		Where("category", "==", string(category)).
		Documents(ctx)
	defer it.Stop()

	return collect(it)
}

// Get retrieves one menu item by document ID.
func (r *MenuRepo) Get(ctx context.Context, id string) (*menu.MenuItem, error) {
	if r.client == nil {
		return nil, fmt.Errorf("firestore menu repo not started")
	}

	snap, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get menu item %s: %w", id, err)
	}

	var doc menuItemDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("could not decode menu item %s: %w", id, err)
	}
	if !doc.IsActive {
		return nil, fmt.Errorf("menu item %s is not active", id)
	}

	return doc.toMenuItem(snap.Ref.ID), nil
}

func collect(it *firestore.DocumentIterator) ([]*menu.MenuItem, error) {
	var items []*menu.MenuItem
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not iterate menu items: %w", err)
		}

		var doc menuItemDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("could not decode menu item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, doc.toMenuItem(snap.Ref.ID))
	}
	return items, nil
}
