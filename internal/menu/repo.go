package menu

import "context"

// Repo defines the read-only contract the storefront has with the menu
// provider. Adapters return active items only.
type Repo interface {
	List(ctx context.Context) ([]*MenuItem, error)
	ListByCategory(ctx context.Context, category Category) ([]*MenuItem, error)
	Get(ctx context.Context, id string) (*MenuItem, error)
}
