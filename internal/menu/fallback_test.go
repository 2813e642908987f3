package menu

import (
	"context"
	"fmt"
	"testing"
)

// failingRepo simulates an unreachable provider.
type failingRepo struct{}

func (failingRepo) List(ctx context.Context) ([]*MenuItem, error) {
	return nil, fmt.Errorf("provider unreachable")
}

func (failingRepo) ListByCategory(ctx context.Context, category Category) ([]*MenuItem, error) {
	return nil, fmt.Errorf("provider unreachable")
}

func (failingRepo) Get(ctx context.Context, id string) (*MenuItem, error) {
	return nil, fmt.Errorf("provider unreachable")
}

// staticRepo serves a fixed slice.
type staticRepo struct {
	items []*MenuItem
}

func (s staticRepo) List(ctx context.Context) ([]*MenuItem, error) {
	return s.items, nil
}

func (s staticRepo) ListByCategory(ctx context.Context, category Category) ([]*MenuItem, error) {
	var out []*MenuItem
	for _, item := range s.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s staticRepo) Get(ctx context.Context, id string) (*MenuItem, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func TestFallbackListServesBuiltinOnProviderError(t *testing.T) {
	f := NewFallback(failingRepo{}, nil)

	items, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v, want nil", err)
	}
	if len(items) != 9 {
		t.Fatalf("List() returned %d items, want 9 fallback items", len(items))
	}
}

func TestFallbackListUsesPrimaryWhenHealthy(t *testing.T) {
	primary := staticRepo{items: []*MenuItem{
		{ID: "a", Name: "Alpha", Category: CategorySignature, Active: true},
	}}
	f := NewFallback(primary, nil)

	items, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("List() = %v, want the primary's single item", items)
	}
}

func TestFallbackGetFindsBuiltinItem(t *testing.T) {
	f := NewFallback(failingRepo{}, nil)

	item, err := f.Get(context.Background(), "fallback-margarita")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Name != "Margarita" {
		t.Errorf("Get() Name = %q, want Margarita", item.Name)
	}
	if item.Price != 6500 {
		t.Errorf("Get() Price = %d, want 6500", item.Price)
	}
}

func TestFallbackGetUnknownID(t *testing.T) {
	f := NewFallback(failingRepo{}, nil)

	if _, err := f.Get(context.Background(), "no-such-pizza"); err == nil {
		t.Error("Get() with unknown id should return an error")
	}
}

func TestFallbackListByCategoryFiltersBuiltin(t *testing.T) {
	f := NewFallback(nil, nil)

	premium, err := f.ListByCategory(context.Background(), CategoryPremium)
	if err != nil {
		t.Fatalf("ListByCategory() error = %v", err)
	}
	if len(premium) != 3 {
		t.Fatalf("premium items = %d, want 3", len(premium))
	}
	for _, item := range premium {
		if item.Category != CategoryPremium {
			t.Errorf("item %s category = %s, want premium", item.ID, item.Category)
		}
	}
}

func TestSortForDisplayPremiumFirstThenName(t *testing.T) {
	items := []*MenuItem{
		{ID: "1", Name: "Zeta", Category: CategorySignature},
		{ID: "2", Name: "Beta", Category: CategoryPremium},
		{ID: "3", Name: "Alfa", Category: CategorySignature},
		{ID: "4", Name: "Alfa Premium", Category: CategoryPremium},
	}

	SortForDisplay(items)

	wantOrder := []string{"4", "2", "3", "1"}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Fatalf("position %d = %s, want %s (got order %v)", i, items[i].ID, want, items)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		want     bool
	}{
		{name: "signature", category: CategorySignature, want: true},
		{name: "premium", category: CategoryPremium, want: true},
		{name: "empty", category: Category(""), want: false},
		{name: "unknown", category: Category("dessert"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.category.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
