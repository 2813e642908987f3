package cart

import (
	"testing"

	"github.com/fuegoaustral/storefront/internal/menu"
)

func margarita() *menu.MenuItem {
	return &menu.MenuItem{
		ID:          "margarita",
		Name:        "Margarita",
		Ingredients: "Salsa San Marzano, mozzarella, albahaca fresca",
		Price:       6500,
		Category:    menu.CategorySignature,
		Active:      true,
	}
}

func volcanica() *menu.MenuItem {
	return &menu.MenuItem{
		ID:       "volcanica",
		Name:     "La Volcánica",
		Price:    8000,
		Category: menu.CategorySignature,
		Active:   true,
	}
}

func TestAddIncrementsDoesNotDuplicate(t *testing.T) {
	s := NewStore()

	s.Add(margarita())
	s.Add(margarita())

	lines := s.Lines()
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1 line after adding same item twice", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", lines[0].Quantity)
	}
}

func TestUpdateQuantitySets(t *testing.T) {
	s := NewStore()
	s.Add(margarita())

	s.UpdateQuantity("margarita", 5)

	if got := s.TotalItems(); got != 5 {
		t.Errorf("TotalItems() = %d, want 5", got)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "zero", quantity: 0},
		{name: "negative", quantity: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Add(margarita())

			s.UpdateQuantity("margarita", tt.quantity)

			if !s.Empty() {
				t.Error("cart should be empty after quantity <= 0 update")
			}
		})
	}
}

func TestUpdateQuantityIdempotentRemoval(t *testing.T) {
	s := NewStore()
	s.Add(margarita())

	s.UpdateQuantity("margarita", 0)
	s.UpdateQuantity("margarita", 0)

	if !s.Empty() {
		t.Error("repeated removal should leave the cart without the line")
	}
}

func TestUpdateQuantityUnknownIDNoOp(t *testing.T) {
	s := NewStore()
	s.Add(margarita())

	s.UpdateQuantity("no-such-item", 4)

	if got := s.TotalItems(); got != 1 {
		t.Errorf("TotalItems() = %d, want 1 (unknown id must be a no-op)", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Add(margarita())

	s.Remove("margarita")
	s.Remove("margarita")

	if !s.Empty() {
		t.Error("cart should be empty after removal")
	}
}

func TestTotals(t *testing.T) {
	s := NewStore()
	s.Add(margarita())
	s.Add(margarita())
	s.Add(volcanica())
	s.UpdateQuantity("volcanica", 3)

	if got := s.TotalItems(); got != 5 {
		t.Errorf("TotalItems() = %d, want 5", got)
	}
	wantPrice := 2*6500 + 3*8000
	if got := s.TotalPrice(); got != wantPrice {
		t.Errorf("TotalPrice() = %d, want %d", got, wantPrice)
	}
}

func TestTotalsEmptyCart(t *testing.T) {
	s := NewStore()

	if got := s.TotalItems(); got != 0 {
		t.Errorf("TotalItems() = %d, want 0", got)
	}
	if got := s.TotalPrice(); got != 0 {
		t.Errorf("TotalPrice() = %d, want 0", got)
	}
}

func TestClearEmptiesAllLines(t *testing.T) {
	s := NewStore()
	s.Add(margarita())
	s.Add(volcanica())

	s.Clear()

	if !s.Empty() {
		t.Error("Clear() should empty the cart")
	}
	if got := s.TotalPrice(); got != 0 {
		t.Errorf("TotalPrice() after Clear() = %d, want 0", got)
	}
}

func TestLinesSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	s.Add(margarita())

	lines := s.Lines()
	lines[0].Quantity = 99

	if got := s.TotalItems(); got != 1 {
		t.Errorf("mutating a snapshot changed the store: TotalItems() = %d, want 1", got)
	}
}

func TestLinesSortedByName(t *testing.T) {
	s := NewStore()
	s.Add(volcanica()) // "La Volcánica"
	s.Add(margarita()) // "Margarita"

	lines := s.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].Name != "La Volcánica" || lines[1].Name != "Margarita" {
		t.Errorf("lines out of order: %q, %q", lines[0].Name, lines[1].Name)
	}
}
