package cart

import (
	"sort"
	"sync"

	"github.com/fuegoaustral/storefront/internal/menu"
)

// Line is one (item, quantity) pairing held by the store.
type Line struct {
	ItemID      string        `json:"id"`
	Name        string        `json:"name"`
	Price       int           `json:"price"` // whole CLP per unit
	Ingredients string        `json:"ingredients"`
	Image       string        `json:"image,omitempty"`
	Category    menu.Category `json:"category"`
	Quantity    int           `json:"quantity"`
}

// Store holds the session's selected items. It is the single source of truth
// for a session's cart; pages mutate it through these operations only.
// Readers get immutable snapshots, never the internal lines.
type Store struct {
	mu    sync.Mutex
	lines map[string]*Line
}

func NewStore() *Store {
	return &Store{lines: make(map[string]*Line)}
}

// Add inserts a new line with quantity 1, or increments the existing line for
// the same item. No two lines for the same item ID coexist.
func (s *Store) Add(item *menu.MenuItem) {
	if item == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if line, ok := s.lines[item.ID]; ok {
		line.Quantity++
		return
	}
	s.lines[item.ID] = &Line{
		ItemID:      item.ID,
		Name:        item.Name,
		Price:       item.Price,
		Ingredients: item.Ingredients,
		Image:       item.ImageURL,
		Category:    item.Category,
		Quantity:    1,
	}
}

// UpdateQuantity sets the quantity for a line. A quantity of zero or below
// removes the line; the store never holds a line with quantity <= 0. Unknown
// IDs are a no-op.
func (s *Store) UpdateQuantity(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[id]
	if !ok {
		return
	}
	if quantity <= 0 {
		delete(s.lines, id)
		return
	}
	line.Quantity = quantity
}

// Remove deletes the line if present; no-op otherwise.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, id)
}

// Clear empties all lines.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make(map[string]*Line)
}

// TotalItems is the sum of quantities across lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the sum of price x quantity across lines, in whole CLP.
func (s *Store) TotalPrice() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, line := range s.lines {
		total += line.Price * line.Quantity
	}
	return total
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Lines returns a value-copy snapshot sorted by item name, safe to hand to
// the presentation layer.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
