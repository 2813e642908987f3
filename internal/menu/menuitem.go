package menu

import (
	"sort"
	"time"
)

// Category tags a menu item for storefront grouping.
type Category string

const (
	CategorySignature Category = "signature"
	CategoryPremium   Category = "premium"
)

// Valid reports whether the category is one the storefront knows about.
func (c Category) Valid() bool {
	return c == CategorySignature || c == CategoryPremium
}

// MenuItem represents one purchasable pizza as published by the menu provider.
// IDs are provider document IDs, kept as strings.
type MenuItem struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Ingredients string    `json:"ingredients" bson:"ingredients"`
	Price       int       `json:"price" bson:"price"` // whole CLP, no minor units
	Category    Category  `json:"category" bson:"category"`
	Description string    `json:"description" bson:"description"`
	Badge       string    `json:"badge" bson:"badge"`
	Icon        string    `json:"icon" bson:"icon"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// GetID returns the menu item ID.
func (m *MenuItem) GetID() string {
	return m.ID
}

// ResourceType returns the resource type for URL generation.
func (m *MenuItem) ResourceType() string {
	return "menu/item"
}

// SortForDisplay orders items the way the storefront renders them: premium
// section first, then signature, names ascending within each section. The
// provider's own ordering is not trusted.
func SortForDisplay(items []*MenuItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category == CategoryPremium
		}
		return items[i].Name < items[j].Name
	})
}
