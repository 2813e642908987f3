package menu

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
)

// Fallback wraps a provider-backed Repo and degrades to the built-in item
// list whenever the provider fails, so a menu read never fails the page.
type Fallback struct {
	primary Repo
	logger  apt.Logger
}

// NewFallback creates the fallback decorator. A nil primary serves the
// built-in list directly (offline mode).
func NewFallback(primary Repo, logger apt.Logger) *Fallback {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Fallback{primary: primary, logger: logger}
}

func (f *Fallback) List(ctx context.Context) ([]*MenuItem, error) {
	if f.primary != nil {
		items, err := f.primary.List(ctx)
		if err == nil {
			SortForDisplay(items)
			return items, nil
		}
		f.logger.Error("menu provider unavailable, serving fallback items", "error", err)
	}
	items := FallbackItems()
	SortForDisplay(items)
	return items, nil
}

func (f *Fallback) ListByCategory(ctx context.Context, category Category) ([]*MenuItem, error) {
	if f.primary != nil {
		items, err := f.primary.ListByCategory(ctx, category)
		if err == nil {
			SortForDisplay(items)
			return items, nil
		}
		f.logger.Error("menu provider unavailable, serving fallback items", "error", err, "category", string(category))
	}
	var items []*MenuItem
	for _, item := range FallbackItems() {
		if item.Category == category {
			items = append(items, item)
		}
	}
	SortForDisplay(items)
	return items, nil
}

func (f *Fallback) Get(ctx context.Context, id string) (*MenuItem, error) {
	if f.primary != nil {
		item, err := f.primary.Get(ctx, id)
		if err == nil {
			return item, nil
		}
		f.logger.Error("menu provider unavailable, checking fallback items", "error", err, "id", id)
	}
	for _, item := range FallbackItems() {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("menu item %s not found", id)
}

// FallbackItems returns the fixed menu served when the provider is
// unreachable. Same dishes the restaurant has carried since opening.
func FallbackItems() []*MenuItem {
	now := time.Now()
	items := []*MenuItem{
		{
			ID:          "fallback-pulmay",
			Name:        "Pulmay Napoletano",
			Ingredients: "Base de ajo y aceite, mariscos de la zona, pesto y rúcula",
			Price:       8500,
			Category:    CategoryPremium,
			Description: "El tesoro del mar chilote se encuentra con la tradición napolitana en una sinfonía de sabores únicos.",
			Badge:       "🌊 Tesoro del Mar",
			Icon:        "Fish",
		},
		{
			ID:          "fallback-fior",
			Name:        "Fior del Sur",
			Ingredients: "Mozzarella di bufala, jamón curado, queso de campo, gotas de pebre artesanal",
			Price:       8500,
			Category:    CategoryPremium,
			Description: "La elegancia italiana abraza los sabores sureños en esta creación que conquista corazones.",
			Badge:       "⭐ Premium",
			Icon:        "Star",
		},
		{
			ID:          "fallback-luma",
			Name:        "Luma y Mar",
			Ingredients: "Base blanca, choritos ahumados, queso de Chonchi, ajo confitado, cilantro fresco",
			Price:       8500,
			Category:    CategoryPremium,
			Description: "Donde el bosque nativo se encuentra con el mar, creando una experiencia gastronómica inolvidable.",
			Badge:       "🌲 Nativa",
			Icon:        "TreePine",
		},
		{
			ID:          "fallback-trapananda",
			Name:        "Trapananda",
			Ingredients: "Cordero desmenuzado, mozzarella, merkén suave, cebolla morada, toque de menta",
			Price:       8000,
			Category:    CategorySignature,
			Description: "Inspirada en las tierras patagónicas, esta pizza lleva el nombre histórico de nuestra región.",
			Badge:       "🏔️ Patagónica",
			Icon:        "Mountain",
		},
		{
			ID:          "fallback-volcanica",
			Name:        "La Volcánica",
			Ingredients: "Salsa de tomate, salame picante, queso de oveja, papas nativas, merkén",
			Price:       8000,
			Category:    CategorySignature,
			Description: "Ardiente como los volcanes del sur, esta pizza despierta todos los sentidos con su intensidad.",
			Badge:       "🌋 Picante",
			Icon:        "Flame",
		},
		{
			ID:          "fallback-chonchina",
			Name:        "La Chonchina",
			Ingredients: "Queso de Chonchi, longaniza ahumada, cebolla caramelizada, mozzarella fior di latte",
			Price:       7500,
			Category:    CategorySignature,
			Description: "Un homenaje a la tradición de Chonchi, donde cada ingrediente cuenta la historia de nuestra tierra.",
			Badge:       "🏘️ Tradicional",
			Icon:        "Leaf",
		},
		{
			ID:          "fallback-italo",
			Name:        "Italo-Chilota",
			Ingredients: "Salsa San Marzano, queso mantecoso, papas michuñe, albahaca fresca, aceite de oliva",
			Price:       7500,
			Category:    CategorySignature,
			Description: "La perfecta fusión entre Italia y Chiloé, donde las papas nativas abrazan la tradición mediterránea.",
			Badge:       "🇮🇹 Fusión",
			Icon:        "Leaf",
		},
		{
			ID:          "fallback-nalca",
			Name:        "La Nalca",
			Ingredients: "Mozzarella, pesto de nalca, queso de campo, tomates cherry, almendras tostadas",
			Price:       7500,
			Category:    CategorySignature,
			Description: "Celebrando la flora nativa chilota con el sabor único de la nalca en una combinación sorprendente.",
			Badge:       "🌿 Silvestre",
			Icon:        "Leaf",
		},
		{
			ID:          "fallback-margarita",
			Name:        "Margarita",
			Ingredients: "Salsa San Marzano, mozzarella, albahaca fresca",
			Price:       6500,
			Category:    CategorySignature,
			Description: "La reina de las pizzas en su versión más pura, perfecta para quienes buscan la tradición auténtica.",
			Badge:       "👑 Clásica",
			Icon:        "Star",
		},
	}
	for _, item := range items {
		item.ImageURL = "/placeholder.svg?height=300&width=400"
		item.Active = true
		item.CreatedAt = now
		item.UpdatedAt = now
	}
	return items
}
