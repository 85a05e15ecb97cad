// Package catalog resolves dish names against a known menu. Resolution is
// two-tier: a name matching the catalog (case-insensitive) inherits its
// category and veg flag, anything else falls back to a freeform "Custom"
// entry so users are never blocked on structured input.
package catalog

import "strings"

// Dish is one known menu entry.
type Dish struct {
	Name     string
	Category string
	IsVeg    bool
}

// FallbackCategory is assigned to dishes not present in any catalog.
const FallbackCategory = "Custom"

// Catalog is an ordered list of categories, each with its dishes. Category
// order is presentation order; lookup walks categories first to last and the
// first name match wins.
type Catalog struct {
	categories []Category
}

// Category groups dishes under a display label.
type Category struct {
	Name   string
	Dishes []Dish
}

// defaultCatalog is the built-in dish list used when a business has not
// configured its own menu.
var defaultCatalog = New([]Category{
	{Name: "Starters", Dishes: []Dish{
		{Name: "Paneer Tikka", Category: "Starters", IsVeg: true},
		{Name: "Veg Spring Rolls", Category: "Starters", IsVeg: true},
		{Name: "Hara Bhara Kebab", Category: "Starters", IsVeg: true},
		{Name: "Chicken Tikka", Category: "Starters", IsVeg: false},
		{Name: "Fish Amritsari", Category: "Starters", IsVeg: false},
	}},
	{Name: "Main Course", Dishes: []Dish{
		{Name: "Paneer Butter Masala", Category: "Main Course", IsVeg: true},
		{Name: "Dal Makhani", Category: "Main Course", IsVeg: true},
		{Name: "Veg Biryani", Category: "Main Course", IsVeg: true},
		{Name: "Chole Masala", Category: "Main Course", IsVeg: true},
		{Name: "Butter Chicken", Category: "Main Course", IsVeg: false},
		{Name: "Mutton Rogan Josh", Category: "Main Course", IsVeg: false},
		{Name: "Chicken Biryani", Category: "Main Course", IsVeg: false},
	}},
	{Name: "Breads", Dishes: []Dish{
		{Name: "Butter Naan", Category: "Breads", IsVeg: true},
		{Name: "Tandoori Roti", Category: "Breads", IsVeg: true},
		{Name: "Garlic Naan", Category: "Breads", IsVeg: true},
		{Name: "Laccha Paratha", Category: "Breads", IsVeg: true},
	}},
	{Name: "Rice", Dishes: []Dish{
		{Name: "Jeera Rice", Category: "Rice", IsVeg: true},
		{Name: "Steamed Rice", Category: "Rice", IsVeg: true},
		{Name: "Veg Pulao", Category: "Rice", IsVeg: true},
	}},
	{Name: "Desserts", Dishes: []Dish{
		{Name: "Gulab Jamun", Category: "Desserts", IsVeg: true},
		{Name: "Rasmalai", Category: "Desserts", IsVeg: true},
		{Name: "Gajar Halwa", Category: "Desserts", IsVeg: true},
	}},
	{Name: "Beverages", Dishes: []Dish{
		{Name: "Masala Chaas", Category: "Beverages", IsVeg: true},
		{Name: "Sweet Lassi", Category: "Beverages", IsVeg: true},
		{Name: "Fresh Lime Soda", Category: "Beverages", IsVeg: true},
	}},
})

// New builds a catalog from categories, preserving their order.
func New(categories []Category) *Catalog {
	return &Catalog{categories: categories}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Categories returns the catalog's categories in presentation order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Empty reports whether the catalog has no categories.
func (c *Catalog) Empty() bool {
	return len(c.categories) == 0
}

// Resolve looks up a dish by name across all categories, case-insensitively.
// The first match wins. Unknown names resolve to a Custom veg dish carrying
// the name as typed.
func (c *Catalog) Resolve(name string) Dish {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, cat := range c.categories {
		for _, d := range cat.Dishes {
			if strings.ToLower(d.Name) == want {
				return d
			}
		}
	}
	return Dish{Name: strings.TrimSpace(name), Category: FallbackCategory, IsVeg: true}
}

// Known reports whether the name matches a catalog entry case-insensitively.
func (c *Catalog) Known(name string) bool {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, cat := range c.categories {
		for _, d := range cat.Dishes {
			if strings.ToLower(d.Name) == want {
				return true
			}
		}
	}
	return false
}

// FilterVeg returns a copy of the catalog with non-veg dishes removed.
// Categories left with no dishes are dropped.
func (c *Catalog) FilterVeg() *Catalog {
	var out []Category
	for _, cat := range c.categories {
		var dishes []Dish
		for _, d := range cat.Dishes {
			if d.IsVeg {
				dishes = append(dishes, d)
			}
		}
		if len(dishes) > 0 {
			out = append(out, Category{Name: cat.Name, Dishes: dishes})
		}
	}
	return New(out)
}
