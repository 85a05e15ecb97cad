package catalog

import (
	"github.com/caterlink/api/internal/database"
	"github.com/caterlink/api/internal/enum"
)

// ForBusiness builds the dish-picker catalog for an order targeting the given
// business. A business with configured menu items overrides the default
// catalog; zero configured items falls back to the default. A veg food
// preference hides non-veg dishes; other preferences show everything.
func ForBusiness(items []database.BusinessMenuItem, foodPreference string) *Catalog {
	c := fromMenuItems(items)
	if c.Empty() {
		c = Default()
	}
	if foodPreference == enum.FoodPreferenceVeg {
		return c.FilterVeg()
	}
	return c
}

// fromMenuItems groups a business's configured menu rows into categories,
// keeping the first-seen order of category labels.
func fromMenuItems(items []database.BusinessMenuItem) *Catalog {
	var order []string
	byCategory := make(map[string][]Dish)
	for _, it := range items {
		if _, seen := byCategory[it.Category]; !seen {
			order = append(order, it.Category)
		}
		byCategory[it.Category] = append(byCategory[it.Category], Dish{
			Name:     it.Name,
			Category: it.Category,
			IsVeg:    it.IsVeg,
		})
	}

	categories := make([]Category, 0, len(order))
	for _, name := range order {
		categories = append(categories, Category{Name: name, Dishes: byCategory[name]})
	}
	return New(categories)
}
