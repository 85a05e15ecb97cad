package draft

import (
	"fmt"
	"strings"

	"github.com/caterlink/api/internal/catalog"
)

// ParseMenuNotes turns free-form newline-delimited dish text into keyed menu
// items. Each non-blank line is one dish resolved against the catalog.
// Duplicate names (case-insensitive) are never dropped; each repeat after the
// first occurrence adds one advisory, because "same dish, larger serving"
// is a legitimate entry.
func ParseMenuNotes(c *catalog.Catalog, notes string, nowMillis int64) (map[string]MenuItemDraft, []string) {
	items := make(map[string]MenuItemDraft)
	var advisories []string
	seen := make(map[string]bool)

	for i, line := range strings.Split(notes, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}

		dish := c.Resolve(name)
		lower := strings.ToLower(dish.Name)
		if seen[lower] {
			advisories = append(advisories, fmt.Sprintf("%q is already on this session's menu", dish.Name))
		}
		seen[lower] = true

		itemID := dish.Name
		if dish.Category == catalog.FallbackCategory {
			itemID = newCustomID(nowMillis, i)
		}
		key := itemID
		for n := 1; ; n++ {
			if _, taken := items[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s_%d", itemID, n)
		}

		items[key] = MenuItemDraft{
			ItemID:   itemID,
			Name:     dish.Name,
			Category: dish.Category,
			IsVeg:    dish.IsVeg,
			Quantity: 1,
		}
	}
	return items, advisories
}
