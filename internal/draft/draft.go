// Package draft holds the in-memory state a customer builds up while
// composing a catering order: the per-session dish selections, the day and
// session editing rules, and the flow-scoped context carried across screens
// until submission.
package draft

import (
	"fmt"
	"time"

	"github.com/caterlink/api/internal/catalog"
)

// MenuItemDraft is one selected dish within a session.
type MenuItemDraft struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	IsVeg    bool   `json:"is_veg"`
	Quantity int32  `json:"quantity"` // always 1; no quantity editing surface exists
}

// SessionDraft is one plannable meal occurrence within the event.
type SessionDraft struct {
	SessionName    string                   `json:"session_name"`
	Date           string                   `json:"date"` // DD/MM/YYYY
	Time           string                   `json:"time"`
	NumberOfPeople int32                    `json:"number_of_people"`
	ServingType    string                   `json:"serving_type"`
	MenuItems      map[string]MenuItemDraft `json:"menu_items"`
}

// NewSessionDraft returns an empty session shape.
func NewSessionDraft() SessionDraft {
	return SessionDraft{MenuItems: make(map[string]MenuItemDraft)}
}

// AddItemByName resolves the dish against the given catalog and inserts it
// under a fresh key. Duplicate names are allowed; the caller decides whether
// to surface an advisory. Returns the new entry's key.
func (s *SessionDraft) AddItemByName(c *catalog.Catalog, name string) string {
	if s.MenuItems == nil {
		s.MenuItems = make(map[string]MenuItemDraft)
	}
	dish := c.Resolve(name)

	itemID := dish.Name
	if dish.Category == catalog.FallbackCategory {
		itemID = newCustomID(time.Now().UnixMilli(), len(s.MenuItems))
	}
	key := itemID
	for n := 1; ; n++ {
		if _, taken := s.MenuItems[key]; !taken {
			break
		}
		key = fmt.Sprintf("%s_%d", itemID, n)
	}

	s.MenuItems[key] = MenuItemDraft{
		ItemID:   itemID,
		Name:     dish.Name,
		Category: dish.Category,
		IsVeg:    dish.IsVeg,
		Quantity: 1,
	}
	return key
}

// RemoveItem deletes the entry under key. Absent keys are a no-op.
func (s *SessionDraft) RemoveItem(key string) {
	delete(s.MenuItems, key)
}

func newCustomID(millis int64, index int) string {
	return fmt.Sprintf("custom_%d_%d", millis, index)
}
