package classifier

import (
	"sort"

	"order-lookup/internal/models"

	"github.com/shopspring/decimal"
)

// Selection is a set of order ids picked for a batch action.
// Only ids that are visible in the current view ever count.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Has reports whether id is selected
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids, visible or not
func (s *Selection) Len() int {
	return len(s.ids)
}

// Toggle flips the selection state of id
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// AllSelected reports whether every visible order is selected and nothing else is
func (s *Selection) AllSelected(visible []models.Order) bool {
	if len(visible) == 0 || len(visible) != len(s.ids) {
		return false
	}
	for i := range visible {
		if !s.Has(visible[i].ID) {
			return false
		}
	}
	return true
}

// ToggleAll selects exactly the visible orders, or clears the selection when they
// already are exactly what is selected.
func (s *Selection) ToggleAll(visible []models.Order) {
	if s.AllSelected(visible) {
		s.Clear()
		return
	}
	s.ids = make(map[string]struct{}, len(visible))
	for i := range visible {
		s.ids[visible[i].ID] = struct{}{}
	}
}

// IDs returns the selected ids in visible order first, followed by hidden ones sorted.
func (s *Selection) IDs(visible []models.Order) []string {
	ids := make([]string, 0, len(s.ids))
	seen := make(map[string]struct{}, len(s.ids))
	for i := range visible {
		id := visible[i].ID
		if s.Has(id) {
			ids = append(ids, id)
			seen[id] = struct{}{}
		}
	}
	hidden := make([]string, 0, len(s.ids)-len(seen))
	for id := range s.ids {
		if _, ok := seen[id]; !ok {
			hidden = append(hidden, id)
		}
	}
	sort.Strings(hidden)
	return append(ids, hidden...)
}

// Selected returns the visible orders that are selected, in visible order
func (s *Selection) Selected(visible []models.Order) []models.Order {
	out := make([]models.Order, 0, len(s.ids))
	for i := range visible {
		if s.Has(visible[i].ID) {
			out = append(out, visible[i])
		}
	}
	return out
}

// AmountDue sums what the selected visible orders owe under tab.
// Tabs without a batch action always owe zero.
func (s *Selection) AmountDue(visible []models.Order, tab models.ViewTab) decimal.Decimal {
	total := decimal.Zero
	if !BatchActionAvailable(tab) {
		return total
	}
	for _, o := range s.Selected(visible) {
		total = total.Add(DisplayAmount(&o, tab))
	}
	return total
}
