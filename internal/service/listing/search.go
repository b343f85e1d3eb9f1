package listing

import "time"

// Searchable receives committed search text.
type Searchable interface {
	SetSearch(text string)
}

// SearchBox is the debounced search input of one list screen.
type SearchBox struct {
	*Debouncer
}

// NewSearchBox wires a debouncer to target's SetSearch.
func NewSearchBox(target Searchable, clock Clock, delay time.Duration) *SearchBox {
	return &SearchBox{Debouncer: NewDebouncer(clock, delay, target.SetSearch)}
}
