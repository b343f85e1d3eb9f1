// Package pagination computes the compact page-number strip shown under list tables.
package pagination

import "strconv"

// DefaultSiblings is the number of pages shown on each side of the current page.
const DefaultSiblings = 1

// Token is one slot in the page strip: a page number or an ellipsis.
type Token struct {
	Page     int
	Ellipsis bool
}

// String renders the token for display.
func (t Token) String() string {
	if t.Ellipsis {
		return "..."
	}
	return strconv.Itoa(t.Page)
}

var dots = Token{Ellipsis: true}

// ShouldRender reports whether a page strip is worth showing at all.
func ShouldRender(totalPages int) bool {
	return totalPages > 1
}

// Range returns the page tokens for current out of total pages.
//
// The strip always holds the first and last page, the current page, and
// siblings pages on each side of it. Gaps of more than one page collapse
// into an ellipsis. When total fits into the fixed window of
// 2*siblings+5 slots every page is listed.
func Range(current, total, siblings int) []Token {
	if total < 1 {
		total = 1
	}
	if siblings < 0 {
		siblings = 0
	}
	current = min(max(current, 1), total)

	window := siblings*2 + 5
	if total <= window {
		return pages(1, total)
	}

	leftSibling := max(current-siblings, 1)
	rightSibling := min(current+siblings, total)
	showLeftDots := leftSibling > 2
	showRightDots := rightSibling < total-1
	run := 3 + 2*siblings

	switch {
	case !showLeftDots && showRightDots:
		out := pages(1, run)
		return append(out, dots, Token{Page: total})
	case showLeftDots && !showRightDots:
		out := []Token{{Page: 1}, dots}
		return append(out, pages(total-run+1, total)...)
	default:
		out := []Token{{Page: 1}, dots}
		out = append(out, pages(leftSibling, rightSibling)...)
		return append(out, dots, Token{Page: total})
	}
}

func pages(from, to int) []Token {
	out := make([]Token, 0, to-from+3)
	for p := from; p <= to; p++ {
		out = append(out, Token{Page: p})
	}
	return out
}
