package domain

import (
	"strconv"

	dErrors "profast/pkg/domain-errors"
)

// MaxPageLimit caps a single page of any list operation.
const MaxPageLimit = 500

// Page is an offset window over a sorted result. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads optional limit/offset query values.
func ParsePage(limit, offset string) (Page, error) {
	var p Page
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return Page{}, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
		}
		if n > MaxPageLimit {
			n = MaxPageLimit
		}
		p.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return Page{}, dErrors.New(dErrors.CodeValidation, "offset must be a non-negative integer")
		}
		p.Offset = n
	}
	return p, nil
}

// Window applies the page to an already sorted slice.
func Window[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
