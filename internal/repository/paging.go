package repository

import "strings"

const (
	// DefaultLimit matches the page size of the public listing endpoints.
	DefaultLimit = 5
	// MaxLimit caps client supplied page sizes.
	MaxLimit = 100
)

// Page is a 0-based page window.
type Page struct {
	Number int // 0-based page index
	Limit  int
}

// Normalize clamps the page into a valid window.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int { return p.Number * p.Limit }

// Sort keys accepted by show listings.
const (
	SortByName     = "name"
	SortByShowTime = "showTime"
)

// SortOrder describes an ORDER BY over shows.  Field must be one of the
// SortBy constants; anything else falls back to show time.
type SortOrder struct {
	Field string
	Desc  bool
}

// showOrderClause renders the ORDER BY for a shows table aliased as alias.
// The id tiebreak keeps paging stable.
func showOrderClause(alias string, o SortOrder) string {
	col := "show_time"
	if o.Field == SortByName {
		col = "name"
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	var b strings.Builder
	b.WriteString(alias + "." + col + " " + dir)
	b.WriteString(", " + alias + ".id " + dir)
	return b.String()
}
