package results

import (
	"regexp"
	"strings"
)

// Direction is a requested sort order.
type Direction int

const (
	// Unspecified toggles: descending when the column is already sorted
	// ascending, ascending otherwise.
	Unspecified Direction = iota
	// Ascending sorts A to Z.
	Ascending
	// Descending sorts Z to A.
	Descending
	// Default removes the sort and restores the query's own order.
	Default
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	case Default:
		return "DEFAULT"
	default:
		return "UNSPECIFIED"
	}
}

// ParseDirection reads asc, desc, default or an empty string (toggle).
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Unspecified, true
	case "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	case "default", "none", "reset":
		return Default, true
	}
	return Unspecified, false
}

const trailingJunk = " \t\r\n;"

var (
	orderByRe = regexp.MustCompile(`^(?i)order\s+by\b`)
	// LIMIT/OFFSET only count as clauses when a value follows, so a
	// column named "offset" is left alone.
	limitRe = regexp.MustCompile(`^(?i)(?:(?:limit|offset)\s+[0-9$?:(]|fetch\s+(?:first|next)\b)`)
)

// clauses holds the top-level positions found in a query.
type clauses struct {
	orderBy       int  // last top-level ORDER BY, or -1
	limit         int  // first top-level LIMIT/OFFSET/FETCH after orderBy, or -1
	endsInComment bool // query ends inside a -- comment
}

// scan walks the query once, skipping quoted text and comments, and
// records ORDER BY and LIMIT positions at parenthesis depth zero.
func scan(q string) clauses {
	c := clauses{orderBy: -1, limit: -1}
	depth := 0

	for i := 0; i < len(q); i++ {
		ch := q[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			end := strings.IndexByte(q[i+1:], ch)
			if end < 0 {
				return c
			}
			i += end + 1
			continue
		case ch == '-' && strings.HasPrefix(q[i:], "--"):
			end := strings.IndexByte(q[i:], '\n')
			if end < 0 {
				c.endsInComment = true
				return c
			}
			i += end
			continue
		case ch == '/' && strings.HasPrefix(q[i:], "/*"):
			end := strings.Index(q[i+2:], "*/")
			if end < 0 {
				return c
			}
			i += end + 3
			continue
		case ch == '(':
			depth++
			continue
		case ch == ')':
			depth--
			continue
		}

		if depth != 0 || (i > 0 && isIdentChar(q[i-1])) {
			continue
		}
		rest := q[i:]
		switch {
		case orderByRe.MatchString(rest):
			c.orderBy = i
			c.limit = -1
		case c.limit < 0 && limitRe.MatchString(rest):
			c.limit = i
		}
	}
	return c
}

func isIdentChar(b byte) bool {
	return b == '_' || b == '$' || b == '.' ||
		('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// split returns the query without its trailing ORDER BY, and the trailing
// LIMIT/OFFSET/FETCH clause that must follow any new ORDER BY.
func split(query string) (head, tail string, sep string) {
	q := strings.TrimRight(query, trailingJunk)
	c := scan(q)

	sep = " "
	if c.endsInComment {
		sep = "\n"
	}

	head = q
	if c.limit >= 0 {
		head, tail = q[:c.limit], strings.TrimSpace(q[c.limit:])
	}
	if c.orderBy >= 0 && c.orderBy < len(head) {
		head = head[:c.orderBy]
	}
	return strings.TrimRight(head, " \t\r\n"), tail, sep
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// RewriteOrderBy replaces the query's top-level ORDER BY with one on
// column. A trailing LIMIT/OFFSET/FETCH clause is kept after the new
// ORDER BY. dir must be Ascending or Descending; anything else sorts
// ascending.
func RewriteOrderBy(query, column string, dir Direction) string {
	head, tail, sep := split(query)
	keyword := "ASC"
	if dir == Descending {
		keyword = "DESC"
	}

	out := head + sep + "ORDER BY " + QuoteIdent(column) + " " + keyword
	if tail != "" {
		out += " " + tail
	}
	return out
}

// StripOrderBy removes the query's top-level ORDER BY, keeping any
// trailing LIMIT/OFFSET/FETCH clause.
func StripOrderBy(query string) string {
	head, tail, sep := split(query)
	if tail == "" {
		return head
	}
	return head + sep + tail
}
