package query

import (
	"encoding/base64"
	"strings"
)

const (
	cursorPrefix    = "cursor:"
	defaultPageSize = 50
	maxPageSize     = 250
)

// EncodeCursor produces the opaque Relay-style cursor for an id.
func EncodeCursor(id string) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + id))
}

// DecodeCursor reverses EncodeCursor; malformed cursors decode to "".
func DecodeCursor(cursor string) string {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return ""
	}
	decoded, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return ""
	}
	return decoded
}

// PageEdge pairs an item with its cursor.
type PageEdge[T any] struct {
	Node   T      `json:"node"`
	Cursor string `json:"cursor"`
}

// PageInfo is the Relay pagination envelope.
type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor"`
	EndCursor       string `json:"endCursor"`
}

// Page is one paginated slice of a result set.
type Page[T any] struct {
	Edges      []PageEdge[T] `json:"edges"`
	PageInfo   PageInfo      `json:"pageInfo"`
	TotalCount int           `json:"totalCount"`
}

// Paginate slices items Relay-style: first defaults to 50 and caps at
// 250; after is an exclusive cursor into the list. An unknown after
// cursor starts from the beginning.
func Paginate[T any](items []T, first int, after string, idOf func(T) string) Page[T] {
	limit := first
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	start := 0
	if afterID := DecodeCursor(after); afterID != "" {
		for i, item := range items {
			if idOf(item) == afterID {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	page := Page[T]{TotalCount: len(items)}
	for _, item := range items[start:end] {
		page.Edges = append(page.Edges, PageEdge[T]{Node: item, Cursor: EncodeCursor(idOf(item))})
	}
	page.PageInfo = PageInfo{
		HasNextPage:     start+limit < len(items),
		HasPreviousPage: start > 0,
	}
	if len(page.Edges) > 0 {
		page.PageInfo.StartCursor = page.Edges[0].Cursor
		page.PageInfo.EndCursor = page.Edges[len(page.Edges)-1].Cursor
	}
	return page
}
