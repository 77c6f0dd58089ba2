package pagination

import "groupchat/internal/domain"

// ConnectionInput holds the four optional relay arguments. Nil means the
// argument was not supplied.
type ConnectionInput struct {
	First  *int    `json:"first,omitempty"`
	After  *string `json:"after,omitempty"`
	Last   *int    `json:"last,omitempty"`
	Before *string `json:"before,omitempty"`
}

type Edge struct {
	Cursor string         `json:"cursor"`
	Node   domain.Message `json:"node"`
}

type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
}

type Connection struct {
	Edges    []Edge   `json:"edges"`
	PageInfo PageInfo `json:"pageInfo"`
}

func emptyConnection() *Connection {
	return &Connection{Edges: []Edge{}}
}

func newConnection(page []domain.Message, hasNext, hasPrev bool) *Connection {
	edges := make([]Edge, 0, len(page))
	for _, m := range page {
		edges = append(edges, Edge{Cursor: EncodeCursor(m.ID), Node: m})
	}
	conn := &Connection{
		Edges: edges,
		PageInfo: PageInfo{
			HasNextPage:     hasNext,
			HasPreviousPage: hasPrev,
		},
	}
	if len(edges) > 0 {
		conn.PageInfo.StartCursor = edges[0].Cursor
		conn.PageInfo.EndCursor = edges[len(edges)-1].Cursor
	}
	return conn
}

// IntPtr and StringPtr are helpers for building a ConnectionInput literal.
func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
