// Package pagination implements relay-style cursor connections over a
// group's messages, ordered newest first.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"groupchat/internal/domain"
)

type cursorPayload struct {
	ID int `json:"id"`
}

// EncodeCursor returns the opaque cursor for the message with the given id.
// The result is base64 of a small JSON document so the ordering key can grow
// (e.g. to timestamp+id) without changing the cursor's outer shape.
func EncodeCursor(id int) string {
	b, err := json.Marshal(cursorPayload{ID: id})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeCursor returns the message id referenced by cursor. Only cursors
// produced by EncodeCursor are accepted; anything else wraps
// domain.ErrInvalidCursor.
func DecodeCursor(cursor string) (int, error) {
	data, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: decode base64: %v", domain.ErrInvalidCursor, err)
	}
	var cp cursorPayload
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, fmt.Errorf("%w: decode cursor JSON: %v", domain.ErrInvalidCursor, err)
	}
	if cp.ID <= 0 {
		return 0, fmt.Errorf("%w: non-positive id %d", domain.ErrInvalidCursor, cp.ID)
	}
	if EncodeCursor(cp.ID) != cursor {
		return 0, fmt.Errorf("%w: non-canonical encoding", domain.ErrInvalidCursor)
	}
	return cp.ID, nil
}
