package domain

import "time"

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Message ids are assigned by the store and strictly increase within a group.
type Message struct {
	ID        int       `json:"id"`
	GroupID   int       `json:"group_id"`
	UserID    int       `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Group struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupMember struct {
	GroupID  int       `json:"group_id"`
	UserID   int       `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// MessageQuery selects a window of a group's messages. Zero values mean no
// bound: OlderThan keeps ids strictly below it, NewerThan strictly above it.
// Results are ordered by id descending unless Ascending is set.
type MessageQuery struct {
	GroupID   int
	OlderThan int
	NewerThan int
	Limit     int
	Ascending bool
}
