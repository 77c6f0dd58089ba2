package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"groupchat/internal/domain"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) SaveMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (
			group_id, user_id, text, created_at
		) VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		msg.GroupID,
		msg.UserID,
		msg.Text,
		msg.CreatedAt,
	).Scan(&msg.ID)
}

// FindMessagesByGroup turns q into a WHERE / ORDER BY / LIMIT over the
// messages table.
func (r *MessageRepository) FindMessagesByGroup(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	query, args := buildGroupMessagesQuery(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func buildGroupMessagesQuery(q domain.MessageQuery) (string, []any) {
	var sb strings.Builder
	args := []any{q.GroupID}

	sb.WriteString("SELECT id, group_id, user_id, text, created_at FROM messages WHERE group_id = $1")
	if q.OlderThan > 0 {
		args = append(args, q.OlderThan)
		fmt.Fprintf(&sb, " AND id < $%d", len(args))
	}
	if q.NewerThan > 0 {
		args = append(args, q.NewerThan)
		fmt.Fprintf(&sb, " AND id > $%d", len(args))
	}
	if q.Ascending {
		sb.WriteString(" ORDER BY id ASC")
	} else {
		sb.WriteString(" ORDER BY id DESC")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args
}

func (r *MessageRepository) MessageInGroup(ctx context.Context, groupID, messageID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM messages WHERE group_id = $1 AND id = $2)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, groupID, messageID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *MessageRepository) FindMessagesByUser(ctx context.Context, userID int) ([]domain.Message, error) {
	query := `
		SELECT id, group_id, user_id, text, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(
			&msg.ID,
			&msg.GroupID,
			&msg.UserID,
			&msg.Text,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
