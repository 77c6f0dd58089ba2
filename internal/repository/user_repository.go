package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"groupchat/internal/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Save registers the user, or refreshes the email of an existing username.
// user.ID and user.CreatedAt are filled from the stored row.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET email = EXCLUDED.email
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.CreatedAt,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), fmt.Sprintf("user %d", id))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		WHERE username = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username), fmt.Sprintf("user %q", username))
}

func (r *UserRepository) scanOne(row *sql.Row, what string) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		ORDER BY username
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
