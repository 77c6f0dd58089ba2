package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"groupchat/internal/domain"
)

type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) SaveGroup(ctx context.Context, group *domain.Group) error {
	query := `
		INSERT INTO groups (name, created_at)
		VALUES ($1, $2)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		group.Name,
		group.CreatedAt,
	).Scan(&group.ID)
}

func (r *GroupRepository) FindGroupByID(ctx context.Context, id int) (*domain.Group, error) {
	query := `
		SELECT id, name, created_at
		FROM groups
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var group domain.Group
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	return &group, nil
}

func (r *GroupRepository) GroupExists(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *GroupRepository) UpdateGroup(ctx context.Context, group *domain.Group) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET name = $2 WHERE id = $1`, group.ID, group.Name)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Sprintf("group %d", group.ID))
}

// DeleteGroup removes the group; memberships and messages go with it through
// ON DELETE CASCADE.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Sprintf("group %d", id))
}

func (r *GroupRepository) AddMember(ctx context.Context, member *domain.GroupMember) error {
	query := `
		INSERT INTO group_users (group_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		member.GroupID,
		member.UserID,
		member.JoinedAt,
	)
	return err
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_users WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Sprintf("member %d of group %d", userID, groupID))
}

func (r *GroupRepository) GetGroupMembers(ctx context.Context, groupID int) ([]domain.GroupMember, error) {
	query := `
		SELECT group_id, user_id, joined_at
		FROM group_users
		WHERE group_id = $1
		ORDER BY joined_at, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.GroupMember
	for rows.Next() {
		var member domain.GroupMember
		err := rows.Scan(
			&member.GroupID,
			&member.UserID,
			&member.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

func (r *GroupRepository) GetUserGroups(ctx context.Context, userID int) ([]domain.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_at
		FROM groups g
		JOIN group_users gu ON g.id = gu.group_id
		WHERE gu.user_id = $1
		ORDER BY g.name, g.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var group domain.Group
		err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
