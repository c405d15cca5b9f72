package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// SessionExpiresAt returns nil when the user is unknown or has no session.
func (r *UserRepository) SessionExpiresAt(ctx context.Context, userID string) (*time.Time, error) {
	const query = `SELECT session_expires_at FROM users WHERE user_id = $1`

	var expiresAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !expiresAt.Valid {
		return nil, nil
	}
	t := expiresAt.Time.UTC()
	return &t, nil
}

func (r *UserRepository) PermissionList(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT permission FROM user_permissions
		WHERE user_id = $1
		ORDER BY permission
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := []string{}
	for rows.Next() {
		var permission string
		if err := rows.Scan(&permission); err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}
	return permissions, rows.Err()
}

// GroupList returns every distinct permission granted to any user, which is
// the set of groups profile ACLs can refer to.
func (r *UserRepository) GroupList(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT permission FROM user_permissions ORDER BY permission`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *UserRepository) IsDisabled(ctx context.Context, userID string) (bool, error) {
	const query = `SELECT is_disabled FROM users WHERE user_id = $1`

	var disabled bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&disabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return disabled, nil
}

func (r *UserRepository) Disable(ctx context.Context, userID string) error {
	return r.setDisabled(ctx, userID, true)
}

func (r *UserRepository) Enable(ctx context.Context, userID string) error {
	return r.setDisabled(ctx, userID, false)
}

func (r *UserRepository) setDisabled(ctx context.Context, userID string, disabled bool) error {
	const query = `UPDATE users SET is_disabled = $2 WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, disabled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
