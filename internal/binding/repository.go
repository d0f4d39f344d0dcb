// Package binding stores the many-to-many association between roles and
// permissions. Pairs have set semantics: membership is the sole signal that
// a role grants a permission, and no duplicate pairs exist.
package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ballotworks/roleboard/internal/permissions"
	"github.com/ballotworks/roleboard/internal/shared"
)

// Repository provides PostgreSQL backed persistence for role-permission pairs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListForRole returns the current permission set of a role.
func (r *Repository) ListForRole(ctx context.Context, roleID int64) ([]permissions.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.permission_category, p.resource_type,
			p.action_type, p.description, p.is_active, p.created_at, p.updated_at
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.permission_category, p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []permissions.Permission
	for rows.Next() {
		var p permissions.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Resource,
			&p.Action, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Assign adds a pair. Assigning an existing pair is a no-op.
func (r *Repository) Assign(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permissionID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: role %d or permission %d", shared.ErrNotFound, roleID, permissionID)
	}
	return err
}

// Remove deletes a pair if present.
func (r *Repository) Remove(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM role_permissions
		WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

// ListForUser returns the distinct permissions granted through the user's
// active role assignments.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]permissions.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.id, p.name, p.permission_category, p.resource_type,
			p.action_type, p.description, p.is_active, p.created_at, p.updated_at
		FROM role_assignments ra
		JOIN role_permissions rp ON rp.role_id = ra.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ra.user_id = $1
		  AND ra.is_active
		  AND (ra.expires_at IS NULL OR ra.expires_at > NOW())
		ORDER BY p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []permissions.Permission
	for rows.Next() {
		var p permissions.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Resource,
			&p.Action, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
