package permissions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ballotworks/roleboard/internal/shared"
)

const permissionColumns = `id, name, permission_category, resource_type,
	action_type, description, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for the permission catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns permissions matching the optional filters.
func (r *Repository) List(ctx context.Context, req ListPermissionsRequest) ([]Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions`
	var (
		conds []string
		args  []any
	)
	if req.Category != nil {
		args = append(args, string(*req.Category))
		conds = append(conds, "permission_category = $"+strconv.Itoa(len(args)))
	}
	if req.Resource != nil {
		args = append(args, string(*req.Resource))
		conds = append(conds, "resource_type = $"+strconv.Itoa(len(args)))
	}
	if req.Action != nil {
		args = append(args, string(*req.Action))
		conds = append(conds, "action_type = $"+strconv.Itoa(len(args)))
	}
	if req.IsActive != nil {
		args = append(args, *req.IsActive)
		conds = append(conds, "is_active = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY permission_category, name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, perm)
	}
	return list, rows.Err()
}

// Get fetches a permission by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id)
	perm, err := scanPermission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, fmt.Errorf("%w: permission %d", shared.ErrNotFound, id)
	}
	return perm, err
}

// Create inserts a new permission.
func (r *Repository) Create(ctx context.Context, perm Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO permissions (name, permission_category, resource_type, action_type, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+permissionColumns,
		perm.Name, perm.Category, perm.Resource, perm.Action, perm.Description, perm.IsActive)
	created, err := scanPermission(row)
	if isUniqueViolation(err) {
		return Permission{}, fmt.Errorf("%w: permission name %q already exists", shared.ErrConflict, perm.Name)
	}
	return created, err
}

// Update applies the provided column updates and returns the stored permission.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) (Permission, error) {
	if len(updates) == 0 {
		return r.Get(ctx, id)
	}
	sets := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+1)
	for col, val := range updates {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := `UPDATE permissions SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + permissionColumns
	row := r.pool.QueryRow(ctx, query, args...)
	perm, err := scanPermission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, fmt.Errorf("%w: permission %d", shared.ErrNotFound, id)
	}
	if isUniqueViolation(err) {
		return Permission{}, fmt.Errorf("%w: permission name already exists", shared.ErrConflict)
	}
	return perm, err
}

// Delete removes a permission by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: permission %d", shared.ErrNotFound, id)
	}
	return nil
}

func scanPermission(row pgx.Row) (Permission, error) {
	var perm Permission
	err := row.Scan(&perm.ID, &perm.Name, &perm.Category, &perm.Resource,
		&perm.Action, &perm.Description, &perm.IsActive, &perm.CreatedAt, &perm.UpdatedAt)
	return perm, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
