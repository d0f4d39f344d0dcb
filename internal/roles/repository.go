package roles

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ballotworks/roleboard/internal/platform/db"
	"github.com/ballotworks/roleboard/internal/shared"
)

const roleColumns = `id, name, role_type, role_category, description,
	requires_subscription, requires_action_trigger, action_trigger,
	is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for the role catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns roles matching the optional type/category/active filters.
func (r *Repository) List(ctx context.Context, req ListRolesRequest) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles`
	var (
		conds []string
		args  []any
	)
	if req.Type != nil {
		args = append(args, string(*req.Type))
		conds = append(conds, "role_type = $"+strconv.Itoa(len(args)))
	}
	if req.Category != nil {
		args = append(args, string(*req.Category))
		conds = append(conds, "role_category = $"+strconv.Itoa(len(args)))
	}
	if req.IsActive != nil {
		args = append(args, *req.IsActive)
		conds = append(conds, "is_active = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, role)
	}
	return list, rows.Err()
}

// Get fetches a role by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, fmt.Errorf("%w: role %d", shared.ErrNotFound, id)
	}
	return role, err
}

// GetByName fetches a role by case-insensitive name.
func (r *Repository) GetByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE LOWER(name) = LOWER($1)`, strings.TrimSpace(name))
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, fmt.Errorf("%w: role %q", shared.ErrNotFound, name)
	}
	return role, err
}

// Create inserts a new role.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, role_type, role_category, description,
			requires_subscription, requires_action_trigger, action_trigger, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+roleColumns,
		role.Name, role.Type, role.Category, role.Description,
		role.RequiresSubscription, role.RequiresActionTrigger, role.ActionTrigger, role.IsActive)
	created, err := scanRole(row)
	if isUniqueViolation(err) {
		return Role{}, fmt.Errorf("%w: role name %q already exists", shared.ErrConflict, role.Name)
	}
	return created, err
}

// Update applies the provided column updates and returns the stored role.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) (Role, error) {
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
	query := `UPDATE roles SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + roleColumns
	row := r.pool.QueryRow(ctx, query, args...)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, fmt.Errorf("%w: role %d", shared.ErrNotFound, id)
	}
	if isUniqueViolation(err) {
		return Role{}, fmt.Errorf("%w: role name already exists", shared.ErrConflict)
	}
	return role, err
}

// Delete removes a role and its permission bindings in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: role %d", shared.ErrNotFound, id)
		}
		return nil
	})
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Type, &role.Category, &role.Description,
		&role.RequiresSubscription, &role.RequiresActionTrigger, &role.ActionTrigger,
		&role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
