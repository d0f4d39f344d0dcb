package assignments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ballotworks/roleboard/internal/shared"
)

const assignmentColumns = `id, user_id, role_id, role_name, assignment_type,
	assigned_at, assigned_by, is_active, deactivated_at, deactivated_by,
	deactivation_reason, expires_at, assignment_source, metadata`

// Repository provides PostgreSQL backed persistence for role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns assignments matching the filters, oldest first so grouping
// preserves a stable first-seen user order.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM role_assignments`
	var (
		conds []string
		args  []any
	)
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		conds = append(conds, "user_id = $"+strconv.Itoa(len(args)))
	}
	if filters.RoleID != nil {
		args = append(args, *filters.RoleID)
		conds = append(conds, "role_id = $"+strconv.Itoa(len(args)))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		conds = append(conds, "is_active = $"+strconv.Itoa(len(args)))
	}
	if filters.Type != nil {
		args = append(args, string(*filters.Type))
		conds = append(conds, "assignment_type = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY assigned_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// HasActive reports whether an active assignment exists for the pair.
func (r *Repository) HasActive(ctx context.Context, userID int64, roleName string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_assignments
			WHERE user_id = $1 AND LOWER(role_name) = LOWER($2) AND is_active
		)`, userID, roleName).Scan(&exists)
	return exists, err
}

// Create inserts an assignment.
func (r *Repository) Create(ctx context.Context, a Assignment) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO role_assignments (id, user_id, role_id, role_name,
			assignment_type, assigned_at, assigned_by, is_active,
			expires_at, assignment_source, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10)
		RETURNING `+assignmentColumns,
		a.ID, a.UserID, a.RoleID, a.RoleName, a.Type, a.AssignedAt,
		a.AssignedBy, a.ExpiresAt, a.Source, a.Metadata)
	created, err := scanAssignment(row)
	if isUniqueViolation(err) {
		return Assignment{}, fmt.Errorf("%w: user %d already holds an active %s assignment", shared.ErrConflict, a.UserID, a.RoleName)
	}
	return created, err
}

// Deactivate soft-removes the active assignment for the pair. The record is
// retained; only the activity fields are stamped.
func (r *Repository) Deactivate(ctx context.Context, userID int64, roleName string, deactivatedBy *string, reason string, at time.Time) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE role_assignments
		SET is_active = FALSE, deactivated_at = $4, deactivated_by = $5, deactivation_reason = $6
		WHERE user_id = $1 AND LOWER(role_name) = LOWER($2) AND is_active = $3
		RETURNING `+assignmentColumns,
		userID, roleName, true, at, deactivatedBy, reason)
	updated, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, fmt.Errorf("%w: no active %s assignment for user %d", shared.ErrNotFound, roleName, userID)
	}
	return updated, err
}

// Delete hard-removes every assignment record for the pair. Irreversible.
func (r *Repository) Delete(ctx context.Context, userID int64, roleName string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM role_assignments
		WHERE user_id = $1 AND LOWER(role_name) = LOWER($2)`, userID, roleName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no %s assignment for user %d", shared.ErrNotFound, roleName, userID)
	}
	return nil
}

// History returns a user's assignments newest-first, ordered by the
// deactivation time when present and the assignment time otherwise.
func (r *Repository) History(ctx context.Context, userID int64, filters HistoryFilters) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM role_assignments WHERE user_id = $1`
	args := []any{userID}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		query += " AND is_active = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY COALESCE(deactivated_at, assigned_at) DESC, id"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ExpireDue flips is_active on assignments whose expiry has passed and
// returns how many were flipped. Readers never depend on this; it only
// converges stored state with what they already observe.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE role_assignments
		SET is_active = FALSE, deactivated_at = $1, deactivation_reason = 'expired'
		WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.UserID, &a.RoleID, &a.RoleName, &a.Type,
		&a.AssignedAt, &a.AssignedBy, &a.IsActive, &a.DeactivatedAt,
		&a.DeactivatedBy, &a.DeactivationReason, &a.ExpiresAt, &a.Source, &a.Metadata)
	return a, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
