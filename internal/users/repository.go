package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Search returns users whose username or email contains the query.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, email, COALESCE(phone, '')
		FROM users
		WHERE username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Phone); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
