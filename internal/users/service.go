package users

import (
	"context"
	"strings"
)

const searchLimit = 25

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Search(ctx context.Context, query string, limit int) ([]User, error)
}

// Service handles user lookup logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Search finds users for the assignment picker. An empty query matches nobody.
func (s *Service) Search(ctx context.Context, query string) ([]User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []User{}, nil
	}
	return s.repo.Search(ctx, query, searchLimit)
}
