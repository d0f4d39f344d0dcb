package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryUserRepo struct {
	users []User
	calls int
}

func (r *memoryUserRepo) Search(ctx context.Context, query string, limit int) ([]User, error) {
	r.calls++
	var matched []User
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(u.Email), strings.ToLower(query)) {
			matched = append(matched, u)
		}
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func TestSearchEmptyQuerySkipsRepository(t *testing.T) {
	repo := &memoryUserRepo{users: []User{{ID: 1, Username: "sam"}}}
	svc := NewService(repo)

	list, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, list)
	require.Zero(t, repo.calls, "an empty query never touches storage")
}

func TestSearchMatchesUsernameAndEmail(t *testing.T) {
	repo := &memoryUserRepo{users: []User{
		{ID: 1, Username: "sam", Email: "sam@example.com"},
		{ID: 2, Username: "alex", Email: "alex@example.com"},
	}}
	svc := NewService(repo)

	list, err := svc.Search(context.Background(), "sam")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].ID)
}
