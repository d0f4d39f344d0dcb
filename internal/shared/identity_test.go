package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityHeaderRoundTrip(t *testing.T) {
	id := Identity{
		UserID:   42,
		Email:    "sam@example.com",
		Username: "sam",
		Roles:    []string{"voter", "Manager"},
	}

	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	id.ApplyHeaders(req.Header)

	parsed, err := IdentityFromRequest(req)
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestIdentityFromBareUserIDHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.Header.Set(HeaderUserID, "7")

	parsed, err := IdentityFromRequest(req)
	require.NoError(t, err)
	require.Equal(t, int64(7), parsed.UserID)
	require.False(t, parsed.Anonymous())
}

func TestIdentityMalformedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.Header.Set(HeaderUserContext, "{not json")
	_, err := IdentityFromRequest(req)
	require.ErrorIs(t, err, ErrValidation)

	req = httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.Header.Set(HeaderUserID, "forty-two")
	_, err = IdentityFromRequest(req)
	require.ErrorIs(t, err, ErrValidation)
}

func TestMissingHeadersAreAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	parsed, err := IdentityFromRequest(req)
	require.NoError(t, err)
	require.True(t, parsed.Anonymous())
	require.Empty(t, parsed.Actor())
}

func TestActorPrefersUsername(t *testing.T) {
	require.Equal(t, "sam", Identity{UserID: 42, Username: "sam"}.Actor())
	require.Equal(t, "42", Identity{UserID: 42}.Actor())
}

func TestIsProtectedRole(t *testing.T) {
	require.True(t, IsProtectedRole("voter"))
	require.True(t, IsProtectedRole("Voter"))
	require.True(t, IsProtectedRole("  VOTER  "))
	require.False(t, IsProtectedRole("sponsor"))
	require.False(t, IsProtectedRole(""))
}

func TestMatchesQuery(t *testing.T) {
	require.True(t, MatchesQuery("", "anything"))
	require.True(t, MatchesQuery("elect", "Election Manager"))
	require.True(t, MatchesQuery("ELECTION", "runs the election", ""))
	require.False(t, MatchesQuery("sponsor", "Election Manager", "runs elections"))
}
