package roles

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ballotworks/roleboard/internal/platform/httpx"
)

func newTestRouter(svc *Service) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Route("/roles", NewHandler(logger, svc).MountRoutes)
	return r
}

func TestHandlerCreateAndList(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	router := newTestRouter(svc)

	body := `{"role_name":"Moderator","role_type":"user","role_category":"platform"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)
	var created Role
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "Moderator", created.Name)
	require.True(t, created.IsActive)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles?role_type=user", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var list []Role
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
}

func TestHandlerCreateInvalidBody(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRoleRepo(), nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := `{"role_name":"X","role_type":"superuser","role_category":"platform"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDeleteProtectedRole(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	router := newTestRouter(svc)
	role := seedRole(t, svc, "voter")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/roles/%d", role.ID), nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.False(t, env.Success)
	require.Contains(t, env.Message, "voter")
}

func TestHandlerDeleteUnknownRole(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRoleRepo(), nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/roles/99", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
