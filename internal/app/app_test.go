package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/features/members"
	"serotonyl.ru/taskmarket/internal/testutil"
)

func TestNew_MemoryStoreWithAdmin(t *testing.T) {
	cfg := testutil.Config()
	hash, err := members.HashPassword("rootpass")
	require.NoError(t, err)
	cfg.AdminEmail = "root@example.com"
	cfg.AdminPasswordHash = hash

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.DB)

	u, err := a.Services.Members.Authenticate(context.Background(), "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	rec := httptest.NewRecorder()
	a.HTTP.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_BadAdminHash(t *testing.T) {
	cfg := testutil.Config()
	cfg.AdminEmail = "root@example.com"
	cfg.AdminPasswordHash = "plain-text"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
