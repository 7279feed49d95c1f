package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/auth"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	})

	return s
}

func setupTestBooks(t *testing.T) (*BookService, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	return NewBookService(s, nil, nil, discardLogger()), s
}

func setupTestAuth(t *testing.T) (*AuthService, *SessionService, *store.Store) {
	t.Helper()
	s := setupTestStore(t)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tokenService, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessions := NewSessionService(s, tokenService, discardLogger())
	return NewAuthService(s, tokenService, sessions, discardLogger()), sessions, s
}

func createTestUser(t *testing.T, s *store.Store, username string) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		ID:           "user_" + username,
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func assertCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}
