package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

func testSession(id, userID, tokenHash string) *domain.Session {
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestCreateSession_AndGetByTokenHash(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, testSession("ses-1", "usr-1", "hash-1")))

	session, err := s.GetSessionByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "ses-1", session.ID)
	assert.Equal(t, "usr-1", session.UserID)
}

func TestGetSession_Expired(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	session := testSession("ses-1", "usr-1", "hash-1")
	session.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, s.CreateSession(ctx, session))

	_, err := s.GetSession(ctx, "ses-1")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestUpdateSession_TokenRotation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	session := testSession("ses-1", "usr-1", "hash-old")
	require.NoError(t, s.CreateSession(ctx, session))

	session.TokenHash = "hash-new"
	require.NoError(t, s.UpdateSession(ctx, session, "hash-old"))

	_, err := s.GetSessionByTokenHash(ctx, "hash-old")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	found, err := s.GetSessionByTokenHash(ctx, "hash-new")
	require.NoError(t, err)
	assert.Equal(t, "ses-1", found.ID)
}

func TestDeleteSession(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	session := testSession("ses-1", "usr-1", "hash-1")
	require.NoError(t, s.CreateSession(ctx, session))

	require.NoError(t, s.DeleteSession(ctx, session))

	_, err := s.GetSession(ctx, "ses-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.GetSessionByTokenHash(ctx, "hash-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteUserSessions(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, testSession("ses-1", "usr-1", "hash-1")))
	require.NoError(t, s.CreateSession(ctx, testSession("ses-2", "usr-1", "hash-2")))
	require.NoError(t, s.CreateSession(ctx, testSession("ses-3", "usr-2", "hash-3")))

	require.NoError(t, s.DeleteUserSessions(ctx, "usr-1"))

	_, err := s.GetSession(ctx, "ses-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.GetSession(ctx, "ses-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Other user's session survives.
	_, err = s.GetSession(ctx, "ses-3")
	assert.NoError(t, err)
}

func TestPagination_CursorRoundTrip(t *testing.T) {
	cursor := EncodeCursor("idx:books:user:usr-1:bk-42")
	key, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, "idx:books:user:usr-1:bk-42", key)

	_, err = DecodeCursor("%%%not-base64%%%")
	assert.Error(t, err)

	assert.Empty(t, EncodeCursor(""))
}

func TestPaginationParams_Validate(t *testing.T) {
	p := PaginationParams{Limit: -5}
	p.Validate()
	assert.Equal(t, 50, p.Limit)

	p = PaginationParams{Limit: 10000}
	p.Validate()
	assert.Equal(t, 500, p.Limit)
}
