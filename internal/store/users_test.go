package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

func testUser(id, username, email string) *domain.User {
	return &domain.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hashed",
		ReadingGoal:  domain.ReadingGoal{Yearly: 12},
	}
}

func TestCreateUser_AndGet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := testUser("usr-1", "reader", "reader@example.com")

	require.NoError(t, s.CreateUser(ctx, user))

	retrieved, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "reader", retrieved.Username)
	assert.Equal(t, 12, retrieved.ReadingGoal.Yearly)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "reader", "reader@example.com")))

	err := s.CreateUser(ctx, testUser("usr-2", "other", "READER@example.com"))
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "reader", "a@example.com")))

	err := s.CreateUser(ctx, testUser("usr-2", "Reader", "b@example.com"))
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "reader", "Reader@Example.com")))

	user, err := s.GetUserByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", user.ID)
}

func TestGetUserByUsername(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "reader", "a@example.com")))

	user, err := s.GetUserByUsername(ctx, "READER")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", user.ID)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUser_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetUser(context.Background(), "usr-missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_EmailIndexMoves(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	user := testUser("usr-1", "reader", "old@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	user.Email = "new@example.com"
	require.NoError(t, s.UpdateUser(ctx, user))

	_, err := s.GetUserByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	found, err := s.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", found.ID)
}

func TestUpdateUser_EmailConflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "one", "one@example.com")))
	two := testUser("usr-2", "two", "two@example.com")
	require.NoError(t, s.CreateUser(ctx, two))

	two.Email = "one@example.com"
	err := s.UpdateUser(ctx, two)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAdjustReadingGoal(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "reader", "a@example.com")))

	require.NoError(t, s.AdjustReadingGoal(ctx, "usr-1", 1))
	require.NoError(t, s.AdjustReadingGoal(ctx, "usr-1", 1))
	require.NoError(t, s.AdjustReadingGoal(ctx, "usr-1", -1))

	user, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ReadingGoal.Current)
}

func TestAdjustReadingGoal_ZeroDeltaIsNoop(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "reader", "a@example.com")))
	require.NoError(t, s.AdjustReadingGoal(ctx, "usr-1", 0))

	user, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.ReadingGoal.Current)
}

func TestSetReadingGoalCurrent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, testUser("usr-1", "reader", "a@example.com")))
	require.NoError(t, s.AdjustReadingGoal(ctx, "usr-1", 5))

	require.NoError(t, s.SetReadingGoalCurrent(ctx, "usr-1", 2))

	user, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.ReadingGoal.Current)
}
