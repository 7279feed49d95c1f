package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

func setupTestUsers(t *testing.T) (*UserService, *store.Store) {
	t.Helper()
	s := setupTestStore(t)
	stats := NewStatsService(s, discardLogger())
	return NewUserService(s, stats, nil, discardLogger()), s
}

func TestUserService_Get(t *testing.T) {
	svc, s := setupTestUsers(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.Get(ctx, "user_nobody")
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestUserService_GetProfile(t *testing.T) {
	svc, s := setupTestUsers(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	seedBook(t, s, user.ID, "Fantasy", domain.StatusRead, timePtr(time.Now()))
	seedBook(t, s, user.ID, "Fantasy", domain.StatusReading, nil)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.TotalBooks)
	assert.Equal(t, 1, profile.StatusBreakdown["Read"])
	assert.Equal(t, 1, profile.StatusBreakdown["Reading"])
	assert.Equal(t, 0, profile.StatusBreakdown["To Read"])
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, s := setupTestUsers(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	first := "Alice"
	goal := 24
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		FirstName:  &first,
		YearlyGoal: &goal,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, 24, updated.ReadingGoal.Yearly)

	// Untouched fields survive.
	assert.Equal(t, "alice", updated.Username)

	persisted, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 24, persisted.ReadingGoal.Yearly)
}

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	svc, s := setupTestUsers(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	bad := -5
	_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{YearlyGoal: &bad})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestUserService_UpdateProfile_GoalCounterUntouched(t *testing.T) {
	svc, s := setupTestUsers(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	require.NoError(t, s.AdjustReadingGoal(ctx, user.ID, 3))

	goal := 12
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{YearlyGoal: &goal})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.ReadingGoal.Yearly)
	assert.Equal(t, 3, updated.ReadingGoal.Current)
}
