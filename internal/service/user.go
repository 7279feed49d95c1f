package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/media/images"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// UserService handles profile reads and updates.
type UserService struct {
	store   *store.Store
	stats   *StatsService
	avatars *images.Processor
	logger  *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	store *store.Store,
	stats *StatsService,
	avatars *images.Processor,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		store:   store,
		stats:   stats,
		avatars: avatars,
		logger:  logger,
	}
}

// UpdateProfileRequest is a partial profile update. The yearly goal target
// is the only client-writable goal field; the counter is maintained by the
// status machine and the aggregator.
type UpdateProfileRequest struct {
	FirstName  *string `json:"firstName" validate:"omitempty,max=64"`
	LastName   *string `json:"lastName" validate:"omitempty,max=64"`
	Bio        *string `json:"bio" validate:"omitempty,max=2000"`
	YearlyGoal *int    `json:"yearlyGoal" validate:"omitempty,gte=0,lte=10000"`
}

// Profile is a user together with their per-status book counts.
type Profile struct {
	User            *domain.User   `json:"user"`
	StatusBreakdown map[string]int `json:"statusBreakdown"`
	TotalBooks      int            `json:"totalBooks"`
}

// Get returns the user record.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetProfile returns the user with their catalogue summary.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.stats.StatusBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}

	var total int
	for _, count := range breakdown {
		total += count
	}

	return &Profile{
		User:            user,
		StatusBreakdown: breakdown,
		TotalBooks:      total,
	}, nil
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.YearlyGoal != nil {
		user.ReadingGoal.Yearly = *req.YearlyGoal
	}
	user.UpdatedAt = time.Now()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// UploadAvatar processes and stores a profile image for the user.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, data []byte) (*domain.User, error) {
	if s.avatars == nil {
		return nil, domainerrors.Internal("avatar storage is not configured")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.avatars.Process(userID, data); err != nil {
		return nil, domainerrors.Validationf("invalid avatar image: %v", err)
	}

	user.Avatar = "/uploads/avatars/" + userID + ".jpg"
	user.UpdatedAt = time.Now()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("avatar updated", "user_id", userID)
	return user, nil
}
