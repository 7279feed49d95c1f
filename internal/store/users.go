package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

const (
	userPrefix           = "user:"
	userByEmailPrefix    = "idx:users:email:"    // login lookups
	userByUsernamePrefix = "idx:users:username:" // uniqueness + profile lookups
)

var (
	// ErrUserNotFound is returned when a user cannot be found by ID, email, or username.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when the email address is already registered.
	ErrEmailExists = errors.New("email already in use")
	// ErrUsernameExists is returned when the username is already taken.
	ErrUsernameExists = errors.New("username already taken")
)

// CreateUser creates a new user account, enforcing email and username
// uniqueness in the same transaction as the write.
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	key := []byte(userPrefix + user.ID)
	emailKey := []byte(userByEmailPrefix + normalizeEmail(user.Email))
	usernameKey := []byte(userByUsernamePrefix + normalizeUsername(user.Username))

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey); err == nil {
			return ErrEmailExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check email exists: %w", err)
		}

		if _, err := txn.Get(usernameKey); err == nil {
			return ErrUsernameExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check username exists: %w", err)
		}

		if err := setInTxn(txn, key, user); err != nil {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(usernameKey, []byte(user.ID))
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("user created", "id", user.ID, "username", user.Username)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.get([]byte(userPrefix+id), &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserByIndex(ctx, userByEmailPrefix+normalizeEmail(email))
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserByIndex(ctx, userByUsernamePrefix+normalizeUsername(username))
}

func (s *Store) getUserByIndex(ctx context.Context, indexKey string) (*domain.User, error) {
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// UpdateUser updates an existing user, maintaining the email and username
// indexes when either changes.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	oldUser, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}

	key := []byte(userPrefix + user.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, user); err != nil {
			return err
		}

		if normalizeEmail(oldUser.Email) != normalizeEmail(user.Email) {
			if err := swapUniqueIndex(txn,
				userByEmailPrefix+normalizeEmail(oldUser.Email),
				userByEmailPrefix+normalizeEmail(user.Email),
				user.ID, ErrEmailExists); err != nil {
				return err
			}
		}

		if normalizeUsername(oldUser.Username) != normalizeUsername(user.Username) {
			if err := swapUniqueIndex(txn,
				userByUsernamePrefix+normalizeUsername(oldUser.Username),
				userByUsernamePrefix+normalizeUsername(user.Username),
				user.ID, ErrUsernameExists); err != nil {
				return err
			}
		}

		return nil
	})
}

// AdjustReadingGoal applies a delta to the user's goal counter inside its
// own transaction. Used by book writes that cannot batch the user update.
func (s *Store) AdjustReadingGoal(_ context.Context, userID string, delta int) error {
	if delta == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return adjustGoalInTxn(txn, userID, delta)
	})
}

// SetReadingGoalCurrent overwrites the goal counter with an authoritative
// value computed from source records.
func (s *Store) SetReadingGoalCurrent(_ context.Context, userID string, current int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var user domain.User
		if err := getInTxn(txn, []byte(userPrefix+userID), &user); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("get user: %w", err)
		}
		if user.ReadingGoal.Current == current {
			return nil
		}
		user.ReadingGoal.Current = current
		return setInTxn(txn, []byte(userPrefix+userID), &user)
	})
}

// adjustGoalInTxn increments the user's goal counter within txn so the
// change commits atomically with the triggering book write.
func adjustGoalInTxn(txn *badger.Txn, userID string, delta int) error {
	if delta == 0 {
		return nil
	}

	key := []byte(userPrefix + userID)
	var user domain.User
	if err := getInTxn(txn, key, &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user for goal adjust: %w", err)
	}

	user.ReadingGoal.Current += delta
	return setInTxn(txn, key, &user)
}

// swapUniqueIndex moves a unique index entry from oldKey to newKey,
// failing with conflictErr if newKey is already taken.
func swapUniqueIndex(txn *badger.Txn, oldKey, newKey, id string, conflictErr error) error {
	if err := txn.Delete([]byte(oldKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	if _, err := txn.Get([]byte(newKey)); err == nil {
		return conflictErr
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check index: %w", err)
	}

	return txn.Set([]byte(newKey), []byte(id))
}

// normalizeEmail lowercases and trims an email for consistent lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeUsername lowercases and trims a username for consistent lookups.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
