package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

const (
	sessionPrefix        = "session:"
	sessionByUserPrefix  = "idx:sessions:user:"  // "<userID>:<sessionID>" -> ""
	sessionByTokenPrefix = "idx:sessions:token:" // "<tokenHash>" -> sessionID
)

var (
	// ErrSessionNotFound is returned when a session cannot be found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when attempting to use an expired or revoked session.
	ErrSessionExpired = errors.New("session expired")
)

// CreateSession persists a new session and its token index.
func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	key := []byte(sessionPrefix + session.ID)
	tokenKey := []byte(sessionByTokenPrefix + session.TokenHash)
	userKey := []byte(sessionByUserPrefix + session.UserID + ":" + session.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, session); err != nil {
			return err
		}
		if err := txn.Set(tokenKey, []byte(session.ID)); err != nil {
			return err
		}
		return txn.Set(userKey, []byte{})
	})
}

// GetSession retrieves a session by ID, rejecting expired or revoked ones.
func (s *Store) GetSession(_ context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	if err := s.get([]byte(sessionPrefix+id), &session); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !session.Valid(time.Now()) {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// GetSessionByTokenHash retrieves a session by refresh token hash, used
// during the refresh flow.
func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionByTokenPrefix + tokenHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sessionID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session by token: %w", err)
	}

	return s.GetSession(ctx, sessionID)
}

// UpdateSession writes an updated session, retargeting the token index
// when the refresh token rotated.
func (s *Store) UpdateSession(_ context.Context, session *domain.Session, oldTokenHash string) error {
	key := []byte(sessionPrefix + session.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setInTxn(txn, key, session); err != nil {
			return err
		}

		if oldTokenHash != "" && oldTokenHash != session.TokenHash {
			if err := txn.Delete([]byte(sessionByTokenPrefix + oldTokenHash)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set([]byte(sessionByTokenPrefix+session.TokenHash), []byte(session.ID)); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteSession removes a session and its indexes.
func (s *Store) DeleteSession(_ context.Context, session *domain.Session) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{
			[]byte(sessionPrefix + session.ID),
			[]byte(sessionByTokenPrefix + session.TokenHash),
			[]byte(sessionByUserPrefix + session.UserID + ":" + session.ID),
		} {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// DeleteUserSessions removes every session belonging to the user.
// Used on password change and account-wide logout.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	prefix := []byte(sessionByUserPrefix + userID + ":")

	var sessionIDs []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			sessionIDs = append(sessionIDs, key[len(prefix):])
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	for _, sessionID := range sessionIDs {
		var session domain.Session
		if err := s.get([]byte(sessionPrefix+sessionID), &session); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			return fmt.Errorf("get session %s: %w", sessionID, err)
		}
		if err := s.DeleteSession(ctx, &session); err != nil {
			return err
		}
	}

	return nil
}
