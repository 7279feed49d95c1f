package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

const (
	bookPrefix       = "book:"
	bookByUserPrefix = "idx:books:user:" // "<userID>:<bookID>" -> bookID
	bookByISBNPrefix = "idx:books:isbn:" // "<userID>:<isbn>" -> bookID, sparse
	bookByGBIDPrefix = "idx:books:gbid:" // "<userID>:<googleBooksID>" -> bookID, sparse
)

var (
	// ErrBookNotFound is returned when a book is absent or not owned by the caller.
	ErrBookNotFound = errors.New("book not found")
	// ErrISBNExists is returned when the user already has a book with this ISBN.
	ErrISBNExists = errors.New("a book with this ISBN already exists")
	// ErrGoogleBooksIDExists is returned when the user already has a book with this external ID.
	ErrGoogleBooksIDExists = errors.New("a book with this Google Books ID already exists")
)

// BookFilter narrows ListBooks results. Zero values mean no filtering.
type BookFilter struct {
	Status   domain.Status
	Genre    string
	Favorite bool
}

func (f BookFilter) Matches(book *domain.Book) bool {
	if f.Status != "" && book.Status != f.Status {
		return false
	}
	if f.Genre != "" && !strings.EqualFold(book.Genre, f.Genre) {
		return false
	}
	if f.Favorite && !book.Favorite {
		return false
	}
	return true
}

// CreateBook persists a new book, its secondary indexes, and the owner's
// goal-counter delta in a single transaction. Uniqueness of ISBN and
// Google Books ID is scoped to the owning user.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book, goalDelta int) error {
	key := []byte(bookPrefix + book.ID)
	userKey := []byte(userIndexKey(book.UserID, book.ID))

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := checkSparseIndex(txn, isbnIndexKey(book), ErrISBNExists); err != nil {
			return err
		}
		if err := checkSparseIndex(txn, gbidIndexKey(book), ErrGoogleBooksIDExists); err != nil {
			return err
		}

		if err := setInTxn(txn, key, book); err != nil {
			return err
		}
		if err := txn.Set(userKey, []byte(book.ID)); err != nil {
			return err
		}
		if err := setSparseIndex(txn, isbnIndexKey(book), book.ID); err != nil {
			return err
		}
		if err := setSparseIndex(txn, gbidIndexKey(book), book.ID); err != nil {
			return err
		}

		return adjustGoalInTxn(txn, book.UserID, goalDelta)
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("book created", "id", book.ID, "user_id", book.UserID, "title", book.Title)
	}

	s.indexBookAsync(book)
	return nil
}

// GetBook retrieves a book by ID for the given user. A book that exists
// but belongs to someone else reports the same ErrBookNotFound as an
// absent one.
func (s *Store) GetBook(_ context.Context, userID, bookID string) (*domain.Book, error) {
	var book domain.Book
	if err := s.get([]byte(bookPrefix+bookID), &book); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	if book.UserID != userID {
		return nil, ErrBookNotFound
	}

	return &book, nil
}

// UpdateBook writes an updated book, maintains its sparse indexes, and
// applies the owner's goal-counter delta atomically.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book, goalDelta int) error {
	oldBook, err := s.GetBook(ctx, book.UserID, book.ID)
	if err != nil {
		return err
	}

	key := []byte(bookPrefix + book.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		if oldKey, newKey := isbnIndexKey(oldBook), isbnIndexKey(book); oldKey != newKey {
			if err := moveSparseIndex(txn, oldKey, newKey, book.ID, ErrISBNExists); err != nil {
				return err
			}
		}
		if oldKey, newKey := gbidIndexKey(oldBook), gbidIndexKey(book); oldKey != newKey {
			if err := moveSparseIndex(txn, oldKey, newKey, book.ID, ErrGoogleBooksIDExists); err != nil {
				return err
			}
		}

		if err := setInTxn(txn, key, book); err != nil {
			return err
		}

		return adjustGoalInTxn(txn, book.UserID, goalDelta)
	})
	if err != nil {
		return err
	}

	s.indexBookAsync(book)
	return nil
}

// DeleteBook removes a book, all its index entries, and applies the
// owner's goal-counter delta atomically.
func (s *Store) DeleteBook(ctx context.Context, userID, bookID string, goalDelta int) error {
	book, err := s.GetBook(ctx, userID, bookID)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(bookPrefix + bookID)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(userIndexKey(userID, bookID))); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if key := isbnIndexKey(book); key != "" {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		if key := gbidIndexKey(book); key != "" {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}

		return adjustGoalInTxn(txn, userID, goalDelta)
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("book deleted", "id", bookID, "user_id", userID)
	}

	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.DeleteBook(context.Background(), bookID); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
				}
			}
		}()
	}
	return nil
}

// ListBooks returns a page of the user's books matching the filter,
// ordered by ID. The cursor is the last index key of the previous page.
func (s *Store) ListBooks(_ context.Context, userID string, filter BookFilter, params PaginationParams) (*PaginatedResult[*domain.Book], error) {
	params.Validate()

	afterKey, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	prefix := []byte(bookByUserPrefix + userID + ":")
	result := &PaginatedResult[*domain.Book]{Items: []*domain.Book{}}
	var lastKey string

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		start := prefix
		if afterKey != "" {
			// Seek past the cursor key.
			start = append([]byte(afterKey), 0)
		}

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var bookID string
			if err := item.Value(func(val []byte) error {
				bookID = string(val)
				return nil
			}); err != nil {
				return err
			}

			var book domain.Book
			if err := getInTxn(txn, []byte(bookPrefix+bookID), &book); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}

			if !filter.Matches(&book) {
				continue
			}

			if len(result.Items) >= params.Limit {
				result.HasMore = true
				result.NextCursor = EncodeCursor(lastKey)
				return nil
			}

			result.Items = append(result.Items, &book)
			lastKey = string(item.KeyCopy(nil))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return result, nil
}

// ForEachUserBook streams every book owned by the user. Used by the stats
// aggregator, which needs full scans rather than pages.
func (s *Store) ForEachUserBook(_ context.Context, userID string, fn func(*domain.Book) error) error {
	prefix := []byte(bookByUserPrefix + userID + ":")

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var bookID string
			if err := it.Item().Value(func(val []byte) error {
				bookID = string(val)
				return nil
			}); err != nil {
				return err
			}

			var book domain.Book
			if err := getInTxn(txn, []byte(bookPrefix+bookID), &book); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}

			if err := fn(&book); err != nil {
				return err
			}
		}

		return nil
	})
}

// ForEachBook streams every book in the store regardless of owner. Used
// for search reindexing at startup.
func (s *Store) ForEachBook(_ context.Context, fn func(*domain.Book) error) error {
	prefix := []byte(bookPrefix)

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var book domain.Book
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			}); err != nil {
				return err
			}

			if err := fn(&book); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetBooksByIDs loads the given books, silently skipping IDs that are
// missing or belong to another user. Order follows the input IDs.
func (s *Store) GetBooksByIDs(_ context.Context, userID string, ids []string) ([]*domain.Book, error) {
	books := make([]*domain.Book, 0, len(ids))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, bookID := range ids {
			item, err := txn.Get([]byte(bookPrefix + bookID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var book domain.Book
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			}); err != nil {
				return err
			}

			if book.UserID == userID {
				books = append(books, &book)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get books by ids: %w", err)
	}

	return books, nil
}

// indexBookAsync pushes the book to the search index without blocking the write.
func (s *Store) indexBookAsync(book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.IndexBook(context.Background(), book); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to index book for search", "book_id", book.ID, "error", err)
			}
		}
	}()
}

func userIndexKey(userID, bookID string) string {
	return bookByUserPrefix + userID + ":" + bookID
}

// isbnIndexKey returns the sparse ISBN index key, or "" when the book has
// no ISBN.
func isbnIndexKey(book *domain.Book) string {
	isbn := normalizeISBN(book.ISBN)
	if isbn == "" {
		return ""
	}
	return bookByISBNPrefix + book.UserID + ":" + isbn
}

// gbidIndexKey returns the sparse Google Books ID index key, or "" when
// the book has no external ID.
func gbidIndexKey(book *domain.Book) string {
	if book.GoogleBooksID == "" {
		return ""
	}
	return bookByGBIDPrefix + book.UserID + ":" + book.GoogleBooksID
}

// normalizeISBN strips hyphens and spaces so equivalent ISBN forms collide.
func normalizeISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(isbn))
}

// checkSparseIndex fails with conflictErr when the key is already taken.
// Empty keys (no indexed value) pass.
func checkSparseIndex(txn *badger.Txn, key string, conflictErr error) error {
	if key == "" {
		return nil
	}
	if _, err := txn.Get([]byte(key)); err == nil {
		return conflictErr
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check index: %w", err)
	}
	return nil
}

// setSparseIndex writes the index entry unless the key is empty.
func setSparseIndex(txn *badger.Txn, key, id string) error {
	if key == "" {
		return nil
	}
	return txn.Set([]byte(key), []byte(id))
}

// moveSparseIndex retargets a sparse index entry from oldKey to newKey.
func moveSparseIndex(txn *badger.Txn, oldKey, newKey, id string, conflictErr error) error {
	if oldKey != "" {
		if err := txn.Delete([]byte(oldKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
	}
	if err := checkSparseIndex(txn, newKey, conflictErr); err != nil {
		return err
	}
	return setSparseIndex(txn, newKey, id)
}
