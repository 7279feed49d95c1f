package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/media/images"
	"github.com/shelfmark/shelfmark-server/internal/search"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// BookService manages a user's catalogue: the record lifecycle, the
// reading-status state machine, progress tracking, and reviews.
type BookService struct {
	store  *store.Store
	search *search.SearchIndex
	covers *images.Processor
	logger *slog.Logger
}

// NewBookService creates a new book service. The search index may be nil,
// in which case list searches fall back to unfiltered listing.
func NewBookService(
	store *store.Store,
	searchIndex *search.SearchIndex,
	covers *images.Processor,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		store:  store,
		search: searchIndex,
		covers: covers,
		logger: logger,
	}
}

// CreateBookRequest contains new book data.
type CreateBookRequest struct {
	Title         string   `json:"title" validate:"required,max=512"`
	Author        string   `json:"author" validate:"required,max=512"`
	Genre         string   `json:"genre" validate:"required,max=128"`
	Status        string   `json:"status" validate:"omitempty"`
	ISBN          string   `json:"isbn" validate:"omitempty,max=32"`
	GoogleBooksID string   `json:"googleBooksId" validate:"omitempty,max=64"`
	Description   string   `json:"description" validate:"omitempty,max=5000"`
	Publisher     string   `json:"publisher" validate:"omitempty,max=256"`
	PublishedDate string   `json:"publishedDate" validate:"omitempty,max=32"`
	PageCount     int      `json:"pageCount" validate:"omitempty,gte=0"`
	CurrentPage   int      `json:"currentPage" validate:"omitempty,gte=0"`
	Language      string   `json:"language" validate:"omitempty,max=16"`
	CoverImage    string   `json:"coverImage" validate:"omitempty,max=1024"`
	Tags          []string `json:"tags" validate:"omitempty,max=32,dive,max=64"`
	Favorite      bool     `json:"favorite"`
}

// UpdateBookRequest is a partial update. Nil fields are left untouched.
type UpdateBookRequest struct {
	Title         *string   `json:"title" validate:"omitempty,min=1,max=512"`
	Author        *string   `json:"author" validate:"omitempty,min=1,max=512"`
	Genre         *string   `json:"genre" validate:"omitempty,min=1,max=128"`
	Status        *string   `json:"status"`
	ISBN          *string   `json:"isbn" validate:"omitempty,max=32"`
	Description   *string   `json:"description" validate:"omitempty,max=5000"`
	Publisher     *string   `json:"publisher" validate:"omitempty,max=256"`
	PublishedDate *string   `json:"publishedDate" validate:"omitempty,max=32"`
	PageCount     *int      `json:"pageCount" validate:"omitempty,gte=0"`
	Language      *string   `json:"language" validate:"omitempty,max=16"`
	Tags          *[]string `json:"tags" validate:"omitempty,max=32,dive,max=64"`
	Favorite      *bool     `json:"favorite"`
}

// ReviewRequest contains a rating and optional comment.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

// ListBooksRequest narrows and paginates a user's catalogue.
type ListBooksRequest struct {
	Status   string
	Genre    string
	Favorite bool
	Search   string
	Cursor   string
	Limit    int
}

// Create adds a book to the user's catalogue. A positive pageCount
// initializes reading progress; a non-default initial status gets its
// timestamps stamped and, for Read, counts toward the owner's goal.
func (s *BookService) Create(ctx context.Context, userID string, req CreateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	status := domain.StatusToRead
	if req.Status != "" {
		status = domain.Status(req.Status)
		if !status.Valid() {
			return nil, domainerrors.Validationf("status must be one of %q, %q, %q",
				domain.StatusToRead, domain.StatusReading, domain.StatusRead)
		}
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	now := time.Now()
	book := &domain.Book{
		ID:            bookID,
		UserID:        userID,
		CreatedAt:     now,
		UpdatedAt:     now,
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		Status:        status,
		ISBN:          req.ISBN,
		GoogleBooksID: req.GoogleBooksID,
		Description:   req.Description,
		Publisher:     req.Publisher,
		PublishedDate: req.PublishedDate,
		PageCount:     req.PageCount,
		Language:      req.Language,
		CoverImage:    req.CoverImage,
		Tags:          req.Tags,
		Favorite:      req.Favorite,
		DateAdded:     now,
	}

	if req.PageCount > 0 {
		book.ReadingProgress = &domain.ReadingProgress{
			CurrentPage: min(req.CurrentPage, req.PageCount),
			TotalPages:  req.PageCount,
			LastUpdated: now,
		}
		book.ReadingProgress.Recompute()
	}

	var goalDelta int
	if status != domain.StatusToRead {
		change := domain.Transition(domain.StatusToRead, status, false, false, now)
		book.ApplyStatusChange(change)
		goalDelta = change.GoalDelta
	}

	if err := s.store.CreateBook(ctx, book, goalDelta); err != nil {
		return nil, mapBookStoreError(err)
	}

	s.logger.Info("book created",
		"book_id", bookID,
		"user_id", userID,
		"status", status,
	)

	return book, nil
}

// Get returns a single book. Books owned by other users are reported as
// absent, never as forbidden.
func (s *BookService) Get(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, mapBookStoreError(err)
	}
	return book, nil
}

// Update applies a partial update. A status change runs through the
// transition rules against the previously persisted status before any
// field overwrite, so date stamping and goal counting see the real edge.
func (s *BookService) Update(ctx context.Context, userID, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, mapBookStoreError(err)
	}

	now := time.Now()
	var goalDelta int

	if req.Status != nil {
		newStatus := domain.Status(*req.Status)
		if !newStatus.Valid() {
			return nil, domainerrors.Validationf("status must be one of %q, %q, %q",
				domain.StatusToRead, domain.StatusReading, domain.StatusRead)
		}
		change := domain.Transition(book.Status, newStatus,
			book.DateStarted != nil, book.DateFinished != nil, now)
		book.ApplyStatusChange(change)
		book.Status = newStatus
		goalDelta = change.GoalDelta
	}

	applyBookPatch(book, req)

	if req.PageCount != nil && book.ReadingProgress != nil {
		book.ReadingProgress.TotalPages = *req.PageCount
		if book.ReadingProgress.CurrentPage > *req.PageCount {
			book.ReadingProgress.CurrentPage = *req.PageCount
		}
		book.ReadingProgress.Recompute()
		book.ReadingProgress.LastUpdated = now
	}
	if req.PageCount != nil && book.ReadingProgress == nil && *req.PageCount > 0 {
		book.ReadingProgress = &domain.ReadingProgress{
			TotalPages:  *req.PageCount,
			LastUpdated: now,
		}
		book.ReadingProgress.Recompute()
	}

	book.UpdatedAt = now

	if err := s.store.UpdateBook(ctx, book, goalDelta); err != nil {
		return nil, mapBookStoreError(err)
	}

	return book, nil
}

// UpdateProgress moves the bookmark. Reaching the last page finishes the
// book; the first page turned on a To Read book starts it.
func (s *BookService) UpdateProgress(ctx context.Context, userID, bookID string, currentPage int) (*domain.Book, error) {
	if currentPage < 0 {
		return nil, domainerrors.Validation("currentPage must be zero or greater")
	}

	book, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, mapBookStoreError(err)
	}

	if book.ReadingProgress == nil {
		return nil, domainerrors.InvalidState("book has no reading progress; set pageCount first")
	}

	now := time.Now()
	progress := book.ReadingProgress
	if currentPage > progress.TotalPages {
		currentPage = progress.TotalPages
	}
	progress.CurrentPage = currentPage
	progress.LastUpdated = now
	progress.Recompute()

	var goalDelta int
	switch {
	case currentPage >= progress.TotalPages && progress.TotalPages > 0 && book.Status != domain.StatusRead:
		change := domain.Transition(book.Status, domain.StatusRead,
			book.DateStarted != nil, book.DateFinished != nil, now)
		book.ApplyStatusChange(change)
		book.Status = domain.StatusRead
		goalDelta = change.GoalDelta
	case currentPage > 0 && book.Status == domain.StatusToRead:
		change := domain.Transition(book.Status, domain.StatusReading,
			book.DateStarted != nil, book.DateFinished != nil, now)
		book.ApplyStatusChange(change)
		book.Status = domain.StatusReading
	}

	book.UpdatedAt = now

	if err := s.store.UpdateBook(ctx, book, goalDelta); err != nil {
		return nil, mapBookStoreError(err)
	}

	return book, nil
}

// AddReview sets the book's review, replacing any existing one wholesale.
func (s *BookService) AddReview(ctx context.Context, userID, bookID string, req ReviewRequest) (*domain.Book, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, mapBookStoreError(err)
	}

	now := time.Now()
	book.Review = &domain.Review{
		Rating:    req.Rating,
		Comment:   req.Comment,
		DateAdded: now,
	}
	book.UpdatedAt = now

	if err := s.store.UpdateBook(ctx, book, 0); err != nil {
		return nil, mapBookStoreError(err)
	}

	return book, nil
}

// Delete removes a book. A Read book gives back its goal count, and the
// stored cover image is released.
func (s *BookService) Delete(ctx context.Context, userID, bookID string) error {
	book, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return mapBookStoreError(err)
	}

	var goalDelta int
	if book.Status == domain.StatusRead {
		goalDelta = -1
	}

	if err := s.store.DeleteBook(ctx, userID, bookID, goalDelta); err != nil {
		return mapBookStoreError(err)
	}

	if s.covers != nil {
		if err := s.covers.Delete(bookID); err != nil {
			s.logger.Warn("failed to delete cover image",
				"book_id", bookID,
				"error", err,
			)
		}
	}

	s.logger.Info("book deleted", "book_id", bookID, "user_id", userID)
	return nil
}

// List returns a page of the user's catalogue. A search query goes through
// the full-text index; filters apply either way.
func (s *BookService) List(ctx context.Context, userID string, req ListBooksRequest) (*store.PaginatedResult[*domain.Book], error) {
	if req.Status != "" && !domain.Status(req.Status).Valid() {
		return nil, domainerrors.Validationf("status must be one of %q, %q, %q",
			domain.StatusToRead, domain.StatusReading, domain.StatusRead)
	}

	filter := store.BookFilter{
		Status:   domain.Status(req.Status),
		Genre:    req.Genre,
		Favorite: req.Favorite,
	}

	if req.Search != "" && s.search != nil {
		return s.searchBooks(ctx, userID, req.Search, filter, req.Limit)
	}

	params := store.PaginationParams{Limit: req.Limit, Cursor: req.Cursor}
	result, err := s.store.ListBooks(ctx, userID, filter, params)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return result, nil
}

// UploadCover processes and stores a cover image for a book, recording its
// public path and blurhash placeholder on the record.
func (s *BookService) UploadCover(ctx context.Context, userID, bookID string, data []byte) (*domain.Book, error) {
	if s.covers == nil {
		return nil, domainerrors.Internal("cover storage is not configured")
	}

	book, err := s.store.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, mapBookStoreError(err)
	}

	result, err := s.covers.Process(bookID, data)
	if err != nil {
		return nil, domainerrors.Validationf("invalid cover image: %v", err)
	}

	book.CoverImage = "/uploads/covers/" + bookID + ".jpg"
	book.CoverBlurHash = result.BlurHash
	book.UpdatedAt = time.Now()

	if err := s.store.UpdateBook(ctx, book, 0); err != nil {
		return nil, mapBookStoreError(err)
	}

	return book, nil
}

// searchBooks resolves a full-text query to book records, preserving
// relevance order. Search results are fetched as a single page.
func (s *BookService) searchBooks(ctx context.Context, userID, query string, filter store.BookFilter, limit int) (*store.PaginatedResult[*domain.Book], error) {
	params := store.PaginationParams{Limit: limit}
	params.Validate()

	result, err := s.search.Search(ctx, search.Params{
		UserID: userID,
		Query:  query,
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}

	books, err := s.store.GetBooksByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch search results: %w", err)
	}

	filtered := make([]*domain.Book, 0, len(books))
	for _, book := range books {
		if filter.Matches(book) {
			filtered = append(filtered, book)
		}
	}

	return &store.PaginatedResult[*domain.Book]{
		Items: filtered,
		Total: len(filtered),
	}, nil
}

// applyBookPatch copies the non-nil scalar fields onto the book.
func applyBookPatch(book *domain.Book, req UpdateBookRequest) {
	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Genre != nil {
		book.Genre = *req.Genre
	}
	if req.ISBN != nil {
		book.ISBN = *req.ISBN
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Publisher != nil {
		book.Publisher = *req.Publisher
	}
	if req.PublishedDate != nil {
		book.PublishedDate = *req.PublishedDate
	}
	if req.PageCount != nil {
		book.PageCount = *req.PageCount
	}
	if req.Language != nil {
		book.Language = *req.Language
	}
	if req.Tags != nil {
		book.Tags = *req.Tags
	}
	if req.Favorite != nil {
		book.Favorite = *req.Favorite
	}
}

// mapBookStoreError translates store sentinels into coded domain errors.
func mapBookStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrBookNotFound):
		return domainerrors.NotFound("book not found")
	case errors.Is(err, store.ErrISBNExists):
		return domainerrors.Conflict("a book with this ISBN already exists")
	case errors.Is(err, store.ErrGoogleBooksIDExists):
		return domainerrors.Conflict("a book with this Google Books ID already exists")
	}
	return err
}
