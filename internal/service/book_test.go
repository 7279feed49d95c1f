package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

func TestBookService_Create_Defaults(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusToRead, book.Status)
	assert.Nil(t, book.DateStarted)
	assert.Nil(t, book.DateFinished)
	assert.Nil(t, book.ReadingProgress)
	assert.False(t, book.DateAdded.IsZero())
}

func TestBookService_Create_WithPageCount(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:       "Dune",
		Author:      "Frank Herbert",
		Genre:       "Science Fiction",
		PageCount:   412,
		CurrentPage: 103,
	})
	require.NoError(t, err)

	require.NotNil(t, book.ReadingProgress)
	assert.Equal(t, 412, book.ReadingProgress.TotalPages)
	assert.Equal(t, 103, book.ReadingProgress.CurrentPage)
	assert.Equal(t, 25, book.ReadingProgress.ProgressPercentage)
}

func TestBookService_Create_InitialStatusRead(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
		Status: string(domain.StatusRead),
	})
	require.NoError(t, err)

	assert.NotNil(t, book.DateStarted)
	assert.NotNil(t, book.DateFinished)

	updated, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReadingGoal.Current)
}

func TestBookService_Create_Invalid(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
	})
	assertCode(t, err, domainerrors.CodeValidation)

	_, err = svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
		Status: "Finished",
	})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestBookService_Create_DuplicateISBN(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	req := CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
		ISBN:   "978-0-441-17271-9",
	}
	_, err := svc.Create(ctx, user.ID, req)
	require.NoError(t, err)

	// Same ISBN with different separators still collides.
	req.ISBN = "9780441172719"
	_, err = svc.Create(ctx, user.ID, req)
	assertCode(t, err, domainerrors.CodeConflict)
}

func TestBookService_Update_StatusLifecycle(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
	})
	require.NoError(t, err)

	reading := string(domain.StatusReading)
	book, err = svc.Update(ctx, user.ID, book.ID, UpdateBookRequest{Status: &reading})
	require.NoError(t, err)
	require.NotNil(t, book.DateStarted)
	assert.Nil(t, book.DateFinished)
	started := *book.DateStarted

	read := string(domain.StatusRead)
	book, err = svc.Update(ctx, user.ID, book.ID, UpdateBookRequest{Status: &read})
	require.NoError(t, err)
	assert.NotNil(t, book.DateFinished)
	assert.Equal(t, started, *book.DateStarted)

	updated, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReadingGoal.Current)

	// Moving back out of Read clears the finish date and gives the count
	// back, but keeps the start date as history.
	book, err = svc.Update(ctx, user.ID, book.ID, UpdateBookRequest{Status: &reading})
	require.NoError(t, err)
	assert.Nil(t, book.DateFinished)
	assert.Equal(t, started, *book.DateStarted)

	updated, err = s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.ReadingGoal.Current)
}

func TestBookService_Update_NoopStatusKeepsCounter(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
		Status: string(domain.StatusRead),
	})
	require.NoError(t, err)

	read := string(domain.StatusRead)
	_, err = svc.Update(ctx, user.ID, book.ID, UpdateBookRequest{Status: &read})
	require.NoError(t, err)

	updated, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReadingGoal.Current)
}

func TestBookService_Update_OtherUsersBookIsNotFound(t *testing.T) {
	svc, s := setupTestBooks(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	ctx := context.Background()

	book, err := svc.Create(ctx, alice.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
	})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(ctx, bob.ID, book.ID, UpdateBookRequest{Title: &title})
	assertCode(t, err, domainerrors.CodeNotFound)

	err = svc.Delete(ctx, bob.ID, book.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestBookService_UpdateProgress(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Genre:     "Science Fiction",
		PageCount: 400,
	})
	require.NoError(t, err)

	// First page turned on a To Read book starts it.
	book, err = svc.UpdateProgress(ctx, user.ID, book.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReading, book.Status)
	assert.NotNil(t, book.DateStarted)
	assert.Equal(t, 25, book.ReadingProgress.ProgressPercentage)

	// Reaching the last page finishes it.
	book, err = svc.UpdateProgress(ctx, user.ID, book.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, book.Status)
	assert.NotNil(t, book.DateFinished)
	assert.Equal(t, 100, book.ReadingProgress.ProgressPercentage)

	updated, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReadingGoal.Current)
}

func TestBookService_UpdateProgress_ClampsOvershoot(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Genre:     "Science Fiction",
		PageCount: 400,
	})
	require.NoError(t, err)

	book, err = svc.UpdateProgress(ctx, user.ID, book.ID, 950)
	require.NoError(t, err)
	assert.Equal(t, 400, book.ReadingProgress.CurrentPage)
	assert.Equal(t, 100, book.ReadingProgress.ProgressPercentage)
	assert.Equal(t, domain.StatusRead, book.Status)
}

func TestBookService_UpdateProgress_NoProgress(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
	})
	require.NoError(t, err)

	_, err = svc.UpdateProgress(ctx, user.ID, book.ID, 50)
	assertCode(t, err, domainerrors.CodeInvalidState)

	_, err = svc.UpdateProgress(ctx, user.ID, book.ID, -1)
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestBookService_AddReview(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
	})
	require.NoError(t, err)

	book, err = svc.AddReview(ctx, user.ID, book.ID, ReviewRequest{Rating: 5, Comment: "A classic."})
	require.NoError(t, err)
	require.NotNil(t, book.Review)
	assert.Equal(t, 5, book.Review.Rating)

	// Reviews replace wholesale.
	book, err = svc.AddReview(ctx, user.ID, book.ID, ReviewRequest{Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, book.Review.Rating)
	assert.Empty(t, book.Review.Comment)

	_, err = svc.AddReview(ctx, user.ID, book.ID, ReviewRequest{Rating: 6})
	assertCode(t, err, domainerrors.CodeValidation)

	_, err = svc.AddReview(ctx, user.ID, book.ID, ReviewRequest{Rating: 0})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestBookService_Delete_ReadBookReleasesGoalCount(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	book, err := svc.Create(ctx, user.ID, CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
		Status: string(domain.StatusRead),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID, book.ID))

	updated, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.ReadingGoal.Current)

	_, err = svc.Get(ctx, user.ID, book.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestBookService_List_Filters(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	for _, tc := range []struct {
		title  string
		genre  string
		status string
	}{
		{"Dune", "Science Fiction", string(domain.StatusRead)},
		{"Hyperion", "Science Fiction", string(domain.StatusReading)},
		{"Persuasion", "Romance", string(domain.StatusToRead)},
	} {
		_, err := svc.Create(ctx, user.ID, CreateBookRequest{
			Title:  tc.title,
			Author: "Author",
			Genre:  tc.genre,
			Status: tc.status,
		})
		require.NoError(t, err)
	}

	result, err := svc.List(ctx, user.ID, ListBooksRequest{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)

	result, err = svc.List(ctx, user.ID, ListBooksRequest{Status: string(domain.StatusReading)})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Hyperion", result.Items[0].Title)

	// Genre filter is case-insensitive.
	result, err = svc.List(ctx, user.ID, ListBooksRequest{Genre: "science fiction"})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)

	_, err = svc.List(ctx, user.ID, ListBooksRequest{Status: "Finished"})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestBookService_List_Pagination(t *testing.T) {
	svc, s := setupTestBooks(t)
	user := createTestUser(t, s, "alice")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, user.ID, CreateBookRequest{
			Title:  "Book",
			Author: "Author",
			Genre:  "Genre",
		})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	var cursor string
	for {
		result, err := svc.List(ctx, user.ID, ListBooksRequest{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, book := range result.Items {
			assert.False(t, seen[book.ID], "book %s returned twice", book.ID)
			seen[book.ID] = true
		}
		if !result.HasMore {
			break
		}
		cursor = result.NextCursor
	}
	assert.Len(t, seen, 5)
}

func TestMapBookStoreError(t *testing.T) {
	assertCode(t, mapBookStoreError(store.ErrBookNotFound), domainerrors.CodeNotFound)
	assertCode(t, mapBookStoreError(store.ErrISBNExists), domainerrors.CodeConflict)
	assertCode(t, mapBookStoreError(store.ErrGoogleBooksIDExists), domainerrors.CodeConflict)
}
