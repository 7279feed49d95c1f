// Package domain contains the core business entities for the Shelfmark library.
package domain

import (
	"math"
	"time"
)

// Book represents a single catalogued item owned by one user.
type Book struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title         string   `json:"title"`
	Author        string   `json:"author"`
	ISBN          string   `json:"isbn,omitempty"`
	Genre         string   `json:"genre"`
	Status        Status   `json:"status"`
	CoverImage    string   `json:"coverImage,omitempty"`
	CoverBlurHash string   `json:"coverBlurhash,omitempty"`
	Description   string   `json:"description,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PageCount     int      `json:"pageCount,omitempty"`
	Language      string   `json:"language,omitempty"`
	GoogleBooksID string   `json:"googleBooksId,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Notes         []Note   `json:"notes,omitempty"`
	Favorite      bool     `json:"favorite,omitempty"`

	ReadingProgress *ReadingProgress `json:"readingProgress,omitempty"`
	Review          *Review          `json:"review,omitempty"`

	DateAdded    time.Time  `json:"dateAdded"`
	DateStarted  *time.Time `json:"dateStarted,omitempty"`
	DateFinished *time.Time `json:"dateFinished,omitempty"`
}

// ReadingProgress tracks page position within a book.
type ReadingProgress struct {
	CurrentPage        int       `json:"currentPage"`
	TotalPages         int       `json:"totalPages"`
	ProgressPercentage int       `json:"progressPercentage"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

// Review is a user's rating and optional comment, replaced wholesale on update.
type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	DateAdded time.Time `json:"dateAdded"`
}

// Note is a free-form annotation, optionally anchored to a page.
type Note struct {
	Content   string    `json:"content"`
	Page      int       `json:"page,omitempty"`
	DateAdded time.Time `json:"dateAdded"`
}

// Recompute refreshes the derived percentage from current and total pages.
// Maintains progressPercentage == round(currentPage/totalPages*100) whenever
// totalPages is positive.
func (p *ReadingProgress) Recompute() {
	if p.TotalPages > 0 {
		p.ProgressPercentage = int(math.Round(float64(p.CurrentPage) / float64(p.TotalPages) * 100))
	}
}

// ApplyStatusChange applies the timestamp effects of a status transition.
// The goal counter delta is the caller's responsibility since the counter
// lives on the owning user, not the book.
func (b *Book) ApplyStatusChange(change StatusChange) {
	if change.SetDateStarted != nil {
		b.DateStarted = change.SetDateStarted
	}
	if change.SetDateFinished != nil {
		b.DateFinished = change.SetDateFinished
	}
	if change.ClearDateFinished {
		b.DateFinished = nil
	}
}

// FinishedIn reports whether the book was marked Read with a finish date
// falling inside the given UTC calendar year.
func (b *Book) FinishedIn(year int) bool {
	return b.Status == StatusRead && b.DateFinished != nil && b.DateFinished.UTC().Year() == year
}
