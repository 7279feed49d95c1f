// Package search provides full-text search over a user's library using Bleve.
package search

import (
	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// BookDocument is the indexed representation of a book. Every document
// carries its owner's user ID so queries can be scoped to one library.
type BookDocument struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Genre       string   `json:"genre"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status"`
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping. Bleve would otherwise index Go field names.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":      d.ID,
		"user_id": d.UserID,
		"title":   d.Title,
		"author":  d.Author,
		"status":  d.Status,
	}

	if d.Genre != "" {
		m["genre"] = d.Genre
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}

	return m
}

// BookToDocument converts a domain Book to its indexed form.
func BookToDocument(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:          book.ID,
		UserID:      book.UserID,
		Title:       book.Title,
		Author:      book.Author,
		Genre:       book.Genre,
		Description: book.Description,
		Tags:        book.Tags,
		Status:      string(book.Status),
	}
}
