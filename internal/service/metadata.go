package service

import (
	"context"
	"fmt"
	"log/slog"

	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/metadata/googlebooks"
)

// MetadataService looks up book descriptors from Google Books for
// prefilling the add-book form. Lookup failures never affect the
// catalogue itself.
type MetadataService struct {
	client *googlebooks.Client
	logger *slog.Logger
}

// NewMetadataService creates a new metadata lookup service.
func NewMetadataService(client *googlebooks.Client, logger *slog.Logger) *MetadataService {
	return &MetadataService{
		client: client,
		logger: logger,
	}
}

// Search runs a free-text query against Google Books.
func (s *MetadataService) Search(ctx context.Context, query string) ([]googlebooks.BookResult, error) {
	if query == "" {
		return nil, domainerrors.Validation("q is required")
	}

	results, err := s.client.SearchBooks(ctx, query)
	if err != nil {
		s.logger.Warn("metadata search failed", "query", query, "error", err)
		return nil, fmt.Errorf("metadata search: %w", err)
	}

	return results, nil
}

// SearchByISBN looks up a specific volume by ISBN.
func (s *MetadataService) SearchByISBN(ctx context.Context, isbn string) ([]googlebooks.BookResult, error) {
	if isbn == "" {
		return nil, domainerrors.Validation("isbn is required")
	}

	results, err := s.client.SearchByISBN(ctx, isbn)
	if err != nil {
		s.logger.Warn("metadata ISBN lookup failed", "isbn", isbn, "error", err)
		return nil, fmt.Errorf("metadata search: %w", err)
	}

	return results, nil
}
