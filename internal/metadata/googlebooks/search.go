package googlebooks

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultLimit = 10

// SearchBooks searches Google Books for volumes matching the query.
func (c *Client) SearchBooks(ctx context.Context, query string) ([]BookResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", defaultLimit))
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	searchURL := c.baseURL + "/volumes?" + params.Encode()

	c.logger.Debug("searching Google Books",
		"query", query,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	var volumesResp volumesResponse
	if err := json.UnmarshalRead(resp.Body, &volumesResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	c.logger.Debug("Google Books search results",
		"query", query,
		"count", volumesResp.TotalItems,
	)

	results := make([]BookResult, 0, len(volumesResp.Items))
	for i := range volumesResp.Items {
		v := &volumesResp.Items[i]
		if v.VolumeInfo.Title == "" {
			continue
		}
		results = append(results, volumeToResult(v))
	}

	return results, nil
}

// SearchByISBN looks up a specific book by ISBN.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) ([]BookResult, error) {
	isbn = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, isbn)
	return c.SearchBooks(ctx, "isbn:"+isbn)
}

// SearchByTitleAndAuthor searches using field prefixes for better matching.
func (c *Client) SearchByTitleAndAuthor(ctx context.Context, title, author string) ([]BookResult, error) {
	query := "intitle:" + strings.TrimSpace(title)
	if author != "" {
		query = query + " inauthor:" + strings.TrimSpace(author)
	}
	return c.SearchBooks(ctx, query)
}

// volumeToResult flattens a raw volume into a BookResult.
func volumeToResult(v *volume) BookResult {
	info := &v.VolumeInfo

	result := BookResult{
		ID:            v.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		Language:      info.Language,
	}

	for _, ident := range info.IndustryIdentifiers {
		switch ident.Type {
		case "ISBN_10":
			result.ISBN10 = ident.Identifier
		case "ISBN_13":
			result.ISBN13 = ident.Identifier
		}
	}

	coverURL := info.ImageLinks.Thumbnail
	if coverURL == "" {
		coverURL = info.ImageLinks.SmallThumbnail
	}
	// Google serves http URLs by default; upgrade to https.
	result.CoverURL = strings.Replace(coverURL, "http://", "https://", 1)

	return result
}
