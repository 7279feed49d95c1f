package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a library search.
type Params struct {
	UserID string // Scope: only this user's books match
	Query  string // User's search text
	Limit  int
	Offset int
}

// Result is a page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"tookMs"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching book.
type Hit struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Title  string  `json:"title"`
	Author string  `json:"author,omitempty"`
}

// Search finds books in the user's library matching the query text.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	searchRequest.Fields = []string{"title", "author"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score}
		if title, ok := hit.Fields["title"].(string); ok {
			h.Title = title
		}
		if author, ok := hit.Fields["author"].(string); ok {
			h.Author = author
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildQuery scopes everything to the user, then matches the text against
// title and author with fuzzy and prefix fallbacks so partial queries and
// typos still hit.
func buildQuery(params Params) query.Query {
	userQuery := bleve.NewTermQuery(params.UserID)
	userQuery.SetField("user_id")

	text := strings.TrimSpace(params.Query)
	if text == "" {
		return userQuery
	}

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(text)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	descMatch := bleve.NewMatchQuery(text)
	descMatch.SetField("description")

	fuzzy := bleve.NewFuzzyQuery(text)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")

	prefix := bleve.NewPrefixQuery(strings.ToLower(text))
	prefix.SetField("title")

	textQuery := bleve.NewDisjunctionQuery(titleMatch, authorMatch, descMatch, fuzzy, prefix)

	return bleve.NewConjunctionQuery(userQuery, textQuery)
}
