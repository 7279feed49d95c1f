package api

import (
	"net/http"

	"github.com/shelfmark/shelfmark-server/internal/http/response"
)

// handleMetadataSearch proxies a lookup to Google Books. Accepts either a
// free-text ?q= or a specific ?isbn=.
func (s *Server) handleMetadataSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if isbn := q.Get("isbn"); isbn != "" {
		results, err := s.metadataService.SearchByISBN(r.Context(), isbn)
		if err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		response.Success(w, results, s.logger)
		return
	}

	results, err := s.metadataService.Search(r.Context(), q.Get("q"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, results, s.logger)
}
