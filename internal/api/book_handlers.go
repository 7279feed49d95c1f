package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark-server/internal/http/response"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// handleListBooks returns a page of the caller's catalogue.
// Query parameters: status, genre, favorite, search, cursor, limit.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	q := r.URL.Query()

	req := service.ListBooksRequest{
		Status:   q.Get("status"),
		Genre:    q.Get("genre"),
		Favorite: q.Get("favorite") == "true",
		Search:   q.Get("search"),
		Cursor:   q.Get("cursor"),
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			req.Limit = limit
		}
	}

	result, err := s.bookService.List(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

// handleCreateBook adds a book to the caller's catalogue.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())

	var req service.CreateBookRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	book, err := s.bookService.Create(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleGetBook returns a single book.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	book, err := s.bookService.Get(r.Context(), userID, bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleUpdateBook applies a partial update, including status changes.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	var req service.UpdateBookRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	book, err := s.bookService.Update(r.Context(), userID, bookID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleDeleteBook removes a book and its cover.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	if err := s.bookService.Delete(r.Context(), userID, bookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleUpdateProgress moves the bookmark.
func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	var req struct {
		CurrentPage int `json:"currentPage"`
	}
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	book, err := s.bookService.UpdateProgress(r.Context(), userID, bookID, req.CurrentPage)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleAddReview sets the book's review.
func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	var req service.ReviewRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	book, err := s.bookService.AddReview(r.Context(), userID, bookID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleUploadCover accepts a multipart cover image for a book.
func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	data, err := readUpload(r)
	if err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	book, err := s.bookService.UploadCover(r.Context(), userID, bookID, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleGetStats returns the combined statistics payload.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())

	overview, err := s.statsService.Overview(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, overview, s.logger)
}
