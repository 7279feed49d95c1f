package api

import (
	"net/http"

	"github.com/shelfmark/shelfmark-server/internal/http/response"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// handleGetCurrentUser returns the authenticated user record.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.userService.Get(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}

// handleGetProfile returns the user with their catalogue summary.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.userService.GetProfile(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, profile, s.logger)
}

// handleUpdateProfile applies a partial profile update.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	user, err := s.userService.UpdateProfile(r.Context(), getUserID(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}

// handleUploadAvatar accepts a multipart profile image.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	user, err := s.userService.UploadAvatar(r.Context(), getUserID(r.Context()), data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}

// handleGetDashboard returns the landing-page payload.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.statsService.Dashboard(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, dashboard, s.logger)
}
