package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nothingmachine/chat-backend/internal/profile"
)

// ProfileResponse wraps the stored profile; Profile is null when none is
// set or the profile store is unconfigured.
type ProfileResponse struct {
	Profile *profile.Profile `json:"profile"`
}

// GetProfile returns the stored user profile.
func (s *Server) GetProfile(c echo.Context) error {
	p, err := s.profiles.Get(c.Request().Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to get profile")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get profile"})
	}
	return c.JSON(http.StatusOK, ProfileResponse{Profile: p})
}

// PutProfile stores the user profile.
func (s *Server) PutProfile(c echo.Context) error {
	var p profile.Profile
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if err := s.profiles.Set(c.Request().Context(), p); err != nil {
		s.logger.WithError(err).Error("failed to save profile")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save profile"})
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

// DeleteProfile clears the stored user profile.
func (s *Server) DeleteProfile(c echo.Context) error {
	if err := s.profiles.Clear(c.Request().Context()); err != nil {
		s.logger.WithError(err).Error("failed to clear profile")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to clear profile"})
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
