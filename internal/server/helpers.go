package server

import (
	"strings"

	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// parseListQuery reads page, page_size, search and sort query parameters.
// Bounds are normalised by the service.
func parseListQuery(c *fiber.Ctx) service.ListQuery {
	return service.ListQuery{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", service.DefaultPageSize),
		SortAsc:  strings.EqualFold(c.Query("sort"), "asc"),
	}
}

// respondError answers with the status that matches err's code.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// currentUser resolves the authenticated caller to their stored profile.
// Without a store the token subject stands in for the profile.
func (s *Server) currentUser(c *fiber.Ctx) (*models.User, error) {
	authID, ok := middleware.AuthID(c)
	if !ok {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	if s.store.Disabled {
		return &models.User{ID: authID, ExternalID: authID}, nil
	}
	return s.userService.FetchUser(c.UserContext(), authID)
}

func invalidBody(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
}
