package server

import (
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users. The caller is left out of the results.
func (s *Server) GetUsers(c *fiber.Ctx) error {
	authID, _ := middleware.AuthID(c)
	page, err := s.userService.FetchUsers(c.UserContext(), service.FetchUsersInput{
		ExcludeExternalID: authID,
		ListQuery:         parseListQuery(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	authID, _ := middleware.AuthID(c)
	user, err := s.userService.FetchUser(c.UserContext(), authID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Bio      string `json:"bio"`
		Image    string `json:"image"`
		Path     string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	authID, _ := middleware.AuthID(c)
	user, err := s.userService.UpdateUser(c.UserContext(), service.UpdateUserInput{
		ExternalID: authID,
		Username:   req.Username,
		Name:       req.Name,
		Bio:        req.Bio,
		Image:      req.Image,
		Path:       req.Path,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.FetchUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserThreads handles GET /api/users/:id/threads
func (s *Server) GetUserThreads(c *fiber.Ctx) error {
	posts, err := s.userService.FetchUserPosts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetUserActivity handles GET /api/users/:id/activity. Only the user may read
// their own activity.
func (s *Server) GetUserActivity(c *fiber.Ctx) error {
	authID, _ := middleware.AuthID(c)
	if c.Params("id") != authID {
		return respondError(c, models.NewUnauthorizedError("Activity is only visible to its owner"))
	}

	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	activity, err := s.threadService.GetActivity(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activity)
}
