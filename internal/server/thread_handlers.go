package server

import (
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetThreads handles GET /api/threads
func (s *Server) GetThreads(c *fiber.Ctx) error {
	q := parseListQuery(c)
	page, err := s.threadService.FetchPosts(c.UserContext(), q.Page, q.PageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetThread handles GET /api/threads/:id
func (s *Server) GetThread(c *fiber.Ctx) error {
	thread, err := s.threadService.FetchThreadByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// CreateThread handles POST /api/threads
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req struct {
		Text        string `json:"text"`
		CommunityID string `json:"community_id,omitempty"`
		Path        string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	thread, err := s.threadService.CreateThread(c.UserContext(), service.CreateThreadInput{
		Text:        req.Text,
		AuthorID:    user.ID,
		CommunityID: req.CommunityID,
		Path:        req.Path,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(thread)
}

// CreateComment handles POST /api/threads/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	reply, err := s.threadService.AddComment(c.UserContext(), service.AddCommentInput{
		ThreadID: c.Params("id"),
		Text:     req.Text,
		AuthorID: user.ID,
		Path:     req.Path,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// DeleteThread handles DELETE /api/threads/:id?path=...
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	err = s.threadService.DeleteThread(c.UserContext(), service.DeleteThreadInput{
		ThreadID:    c.Params("id"),
		RequesterID: user.ID,
		Path:        c.Query("path"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Thread deleted"})
}
