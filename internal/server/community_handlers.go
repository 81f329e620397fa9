package server

import (
	"threads/internal/middleware"
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCommunities handles GET /api/communities
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	page, err := s.communityService.FetchCommunities(c.UserContext(), parseListQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// UpsertCommunity handles POST /api/communities
func (s *Server) UpsertCommunity(c *fiber.Ctx) error {
	var req struct {
		ID       string `json:"id"`
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
	community, err := s.communityService.UpsertCommunity(c.UserContext(), service.UpsertCommunityInput{
		ExternalID:        req.ID,
		Username:          req.Username,
		Name:              req.Name,
		Bio:               req.Bio,
		Image:             req.Image,
		CreatorExternalID: authID,
		Path:              req.Path,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// GetCommunityThreads handles GET /api/communities/:id/threads
func (s *Server) GetCommunityThreads(c *fiber.Ctx) error {
	posts, err := s.communityService.FetchCommunityPosts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// JoinCommunity handles POST /api/communities/:id/members
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	authID, _ := middleware.AuthID(c)
	community, err := s.communityService.AddMember(c.UserContext(), service.AddMemberInput{
		CommunityExternalID: c.Params("id"),
		UserExternalID:      authID,
		Path:                c.Query("path"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}
