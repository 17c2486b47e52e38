package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Profile handles GET /profile/:username/
// @Summary Author profile
// @Description Posts by the author plus follower counts. "following" describes the caller.
// @Tags profiles
// @Produce json
// @Param username path string true "Username"
// @Param page query string false "Page number"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	profile, err := s.profiles.Get(c.UserContext(), c.Params("username"), actorID(c), c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// FollowIndex handles GET /follow/
// @Summary Personal feed
// @Description Posts by every author the caller follows
// @Tags follows
// @Produce json
// @Param page query string false "Page number"
// @Success 200 {object} models.PostPage
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.follows.Feed(c.UserContext(), actorID(c), c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"page": page})
}

// ProfileFollow handles GET and POST /profile/:username/follow/
// @Summary Follow an author
// @Description Following yourself or someone already followed changes nothing
// @Tags follows
// @Param username path string true "Username"
// @Success 303
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/{username}/follow/ [post]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := c.Params("username")
	_, err := s.follows.Follow(c.UserContext(), actorID(c), username)
	if err != nil && !models.HasCode(err, models.CodeValidation) {
		return respondError(c, err)
	}
	return seeOther(c, profileURL(username))
}

// ProfileUnfollow handles GET and POST /profile/:username/unfollow/
// @Summary Unfollow an author
// @Description Redirects back to the referring page, or to the profile
// @Tags follows
// @Param username path string true "Username"
// @Success 303
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/{username}/unfollow/ [post]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := s.follows.Unfollow(c.UserContext(), actorID(c), username); err != nil {
		return respondError(c, err)
	}
	return seeOther(c, backURL(c, profileURL(username)))
}
