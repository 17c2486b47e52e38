package server

import "github.com/gofiber/fiber/v2"

// ListGroups handles GET /groups/
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {array} models.Group
// @Router /groups/ [get]
func (s *Server) ListGroups(c *fiber.Ctx) error {
	groups, err := s.groups.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(groups)
}
