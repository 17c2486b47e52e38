package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postForm struct {
	Text       *string `json:"text" form:"text"`
	Group      *uint   `json:"group" form:"group"`
	ClearGroup bool    `json:"clear_group" form:"clear_group"`
}

// Index handles GET /
// @Summary Latest posts
// @Description Newest-first listing of every post, optionally filtered by text
// @Tags posts
// @Produce json
// @Param search query string false "Substring of the post text"
// @Param page query string false "Page number"
// @Success 200 {object} models.PostPage
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	search := c.Query("search")
	page, err := s.listing.Index(c.UserContext(), search, c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"search": search,
		"page":   page,
	})
}

// GroupPosts handles GET /group/:slug/
// @Summary Group posts
// @Tags groups
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query string false "Page number"
// @Success 200 {object} object{group=models.Group,page=models.PostPage}
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.groups.Page(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"group": group,
		"page":  page,
	})
}

// PostDetail handles GET /posts/:id/
// @Summary Post detail
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.authoring.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// CreatePost handles POST /create/
// @Summary Create a post
// @Description Accepts JSON or multipart with an optional "image" file
// @Tags posts
// @Accept json,mpfd
// @Param request body object{text=string,group=int} true "Post"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /create/ [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postForm
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	upload, err := readUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	in := service.CreatePostInput{
		ActorID: actorID(c),
		GroupID: req.Group,
		Image:   upload,
	}
	if req.Text != nil {
		in.Text = *req.Text
	}
	if _, err := s.authoring.CreatePost(c.UserContext(), in); err != nil {
		return respondError(c, err)
	}

	me, err := s.users.GetByID(c.UserContext(), in.ActorID)
	if err != nil {
		return respondError(c, err)
	}
	return seeOther(c, profileURL(me.Username))
}

// EditPost handles POST /posts/:id/edit/
// @Summary Edit a post
// @Description Only supplied fields change. Non-authors are redirected to the post unchanged.
// @Tags posts
// @Accept json,mpfd
// @Param id path int true "Post ID"
// @Param request body object{text=string,group=int,clear_group=bool} true "Changes"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/edit/ [post]
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req postForm
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	upload, err := readUpload(c)
	if err != nil {
		return respondError(c, err)
	}

	_, err = s.authoring.EditPost(c.UserContext(), service.EditPostInput{
		ActorID:    actorID(c),
		PostID:     id,
		Text:       req.Text,
		GroupID:    req.Group,
		ClearGroup: req.ClearGroup,
		Image:      upload,
	})
	if err != nil && !models.HasCode(err, models.CodeForbidden) {
		return respondError(c, err)
	}
	return seeOther(c, postURL(id))
}

// DeletePost handles POST /posts/:id/delete/
// @Summary Delete a post
// @Description Deletes the post and its comments. Non-authors are redirected to the post.
// @Tags posts
// @Param id path int true "Post ID"
// @Success 303
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/delete/ [post]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.authoring.DeletePost(c.UserContext(), actorID(c), id)
	switch {
	case models.HasCode(err, models.CodeForbidden):
		return seeOther(c, postURL(id))
	case err != nil:
		return respondError(c, err)
	}
	return seeOther(c, profileURL(post.Author.Username))
}

// AddComment handles POST /posts/:id/comment/
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text" form:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	_, err = s.authoring.CreateComment(c.UserContext(), service.CreateCommentInput{
		ActorID: actorID(c),
		PostID:  id,
		Text:    req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return seeOther(c, postURL(id))
}
