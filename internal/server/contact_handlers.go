package server

import (
	"errors"

	"inkwell/internal/mail"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// contactEnabled hides the contact pages when the contact_form flag is off.
func (s *Server) contactEnabled(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(FlagContactForm, actorID(c)) {
		return s.NotFound(c)
	}
	return c.Next()
}

// ContactForm handles GET /contact/
// @Summary Contact form description
// @Tags contact
// @Produce json
// @Success 200 {object} object{fields=[]string}
// @Security BearerAuth
// @Router /contact/ [get]
func (s *Server) ContactForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"fields": []string{"subject", "message"},
	})
}

// SendContact handles POST /contact/
// @Summary Send a message to the site operators
// @Tags contact
// @Accept json
// @Param request body object{subject=string,message=string} true "Message"
// @Success 303
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /contact/ [post]
func (s *Server) SendContact(c *fiber.Ctx) error {
	var req struct {
		Subject string `json:"subject" form:"subject"`
		Message string `json:"message" form:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err := s.contact.Send(c.UserContext(), service.ContactInput{
		ActorID: actorID(c),
		Subject: req.Subject,
		Message: req.Message,
	})
	switch {
	case errors.Is(err, mail.ErrBadHeader):
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity, err)
	case err != nil:
		return respondError(c, err)
	}
	return seeOther(c, "/contact/success")
}

// ContactSuccess handles GET /contact/success
// @Summary Contact confirmation
// @Tags contact
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /contact/success [get]
func (s *Server) ContactSuccess(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Thank you, your message has been sent."})
}
