package service

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/internal/mail"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// ContactFailedMessage is shown whenever a contact message could not be sent.
const ContactFailedMessage = "Failed to send message"

type ContactInput struct {
	ActorID uint
	Subject string
	Message string
}

// ContactService mails site feedback from signed-in users to the operators.
type ContactService struct {
	users     repository.UserRepository
	sender    mail.Sender
	recipient string
}

func NewContactService(users repository.UserRepository, sender mail.Sender, recipient string) *ContactService {
	return &ContactService{users: users, sender: sender, recipient: recipient}
}

// Send delivers the message with the actor's email as sender. Header
// injection in the subject and SMTP failures both come back as external
// errors; errors.Is(err, mail.ErrBadHeader) tells them apart.
func (s *ContactService) Send(ctx context.Context, in ContactInput) error {
	if in.ActorID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	subject, err := validation.RequiredText("subject", in.Subject, validation.SubjectMaxLength)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	body, err := validation.RequiredText("message", in.Message, validation.MessageMaxLength)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	// Surrounding whitespace is trimmed; a break inside the subject is injection.
	if validation.HasHeaderBreak(subject) {
		observability.ContactMessages.WithLabelValues("rejected").Inc()
		return models.NewExternalError(ContactFailedMessage, mail.ErrBadHeader)
	}

	user, err := s.users.GetByID(ctx, in.ActorID)
	if err != nil {
		return err
	}

	err = s.sender.Send(ctx, mail.Message{
		From:    user.Email,
		To:      []string{s.recipient},
		Subject: subject,
		Body:    body,
	})
	switch {
	case errors.Is(err, mail.ErrBadHeader):
		observability.ContactMessages.WithLabelValues("rejected").Inc()
		return models.NewExternalError(ContactFailedMessage, err)
	case err != nil:
		observability.ContactMessages.WithLabelValues("failed").Inc()
		middleware.Logger.ErrorContext(ctx, "contact message failed", slog.String("error", err.Error()))
		return models.NewExternalError(ContactFailedMessage, err)
	}
	observability.ContactMessages.WithLabelValues("sent").Inc()
	return nil
}
