package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/mail"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderStub struct {
	sent []mail.Message
	err  error
}

func (s *senderStub) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestContactService_Send(t *testing.T) {
	t.Parallel()
	sender := &senderStub{}
	svc := NewContactService(noopUserRepo(), sender, "support@inkwell.local")

	err := svc.Send(context.Background(), ContactInput{ActorID: 4, Subject: " Hello ", Message: "Nice site"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "someone@example.com", msg.From)
	assert.Equal(t, []string{"support@inkwell.local"}, msg.To)
	assert.Equal(t, "Hello", msg.Subject)
	assert.Equal(t, "Nice site", msg.Body)
}

func TestContactService_Send_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()
		svc := NewContactService(noopUserRepo(), &senderStub{}, "ops@example.com")
		assertValidationError(t, svc.Send(ctx, ContactInput{ActorID: 1, Subject: "hi"}))
		assertValidationError(t, svc.Send(ctx, ContactInput{ActorID: 1, Message: "body"}))
	})

	t.Run("header injection", func(t *testing.T) {
		t.Parallel()
		sender := &senderStub{}
		svc := NewContactService(noopUserRepo(), sender, "ops@example.com")
		err := svc.Send(ctx, ContactInput{ActorID: 1, Subject: "hi\r\nBcc: victim@example.com", Message: "body"})
		assertCode(t, err, models.CodeExternal)
		assert.ErrorIs(t, err, mail.ErrBadHeader)
		assert.Empty(t, sender.sent)
	})

	t.Run("smtp failure", func(t *testing.T) {
		t.Parallel()
		svc := NewContactService(noopUserRepo(), &senderStub{err: errors.New("connection refused")}, "ops@example.com")
		err := svc.Send(ctx, ContactInput{ActorID: 1, Subject: "hi", Message: "body"})
		assertCode(t, err, models.CodeExternal)
		assert.NotErrorIs(t, err, mail.ErrBadHeader)
		assert.Equal(t, ContactFailedMessage, err.(*models.AppError).Message)
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		svc := NewContactService(noopUserRepo(), &senderStub{}, "ops@example.com")
		assertCode(t, svc.Send(ctx, ContactInput{Subject: "hi", Message: "body"}), models.CodeUnauthorized)
	})
}
