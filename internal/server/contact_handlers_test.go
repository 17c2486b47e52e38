package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"inkwell/internal/featureflags"
	"inkwell/internal/mail"
	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock of mail.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func TestSendContact(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	sender := new(MockSender)
	env.srv.UseMailSender(sender)

	sender.On("Send", mock.Anything, mock.MatchedBy(func(m mail.Message) bool {
		return m.From == "leo@example.com" && m.Subject == "Hello" &&
			len(m.To) == 1 && m.To[0] == "support@inkwell.local"
	})).Return(nil).Once()

	resp := env.do(http.MethodPost, "/contact/", fiber.Map{"subject": "Hello", "message": "Lovely site"}, env.token(user))
	assertRedirect(t, resp, "/contact/success")
	sender.AssertExpectations(t)
}

func TestSendContact_Failures(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	token := env.token(user)

	t.Run("header injection is 422", func(t *testing.T) {
		sender := new(MockSender)
		env.srv.UseMailSender(sender)

		resp := env.do(http.MethodPost, "/contact/", fiber.Map{"subject": "Hi\nBcc: x@example.com", "message": "m"}, token)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		var body models.ErrorResponse
		decodeJSON(t, resp, &body)
		assert.Equal(t, service.ContactFailedMessage, body.Error)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("smtp failure is 502", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("dial tcp: refused"))
		env.srv.UseMailSender(sender)

		resp := env.do(http.MethodPost, "/contact/", fiber.Map{"subject": "Hi", "message": "m"}, token)
		assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	})

	t.Run("missing message is 400", func(t *testing.T) {
		resp := env.do(http.MethodPost, "/contact/", fiber.Map{"subject": "Hi"}, token)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("anonymous is 401", func(t *testing.T) {
		resp := env.do(http.MethodPost, "/contact/", fiber.Map{"subject": "Hi", "message": "m"}, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestContactPages(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")

	assert.Equal(t, fiber.StatusOK, env.do(http.MethodGet, "/contact/", nil, env.token(user)).StatusCode)
	assert.Equal(t, fiber.StatusOK, env.do(http.MethodGet, "/contact/success", nil, "").StatusCode)
}

func TestContactFlagOff(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.FeatureFlags = "contact_form=off"
	env := newTestEnvWith(t, cfg, nil)
	user := testutil.CreateUser(t, env.db, "leo")

	resp := env.do(http.MethodPost, "/contact/", fiber.Map{"subject": "Hi", "message": "m"}, env.token(user))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, env.do(http.MethodGet, "/contact/success", nil, "").StatusCode)
}

func TestContactRollout_SuccessPageFollowsUser(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.FeatureFlags = "contact_form=50%"
	env := newTestEnvWith(t, cfg, nil)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	var included *models.User
	for i := range 20 {
		u := testutil.CreateUser(t, env.db, fmt.Sprintf("reader%d", i))
		if flags.Enabled(FlagContactForm, u.ID) {
			included = u
			break
		}
	}
	require.NotNil(t, included, "no user landed in the rollout")
	token := env.token(included)

	assert.Equal(t, fiber.StatusOK, env.do(http.MethodGet, "/contact/", nil, token).StatusCode)
	assert.Equal(t, fiber.StatusOK, env.do(http.MethodGet, "/contact/success", nil, token).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, env.do(http.MethodGet, "/contact/success", nil, "").StatusCode)
}
