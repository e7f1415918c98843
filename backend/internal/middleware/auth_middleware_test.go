package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cryptodesk/backend/internal/auth"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", Protected(), func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uuid.UUID)
		return c.SendString(userID.String())
	})
	app.Get("/optional", OptionalAuth(), func(c *fiber.Ctx) error {
		if userID, ok := c.Locals("userID").(uuid.UUID); ok {
			return c.SendString(userID.String())
		}
		return c.SendString("anonymous")
	})
	return app
}

func TestProtectedRejectsMissingHeader(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRejectsMalformedHeader(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedAcceptsValidToken(t *testing.T) {
	app := newTestApp()
	userID := uuid.New()
	token, err := auth.GenerateJWT(userID, "ada")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, userID.String(), string(body))
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "anonymous", string(body))
}

func TestOptionalAuthResolvesIdentityWhenPresent(t *testing.T) {
	app := newTestApp()
	userID := uuid.New()
	token, err := auth.GenerateJWT(userID, "ada")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, userID.String(), string(body))
}
