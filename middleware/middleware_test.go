package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamreports/utils"
)

const secret = "test-secret"

func sessionApp(required, adminOnly bool) *fiber.App {
	app := fiber.New()
	app.Get("/", Session(secret, required), AdminOnly(adminOnly), func(c *fiber.Ctx) error {
		if claims := SessionClaims(c); claims != nil {
			return c.JSON(fiber.Map{"id": claims.TelegramID})
		}
		return c.JSON(fiber.Map{"id": 0})
	})
	return app
}

func bearer(t *testing.T, id int64, admin bool) string {
	t.Helper()
	token, err := utils.GenerateSessionToken(secret, time.Hour, id, admin)
	require.NoError(t, err)
	return "Bearer " + token
}

func status(t *testing.T, app *fiber.App, auth string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestSessionOptional(t *testing.T) {
	app := sessionApp(false, false)
	assert.Equal(t, fiber.StatusOK, status(t, app, ""))
	assert.Equal(t, fiber.StatusOK, status(t, app, bearer(t, 5, false)))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "Bearer garbage"))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "Token abc"))
}

func TestSessionRequired(t *testing.T) {
	app := sessionApp(true, false)
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, ""))
	assert.Equal(t, fiber.StatusOK, status(t, app, bearer(t, 5, false)))
}

func TestAdminOnly(t *testing.T) {
	app := sessionApp(true, true)
	assert.Equal(t, fiber.StatusForbidden, status(t, app, bearer(t, 5, false)))
	assert.Equal(t, fiber.StatusOK, status(t, app, bearer(t, 5, true)))

	open := sessionApp(false, false)
	assert.Equal(t, fiber.StatusOK, status(t, open, ""))
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSForOrigins([]string{"https://app.example"})))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://app.example")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3600", resp.Header.Get("Access-Control-Max-Age"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Get("/", RateLimiter("test", 2, nil), func(c *fiber.Ctx) error { return c.SendString("ok") })

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = status(t, app, "")
	}
	assert.Equal(t, []int{200, 200, fiber.StatusTooManyRequests}, codes)
}
