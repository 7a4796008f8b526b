package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/goadmin/pkg/errors"
	"github.com/goadmin/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, app *fiber.App, method, path string) *response.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var r response.Response
	require.NoError(t, json.Unmarshal(body, &r))
	return &r
}

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	app := fiber.New()
	app.Post("/login", rl.Middleware(), func(c *fiber.Ctx) error {
		return response.Success(c, nil)
	})

	// 突发容量内放行
	for i := 0; i < 2; i++ {
		r := doRequest(t, app, "POST", "/login")
		assert.Equal(t, response.CodeSuccess, r.Code)
	}

	// 令牌耗尽后限流
	r := doRequest(t, app, "POST", "/login")
	assert.Equal(t, 429, r.Code)
}

func TestErrorHandlerMapsAppError(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandler())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return errors.NotFound("菜单")
	})

	r := doRequest(t, app, "GET", "/missing")

	assert.Equal(t, 404, r.Code)
	assert.Equal(t, "菜单不存在", r.Message)
}

func TestErrorHandlerMasksUnknownError(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandler())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fmt.Errorf("dial tcp: connection refused")
	})

	r := doRequest(t, app, "GET", "/boom")

	assert.Equal(t, 500, r.Code)
	assert.Equal(t, "服务器内部错误", r.Message)
}

func TestRequestIDGenerated(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return response.Success(c, nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}
