package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(Handler()))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "200"))

	resp, err := app.Test(httptest.NewRequest("GET", "/items/42", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "200"))
	assert.Equal(t, before+1, after)

	RecordOrderTransition("under_review", "completed")
	RecordOTPDelivery("sent")

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "maurigift_http_requests_total")
	assert.Contains(t, string(body), `maurigift_orders_transitions_total{from="under_review",to="completed"}`)
	assert.Contains(t, string(body), `maurigift_otp_deliveries_total{result="sent"}`)
}
