package controller

import (
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailsift/config"
	"mailsift/utils"
)

// trackingTestApp wires the tracking routes over a nil DB: any recording
// attempt would dereference it, so the handlers must skip the database
// entirely on unverified tokens for these tests to pass.
func trackingTestApp() *fiber.App {
	tc := NewTrackingController(nil, log.New(io.Discard, "", 0))
	app := fiber.New()
	app.Get("/track/open/:campaignID/:token", tc.TrackOpen)
	app.Get("/track/click/:campaignID/:token", tc.TrackClick)
	return app
}

func TestTrackOpenForgedTokenServesPixelWithoutRecording(t *testing.T) {
	config.AppConfig.TrackingSecret = "test-secret"
	app := trackingTestApp()

	req := httptest.NewRequest("GET", "/track/open/7/forged-token?e=user%40example.com", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
}

func TestTrackClickForgedTokenRejected(t *testing.T) {
	config.AppConfig.TrackingSecret = "test-secret"
	app := trackingTestApp()

	req := httptest.NewRequest("GET",
		"/track/click/7/forged-token?e=user%40example.com&url=https%3A%2F%2Fexample.com", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTrackClickMissingURLRejected(t *testing.T) {
	config.AppConfig.TrackingSecret = "test-secret"
	app := trackingTestApp()

	link := utils.GenerateClickTrackURL("", 7, "user@example.com", "https://example.com")
	link = strings.SplitN(link, "&url=", 2)[0]

	req := httptest.NewRequest("GET", link, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
