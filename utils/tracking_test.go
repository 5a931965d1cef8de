package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mailsift/config"
)

func TestTrackingTokenRoundTrip(t *testing.T) {
	config.AppConfig.TrackingSecret = "test-secret"

	token := trackingToken(42, "user@example.com")
	assert.True(t, ValidTrackingToken(token, 42, "user@example.com"))
	assert.False(t, ValidTrackingToken(token, 43, "user@example.com"))
	assert.False(t, ValidTrackingToken(token, 42, "other@example.com"))
	assert.False(t, ValidTrackingToken("forged-token-value", 42, "user@example.com"))
	assert.False(t, ValidTrackingToken("", 42, "user@example.com"))
}

func TestTrackingTokenDependsOnSecret(t *testing.T) {
	config.AppConfig.TrackingSecret = "first"
	token := trackingToken(1, "user@example.com")

	config.AppConfig.TrackingSecret = "second"
	assert.False(t, ValidTrackingToken(token, 1, "user@example.com"))
}

func TestGenerateTrackingPixelURLCarriesValidToken(t *testing.T) {
	config.AppConfig.TrackingSecret = "test-secret"

	url := GenerateTrackingPixelURL("http://app.example", 7, "user@example.com")
	assert.Contains(t, url, "http://app.example/track/open/7/")
	assert.Contains(t, url, trackingToken(7, "user@example.com"))
	assert.Contains(t, url, "e=user%40example.com")
}

func TestInjectTrackingAddsPixel(t *testing.T) {
	config.AppConfig.TrackingSecret = "test-secret"

	out := InjectTracking("<p>hello</p>", "http://app.example", 7, "user@example.com", false)
	assert.Contains(t, out, "<p>hello</p>")
	assert.Contains(t, out, "/track/open/7/")
	assert.Contains(t, out, `width="1" height="1"`)
}

func TestInjectTrackingRewritesLinks(t *testing.T) {
	config.AppConfig.TrackingSecret = "test-secret"

	html := `<a href="https://example.com/offer">offer</a>`
	out := InjectTracking(html, "http://app.example", 7, "user@example.com", true)
	assert.Contains(t, out, "/track/click/7/")
	assert.Contains(t, out, "url=https%3A%2F%2Fexample.com%2Foffer")
	assert.NotContains(t, out, `href="https://example.com/offer"`)
}
