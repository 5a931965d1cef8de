package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"mailsift/config"
)

// trackingToken derives the token for a campaign/recipient pair from the
// configured tracking secret. Deterministic, so tracking hits can be
// verified without storing tokens.
func trackingToken(campaignID uint, email string) string {
	mac := hmac.New(sha256.New, []byte(config.AppConfig.TrackingSecret))
	fmt.Fprintf(mac, "%d:%s", campaignID, email)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))[:20]
}

// ValidTrackingToken reports whether token was minted for this
// campaign/recipient pair.
func ValidTrackingToken(token string, campaignID uint, email string) bool {
	return hmac.Equal([]byte(token), []byte(trackingToken(campaignID, email)))
}

// GenerateTrackingPixelURL generates a tracking pixel URL for email opens
func GenerateTrackingPixelURL(baseURL string, campaignID uint, email string) string {
	token := trackingToken(campaignID, email)
	return fmt.Sprintf("%s/track/open/%d/%s?e=%s", baseURL, campaignID, token, url.QueryEscape(email))
}

// GenerateClickTrackURL generates a tracked URL for links
func GenerateClickTrackURL(baseURL string, campaignID uint, email, originalURL string) string {
	token := trackingToken(campaignID, email)
	return fmt.Sprintf("%s/track/click/%d/%s?e=%s&url=%s",
		baseURL, campaignID, token, url.QueryEscape(email), url.QueryEscape(originalURL))
}

// InjectTracking adds an open pixel and rewrites links for click tracking
func InjectTracking(htmlContent, baseURL string, campaignID uint, email string, trackClicks bool) string {
	if trackClicks {
		htmlContent = injectClickTracking(htmlContent, baseURL, campaignID, email)
	}
	pixelURL := GenerateTrackingPixelURL(baseURL, campaignID, email)
	trackingPixel := fmt.Sprintf(`<img src="%s" alt="" width="1" height="1" style="display:none">`, pixelURL)
	return htmlContent + trackingPixel
}

func injectClickTracking(html, baseURL string, campaignID uint, email string) string {
	startTag := "<a href=\""
	endTag := "\""
	offset := 0

	for {
		startIdx := strings.Index(html[offset:], startTag)
		if startIdx == -1 {
			break
		}
		startIdx += offset + len(startTag)

		endIdx := strings.Index(html[startIdx:], endTag)
		if endIdx == -1 {
			break
		}
		endIdx += startIdx

		originalURL := html[startIdx:endIdx]
		trackedURL := GenerateClickTrackURL(baseURL, campaignID, email, originalURL)

		html = html[:startIdx] + trackedURL + html[endIdx:]
		offset = startIdx + len(trackedURL)
	}

	return html
}
