package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailsift/models"
	"mailsift/utils"
)

// transparentGIF is a 1x1 transparent pixel served for open tracking.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type TrackingController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTrackingController(db *gorm.DB, logger *log.Logger) *TrackingController {
	return &TrackingController{
		DB:     db,
		Logger: logger,
	}
}

// TrackOpen records an open event and serves the pixel. The pixel is served
// even when the token does not verify so broken tracking never breaks
// rendering; only the recording is skipped.
func (tc *TrackingController) TrackOpen(c *fiber.Ctx) error {
	campaignID := utils.ParseUint(c.Params("campaignID"))
	email := c.Query("e")
	token := c.Params("token")

	if campaignID != 0 && email != "" && utils.ValidTrackingToken(token, campaignID, email) {
		tc.recordEvent(campaignID, email, "open", "", c)
	}

	c.Set("Content-Type", "image/gif")
	c.Set("Cache-Control", "no-store")
	return c.Send(transparentGIF)
}

// TrackClick records a click event and redirects to the original URL. An
// unverifiable token is rejected outright; redirecting anyway would make
// this an open redirector.
func (tc *TrackingController) TrackClick(c *fiber.Ctx) error {
	campaignID := utils.ParseUint(c.Params("campaignID"))
	email := c.Query("e")
	target := c.Query("url")
	token := c.Params("token")

	if target == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing redirect URL",
		})
	}
	if campaignID == 0 || email == "" || !utils.ValidTrackingToken(token, campaignID, email) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tracking link",
		})
	}

	tc.recordEvent(campaignID, email, "click", target, c)
	return c.Redirect(target, fiber.StatusFound)
}

func (tc *TrackingController) recordEvent(campaignID uint, email, eventType, url string, c *fiber.Ctx) {
	event := models.CampaignEvent{
		CampaignID: campaignID,
		Email:      email,
		Type:       eventType,
		URL:        url,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}
	if err := tc.DB.Create(&event).Error; err != nil {
		tc.Logger.Printf("recording %s for campaign %d: %v", eventType, campaignID, err)
		return
	}

	column := "open_count"
	if eventType == "click" {
		column = "click_count"
	}
	tc.DB.Model(&models.Campaign{}).Where("id = ?", campaignID).
		Update(column, gorm.Expr(column+" + 1"))
}
