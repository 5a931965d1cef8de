package controller

import (
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailsift/config"
	"mailsift/models"
	"mailsift/utils"
)

type CampaignController struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger
}

func NewCampaignController(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *CampaignController {
	return &CampaignController{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

// CreateCampaign creates a draft campaign bound to a template and a list.
func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	var input struct {
		Name        string `json:"name" validate:"required"`
		Subject     string `json:"subject" validate:"required"`
		Description string `json:"description"`
		PreviewText string `json:"preview_text"`
		FromName    string `json:"from_name"`
		FromEmail   string `json:"from_email" validate:"required"`
		TemplateID  uint   `json:"template_id" validate:"required"`
		ListID      uint   `json:"list_id" validate:"required"`
		TrackOpens  *bool  `json:"track_opens"`
		TrackClicks *bool  `json:"track_clicks"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := checkmail.ValidateFormat(input.FromEmail); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid from address",
		})
	}

	var template models.Template
	if err := cc.DB.First(&template, input.TemplateID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}
	var list models.RecipientList
	if err := cc.DB.First(&list, input.ListID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Recipient list not found",
		})
	}

	campaign := models.Campaign{
		Name:        input.Name,
		Subject:     input.Subject,
		Description: input.Description,
		PreviewText: input.PreviewText,
		FromName:    input.FromName,
		FromEmail:   input.FromEmail,
		TemplateID:  input.TemplateID,
		ListID:      input.ListID,
		Status:      "draft",
		TrackOpens:  true,
		TrackClicks: true,
	}
	if input.TrackOpens != nil {
		campaign.TrackOpens = *input.TrackOpens
	}
	if input.TrackClicks != nil {
		campaign.TrackClicks = *input.TrackClicks
	}

	if err := cc.DB.Create(&campaign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create campaign",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

// GetCampaigns returns all campaigns newest first.
func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	var campaigns []models.Campaign
	if err := cc.DB.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaigns",
		})
	}
	return c.JSON(utils.SuccessResponse(campaigns))
}

// GetCampaign returns a campaign with its template and list.
func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.Preload("Template").Preload("List").
		First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

// UpdateCampaign edits a draft. Campaigns that started sending are frozen.
func (cc *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	if campaign.Status != "draft" && campaign.Status != "scheduled" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Campaign can no longer be edited",
		})
	}

	var input struct {
		Name        *string `json:"name"`
		Subject     *string `json:"subject"`
		Description *string `json:"description"`
		PreviewText *string `json:"preview_text"`
		FromName    *string `json:"from_name"`
		FromEmail   *string `json:"from_email"`
		TemplateID  *uint   `json:"template_id"`
		ListID      *uint   `json:"list_id"`
		TrackOpens  *bool   `json:"track_opens"`
		TrackClicks *bool   `json:"track_clicks"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.FromEmail != nil {
		if err := checkmail.ValidateFormat(*input.FromEmail); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid from address",
			})
		}
		campaign.FromEmail = *input.FromEmail
	}
	if input.Name != nil {
		campaign.Name = *input.Name
	}
	if input.Subject != nil {
		campaign.Subject = *input.Subject
	}
	if input.Description != nil {
		campaign.Description = *input.Description
	}
	if input.PreviewText != nil {
		campaign.PreviewText = *input.PreviewText
	}
	if input.FromName != nil {
		campaign.FromName = *input.FromName
	}
	if input.TemplateID != nil {
		campaign.TemplateID = *input.TemplateID
	}
	if input.ListID != nil {
		campaign.ListID = *input.ListID
	}
	if input.TrackOpens != nil {
		campaign.TrackOpens = *input.TrackOpens
	}
	if input.TrackClicks != nil {
		campaign.TrackClicks = *input.TrackClicks
	}

	if err := cc.DB.Save(&campaign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update campaign",
		})
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

// DeleteCampaign removes a campaign that is not currently sending.
func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	if campaign.Status == "sending" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Campaign is currently sending",
		})
	}

	tx := cc.DB.Begin()
	if err := tx.Where("campaign_id = ?", campaign.ID).Delete(&models.CampaignEvent{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete campaign events",
		})
	}
	if err := tx.Delete(&campaign).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete campaign",
		})
	}
	tx.Commit()

	return c.JSON(fiber.Map{
		"message": "Campaign deleted successfully",
	})
}

// SendCampaign starts delivery to every active recipient of the bound list.
func (cc *CampaignController) SendCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.Preload("Template").First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	if campaign.Status != "draft" && campaign.Status != "scheduled" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Campaign already sent or sending",
		})
	}

	var recipients []models.Recipient
	if err := cc.DB.Where("list_id = ? AND status = ?", campaign.ListID, "active").
		Find(&recipients).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load recipients",
		})
	}
	if len(recipients) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "List has no active recipients",
		})
	}

	now := time.Now()
	cc.DB.Model(&campaign).Updates(map[string]interface{}{
		"status":           "sending",
		"started_at":       &now,
		"total_recipients": len(recipients),
	})

	go cc.deliver(campaign, recipients)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":    "Campaign delivery started",
		"recipients": len(recipients),
	})
}

// deliver fans the campaign out one recipient at a time. SES throttles per
// second on the SMTP interface, so sequential sending is deliberate.
func (cc *CampaignController) deliver(campaign models.Campaign, recipients []models.Recipient) {
	baseURL := config.AppConfig.TrackingBaseURL
	sent, failed := 0, 0

	for _, recipient := range recipients {
		html := campaign.Template.HTMLContent
		if campaign.TrackOpens {
			html = utils.InjectTracking(html, baseURL, campaign.ID, recipient.Email, campaign.TrackClicks)
		}

		err := cc.Mailer.Send(campaign.FromName, campaign.FromEmail,
			recipient.Email, campaign.Subject, html, campaign.Template.TextContent)
		if err != nil {
			cc.Logger.Printf("campaign %d: send to %s failed: %v", campaign.ID, recipient.Email, err)
			failed++
		} else {
			sent++
		}

		cc.DB.Model(&models.Campaign{}).Where("id = ?", campaign.ID).Updates(map[string]interface{}{
			"sent_count":   sent,
			"failed_count": failed,
		})
	}

	done := time.Now()
	cc.DB.Model(&models.Campaign{}).Where("id = ?", campaign.ID).Updates(map[string]interface{}{
		"status":       "sent",
		"completed_at": &done,
	})
	cc.Logger.Printf("campaign %d finished: %d sent, %d failed", campaign.ID, sent, failed)
}

// CancelCampaign marks a scheduled or draft campaign as canceled.
func (cc *CampaignController) CancelCampaign(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	if campaign.Status == "sent" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Campaign already sent",
		})
	}

	if err := cc.DB.Model(&campaign).Update("status", "canceled").Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel campaign",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Campaign canceled",
	})
}

// GetCampaignStats returns the denormalized counters plus derived rates.
func (cc *CampaignController) GetCampaignStats(c *fiber.Ctx) error {
	var campaign models.Campaign
	if err := cc.DB.First(&campaign, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}

	stats := fiber.Map{
		"status":           campaign.Status,
		"total_recipients": campaign.TotalRecipients,
		"sent":             campaign.SentCount,
		"failed":           campaign.FailedCount,
		"opens":            campaign.OpenCount,
		"clicks":           campaign.ClickCount,
		"bounces":          campaign.BounceCount,
	}
	if campaign.SentCount > 0 {
		stats["open_rate"] = float64(campaign.OpenCount) / float64(campaign.SentCount)
		stats["click_rate"] = float64(campaign.ClickCount) / float64(campaign.SentCount)
		stats["bounce_rate"] = float64(campaign.BounceCount) / float64(campaign.SentCount)
	}
	return c.JSON(utils.SuccessResponse(stats))
}
