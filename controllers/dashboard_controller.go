package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailsift/models"
	"mailsift/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

// GetDashboard aggregates top-level counters for the overview page.
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	var lists, recipients, activeRecipients int64
	dc.DB.Model(&models.RecipientList{}).Count(&lists)
	dc.DB.Model(&models.Recipient{}).Count(&recipients)
	dc.DB.Model(&models.Recipient{}).Where("status = ?", "active").Count(&activeRecipients)

	var campaigns, sentCampaigns int64
	dc.DB.Model(&models.Campaign{}).Count(&campaigns)
	dc.DB.Model(&models.Campaign{}).Where("status = ?", "sent").Count(&sentCampaigns)

	var jobs, runningJobs int64
	dc.DB.Model(&models.SanitizationJob{}).Count(&jobs)
	dc.DB.Model(&models.SanitizationJob{}).
		Where("status IN ?", []string{"pending", "processing"}).Count(&runningJobs)

	var suppressions, bounces int64
	dc.DB.Model(&models.Suppression{}).Count(&suppressions)
	dc.DB.Model(&models.Bounce{}).Count(&bounces)

	type counters struct {
		Sent   int64
		Opens  int64
		Clicks int64
	}
	var totals counters
	dc.DB.Model(&models.Campaign{}).
		Select("COALESCE(SUM(sent_count),0) as sent, COALESCE(SUM(open_count),0) as opens, COALESCE(SUM(click_count),0) as clicks").
		Scan(&totals)

	var recentJobs []models.SanitizationJob
	dc.DB.Order("created_at DESC").Limit(5).Find(&recentJobs)

	var recentCampaigns []models.Campaign
	dc.DB.Order("created_at DESC").Limit(5).Find(&recentCampaigns)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"lists": fiber.Map{
			"total":             lists,
			"recipients":        recipients,
			"active_recipients": activeRecipients,
		},
		"campaigns": fiber.Map{
			"total":  campaigns,
			"sent":   sentCampaigns,
			"emails": totals.Sent,
			"opens":  totals.Opens,
			"clicks": totals.Clicks,
		},
		"sanitization": fiber.Map{
			"jobs":        jobs,
			"running":     runningJobs,
			"recent_jobs": recentJobs,
		},
		"deliverability": fiber.Map{
			"bounces":      bounces,
			"suppressions": suppressions,
		},
		"recent_campaigns": recentCampaigns,
	}))
}
