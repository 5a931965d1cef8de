package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailsift/models"
	"mailsift/utils"
)

type SettingsController struct {
	DB     *gorm.DB
	Mailer *utils.Mailer
	Logger *log.Logger
}

func NewSettingsController(db *gorm.DB, mailer *utils.Mailer, logger *log.Logger) *SettingsController {
	return &SettingsController{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

// GetSettings returns all stored settings as a flat key/value map.
func (sc *SettingsController) GetSettings(c *fiber.Ctx) error {
	var settings []models.Setting
	if err := sc.DB.Find(&settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch settings",
		})
	}

	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return c.JSON(utils.SuccessResponse(out))
}

// UpdateSettings upserts the provided key/value pairs.
func (sc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	var input map[string]string
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(input) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No settings provided",
		})
	}

	for key, value := range input {
		var setting models.Setting
		err := sc.DB.Where("key = ?", key).First(&setting).Error
		switch {
		case err == nil:
			setting.Value = value
			if err := sc.DB.Save(&setting).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to update setting",
				})
			}
		case err == gorm.ErrRecordNotFound:
			if err := sc.DB.Create(&models.Setting{Key: key, Value: value}).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to create setting",
				})
			}
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch setting",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Settings updated successfully",
	})
}

// SendTestEmail delivers a short message to verify the SMTP credentials.
func (sc *SettingsController) SendTestEmail(c *fiber.Ctx) error {
	var input struct {
		To string `json:"to" validate:"required,email"`
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

	err := sc.Mailer.Send("", "", input.To, "Test email",
		"<p>This is a test email confirming your sending configuration works.</p>",
		"This is a test email confirming your sending configuration works.")
	if err != nil {
		sc.Logger.Printf("test email to %s failed: %v", input.To, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to send test email",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Test email sent",
	})
}
