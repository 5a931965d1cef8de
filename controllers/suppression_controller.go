package controller

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailsift/models"
	"mailsift/utils"
)

type SuppressionController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSuppressionController(db *gorm.DB, logger *log.Logger) *SuppressionController {
	return &SuppressionController{
		DB:     db,
		Logger: logger,
	}
}

// GetSuppressions returns the global suppression list, paginated.
func (sc *SuppressionController) GetSuppressions(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	var total int64
	sc.DB.Model(&models.Suppression{}).Count(&total)

	var suppressions []models.Suppression
	if err := sc.DB.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&suppressions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch suppressions",
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  suppressions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// AddSuppression manually suppresses an address everywhere.
func (sc *SuppressionController) AddSuppression(c *fiber.Ctx) error {
	var input struct {
		Email  string `json:"email" validate:"required,email"`
		Reason string `json:"reason"`
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

	email := strings.ToLower(strings.TrimSpace(input.Email))
	suppression := models.Suppression{
		Email:  email,
		Reason: input.Reason,
		Source: "manual",
	}
	if err := sc.DB.Where("email = ?", email).FirstOrCreate(&suppression).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create suppression",
		})
	}

	sc.DB.Model(&models.Recipient{}).Where("LOWER(email) = ?", email).Updates(map[string]interface{}{
		"status":        "suppressed",
		"status_reason": "suppression list",
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(suppression))
}

// DeleteSuppression removes an address from the suppression list. Recipient
// statuses are left alone; re-import is the way back in.
func (sc *SuppressionController) DeleteSuppression(c *fiber.Ctx) error {
	result := sc.DB.Delete(&models.Suppression{}, utils.ParseUint(c.Params("id")))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete suppression",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Suppression not found",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Suppression removed",
	})
}

// GetBounces returns recorded bounces newest first.
func (sc *SuppressionController) GetBounces(c *fiber.Ctx) error {
	var bounces []models.Bounce
	if err := sc.DB.Order("created_at DESC").Limit(200).Find(&bounces).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch bounces",
		})
	}
	return c.JSON(utils.SuccessResponse(bounces))
}
