package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailsift/models"
	"mailsift/utils"
)

type TemplateController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTemplateController(db *gorm.DB, logger *log.Logger) *TemplateController {
	return &TemplateController{
		DB:     db,
		Logger: logger,
	}
}

type templateInput struct {
	Name        string `json:"name" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	HTMLContent string `json:"html_content" validate:"required"`
	TextContent string `json:"text_content"`
	Category    string `json:"category"`
}

// CreateTemplate stores a reusable email template.
func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	var input templateInput
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

	template := models.Template{
		Name:        input.Name,
		Subject:     input.Subject,
		HTMLContent: input.HTMLContent,
		TextContent: input.TextContent,
		Category:    input.Category,
	}
	if err := tc.DB.Create(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create template",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(template))
}

// GetTemplates returns all templates, optionally filtered by category.
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	query := tc.DB.Order("created_at DESC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var templates []models.Template
	if err := query.Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch templates",
		})
	}
	return c.JSON(utils.SuccessResponse(templates))
}

// GetTemplate returns a single template.
func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	var template models.Template
	if err := tc.DB.First(&template, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}
	return c.JSON(utils.SuccessResponse(template))
}

// UpdateTemplate replaces template fields that are present in the body.
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	var template models.Template
	if err := tc.DB.First(&template, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Template not found",
		})
	}

	var input struct {
		Name        *string `json:"name"`
		Subject     *string `json:"subject"`
		HTMLContent *string `json:"html_content"`
		TextContent *string `json:"text_content"`
		Category    *string `json:"category"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name != nil {
		template.Name = *input.Name
	}
	if input.Subject != nil {
		template.Subject = *input.Subject
	}
	if input.HTMLContent != nil {
		template.HTMLContent = *input.HTMLContent
	}
	if input.TextContent != nil {
		template.TextContent = *input.TextContent
	}
	if input.Category != nil {
		template.Category = *input.Category
	}

	if err := tc.DB.Save(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update template",
		})
	}
	return c.JSON(utils.SuccessResponse(template))
}

// DeleteTemplate removes a template unless a campaign still references it.
func (tc *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	templateID := utils.ParseUint(c.Params("id"))

	var inUse int64
	tc.DB.Model(&models.Campaign{}).Where("template_id = ?", templateID).Count(&inUse)
	if inUse > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Template is used by existing campaigns",
		})
	}

	if err := tc.DB.Delete(&models.Template{}, templateID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete template",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Template deleted successfully",
	})
}
