package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mailsift/models"
	"mailsift/sanitizer"
	"mailsift/utils"
)

type ListController struct {
	DB        *gorm.DB
	Sanitizer *sanitizer.Sanitizer
	Logger    *log.Logger
}

func NewListController(db *gorm.DB, s *sanitizer.Sanitizer, logger *log.Logger) *ListController {
	return &ListController{
		DB:        db,
		Sanitizer: s,
		Logger:    logger,
	}
}

// CreateList creates an empty recipient list.
func (lc *ListController) CreateList(c *fiber.Ctx) error {
	var input struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
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

	list := models.RecipientList{
		Name:        input.Name,
		Description: input.Description,
		Source:      "manual",
	}
	if err := lc.DB.Create(&list).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create list",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(list))
}

// GetLists returns all lists with their counters.
func (lc *ListController) GetLists(c *fiber.Ctx) error {
	var lists []models.RecipientList
	if err := lc.DB.Order("created_at DESC").Find(&lists).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch lists",
		})
	}
	return c.JSON(utils.SuccessResponse(lists))
}

// GetList returns a single list without its recipients.
func (lc *ListController) GetList(c *fiber.Ctx) error {
	var list models.RecipientList
	if err := lc.DB.First(&list, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}
	return c.JSON(utils.SuccessResponse(list))
}

// UpdateList changes the list name or description.
func (lc *ListController) UpdateList(c *fiber.Ctx) error {
	var list models.RecipientList
	if err := lc.DB.First(&list, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.Name != nil {
		list.Name = *input.Name
	}
	if input.Description != nil {
		list.Description = *input.Description
	}

	if err := lc.DB.Save(&list).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update list",
		})
	}
	return c.JSON(utils.SuccessResponse(list))
}

// DeleteList removes the list and its recipients.
func (lc *ListController) DeleteList(c *fiber.Ctx) error {
	listID := utils.ParseUint(c.Params("id"))

	tx := lc.DB.Begin()
	if err := tx.Where("list_id = ?", listID).Delete(&models.Recipient{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete recipients",
		})
	}
	if err := tx.Delete(&models.RecipientList{}, listID).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete list",
		})
	}
	tx.Commit()

	return c.JSON(fiber.Map{
		"message": "List deleted successfully",
	})
}

// ImportRecipients adds addresses to a list. The input is normalized and
// deduplicated before insert; suppressed addresses are skipped and the
// rest can optionally go through the full pipeline first.
func (lc *ListController) ImportRecipients(c *fiber.Ctx) error {
	var list models.RecipientList
	if err := lc.DB.First(&list, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	var input struct {
		sanitizeInput
		Source   string `json:"source"`
		Sanitize bool   `json:"sanitize"` // run the full pipeline before insert
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	addresses := input.addresses()
	if len(addresses) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No email addresses provided",
		})
	}
	if input.Source == "" {
		input.Source = "paste"
	}

	normalized := sanitizer.Normalize(addresses)
	unique, duplicates := sanitizer.Deduplicate(normalized, true)

	// Skip addresses already on the list.
	var existing []string
	lc.DB.Model(&models.Recipient{}).Where("list_id = ?", list.ID).Pluck("email", &existing)
	seen := make(map[string]struct{}, len(existing))
	for _, email := range existing {
		seen[email] = struct{}{}
	}

	// Skip globally suppressed addresses.
	var suppressed []string
	lc.DB.Model(&models.Suppression{}).Where("email IN ?", unique).Pluck("email", &suppressed)
	for _, email := range suppressed {
		seen[email] = struct{}{}
	}

	candidates := make([]string, 0, len(unique))
	skipped := 0
	for _, email := range unique {
		if _, ok := seen[email]; ok {
			skipped++
			continue
		}
		candidates = append(candidates, email)
	}

	imported, rejected := 0, 0
	recipients := make([]models.Recipient, 0, len(candidates))

	if input.Sanitize {
		results, err := lc.Sanitizer.Validate(c.UserContext(), candidates, input.options())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Sanitization failed",
			})
		}
		now := time.Now()
		for _, r := range results {
			recipient := models.Recipient{
				ListID: list.ID,
				Email:  r.Email,
				Source: input.Source,
			}
			if r.IsValid {
				recipient.Status = "active"
				recipient.VerifiedAt = &now
				imported++
			} else {
				recipient.Status = "invalid"
				recipient.StatusReason = r.Reason
				rejected++
			}
			recipients = append(recipients, recipient)
		}
	} else {
		for _, email := range candidates {
			recipients = append(recipients, models.Recipient{
				ListID: list.ID,
				Email:  email,
				Status: "active",
				Source: input.Source,
			})
			imported++
		}
	}

	if len(recipients) > 0 {
		if err := lc.DB.CreateInBatches(recipients, 100).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to import recipients",
			})
		}
	}

	lc.refreshListCounts(list.ID)
	lc.Logger.Printf("list %d import: %d added, %d rejected, %d skipped, %d duplicates",
		list.ID, imported, rejected, skipped, duplicates)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"imported":   imported,
		"rejected":   rejected,
		"skipped":    skipped,
		"duplicates": duplicates,
	}))
}

// GetRecipients returns the recipients of a list, paginated.
func (lc *ListController) GetRecipients(c *fiber.Ctx) error {
	listID := utils.ParseUint(c.Params("id"))
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	query := lc.DB.Model(&models.Recipient{}).Where("list_id = ?", listID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var recipients []models.Recipient
	if err := query.Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&recipients).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch recipients",
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  recipients,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// DeleteRecipient removes one address from a list.
func (lc *ListController) DeleteRecipient(c *fiber.Ctx) error {
	listID := utils.ParseUint(c.Params("id"))
	recipientID := utils.ParseUint(c.Params("recipientId"))

	result := lc.DB.Where("list_id = ?", listID).Delete(&models.Recipient{}, recipientID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete recipient",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Recipient not found",
		})
	}

	lc.refreshListCounts(listID)
	return c.JSON(fiber.Map{
		"message": "Recipient deleted successfully",
	})
}

func (lc *ListController) refreshListCounts(listID uint) {
	var total, active, bounced int64
	lc.DB.Model(&models.Recipient{}).Where("list_id = ?", listID).Count(&total)
	lc.DB.Model(&models.Recipient{}).Where("list_id = ? AND status = ?", listID, "active").Count(&active)
	lc.DB.Model(&models.Recipient{}).Where("list_id = ? AND status = ?", listID, "bounced").Count(&bounced)

	lc.DB.Model(&models.RecipientList{}).Where("id = ?", listID).Updates(map[string]interface{}{
		"recipient_count": total,
		"active_count":    active,
		"bounced_count":   bounced,
	})
}
