package controller

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/likexian/whois"
	"gorm.io/gorm"

	"mailsift/models"
	"mailsift/sanitizer"
	"mailsift/utils"
)

// jobChunkSize is how many addresses are classified between progress writes.
const jobChunkSize = 500

type SanitizerController struct {
	DB        *gorm.DB
	Sanitizer *sanitizer.Sanitizer
	Logger    *log.Logger
}

func NewSanitizerController(db *gorm.DB, s *sanitizer.Sanitizer, logger *log.Logger) *SanitizerController {
	return &SanitizerController{
		DB:        db,
		Sanitizer: s,
		Logger:    logger,
	}
}

type sanitizeInput struct {
	Emails  []string `json:"emails"`
	Text    string   `json:"text"` // raw pasted block, alternative to emails
	Options *struct {
		CheckFormat      *bool `json:"check_format"`
		CheckDisposable  *bool `json:"check_disposable"`
		CheckMX          *bool `json:"check_mx"`
		RemoveDuplicates *bool `json:"remove_duplicates"`
	} `json:"options"`
}

func (in *sanitizeInput) addresses() []string {
	if len(in.Emails) > 0 {
		return in.Emails
	}
	return sanitizer.NormalizeText(in.Text)
}

func (in *sanitizeInput) options() sanitizer.Options {
	opts := sanitizer.DefaultOptions()
	if in.Options == nil {
		return opts
	}
	if in.Options.CheckFormat != nil {
		opts.CheckFormat = *in.Options.CheckFormat
	}
	if in.Options.CheckDisposable != nil {
		opts.CheckDisposable = *in.Options.CheckDisposable
	}
	if in.Options.CheckMX != nil {
		opts.CheckMX = *in.Options.CheckMX
	}
	if in.Options.RemoveDuplicates != nil {
		opts.RemoveDuplicates = *in.Options.RemoveDuplicates
	}
	return opts
}

// Sanitize runs the pipeline synchronously and returns the full report.
// Meant for small pasted lists; large imports should go through jobs.
func (sc *SanitizerController) Sanitize(c *fiber.Ctx) error {
	var input sanitizeInput
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

	report, err := sc.Sanitizer.Sanitize(c.UserContext(), addresses, input.options())
	if err != nil {
		sc.Logger.Printf("sanitize failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Sanitization failed",
		})
	}

	return c.JSON(utils.SuccessResponse(report))
}

// CheckEmail classifies a single address, including the inconclusive-MX
// caveat that the batch report folds into the valid partition.
func (sc *SanitizerController) CheckEmail(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email" validate:"required"`
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

	result, err := sc.Sanitizer.Classify(c.UserContext(), input.Email, sanitizer.DefaultOptions())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Verification failed",
		})
	}

	return c.JSON(utils.SuccessResponse(result))
}

// CreateJob stores a sanitization job and processes it in the background.
func (sc *SanitizerController) CreateJob(c *fiber.Ctx) error {
	var input struct {
		sanitizeInput
		Name   string `json:"name"`
		ListID *uint  `json:"list_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	addresses := input.addresses()
	if input.ListID != nil {
		var list models.RecipientList
		if err := sc.DB.First(&list, *input.ListID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Recipient list not found",
			})
		}
		addresses = nil
		if err := sc.DB.Model(&models.Recipient{}).
			Where("list_id = ?", list.ID).
			Pluck("email", &addresses).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load recipients",
			})
		}
	}
	if len(addresses) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No email addresses provided",
		})
	}

	opts := input.options()
	job := models.SanitizationJob{
		Name:             input.Name,
		ListID:           input.ListID,
		Status:           "pending",
		CheckFormat:      opts.CheckFormat,
		CheckDisposable:  opts.CheckDisposable,
		CheckMX:          opts.CheckMX,
		RemoveDuplicates: opts.RemoveDuplicates,
	}
	if job.Name == "" {
		job.Name = fmt.Sprintf("Sanitization %s", time.Now().Format("2006-01-02 15:04"))
	}
	if err := sc.DB.Create(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create job",
		})
	}

	go sc.processJob(job.ID, addresses, opts)

	return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse(job))
}

// CleanList starts a sanitization job over every address on a stored list
// and flags failing recipients when it completes.
func (sc *SanitizerController) CleanList(c *fiber.Ctx) error {
	listID := utils.ParseUint(c.Params("id"))

	var list models.RecipientList
	if err := sc.DB.First(&list, listID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Recipient list not found",
		})
	}

	var addresses []string
	if err := sc.DB.Model(&models.Recipient{}).
		Where("list_id = ?", list.ID).
		Pluck("email", &addresses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load recipients",
		})
	}
	if len(addresses) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "List has no recipients",
		})
	}

	opts := sanitizer.DefaultOptions()
	job := models.SanitizationJob{
		Name:             fmt.Sprintf("Clean %s", list.Name),
		ListID:           &list.ID,
		Status:           "pending",
		CheckFormat:      opts.CheckFormat,
		CheckDisposable:  opts.CheckDisposable,
		CheckMX:          opts.CheckMX,
		RemoveDuplicates: opts.RemoveDuplicates,
	}
	if err := sc.DB.Create(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create job",
		})
	}

	go sc.processJob(job.ID, addresses, opts)

	return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse(job))
}

// processJob runs the pipeline in chunks so progress is visible while a
// large list is still being classified.
func (sc *SanitizerController) processJob(jobID uint, raw []string, opts sanitizer.Options) {
	ctx := context.Background()

	normalized := sanitizer.Normalize(raw)
	unique, duplicates := sanitizer.Deduplicate(normalized, opts.RemoveDuplicates)

	now := time.Now()
	sc.DB.Model(&models.SanitizationJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":          "processing",
		"started_at":      &now,
		"total_count":     len(normalized),
		"duplicate_count": duplicates,
	})

	valid, invalid := 0, 0
	for start := 0; start < len(unique); start += jobChunkSize {
		end := start + jobChunkSize
		if end > len(unique) {
			end = len(unique)
		}

		results, err := sc.Sanitizer.Validate(ctx, unique[start:end], opts)
		if err != nil {
			sc.failJob(jobID, err)
			return
		}

		entries := make([]models.SanitizationEntry, 0, len(results))
		for _, r := range results {
			if r.IsValid {
				valid++
			} else {
				invalid++
			}
			entries = append(entries, models.SanitizationEntry{
				JobID:   jobID,
				Email:   r.Email,
				IsValid: r.IsValid,
				Reason:  r.Reason,
			})
		}
		if err := sc.DB.CreateInBatches(entries, 100).Error; err != nil {
			sc.failJob(jobID, err)
			return
		}

		sc.DB.Model(&models.SanitizationJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
			"processed_count": end,
			"valid_count":     valid,
			"invalid_count":   invalid,
		})
	}

	var job models.SanitizationJob
	if err := sc.DB.First(&job, jobID).Error; err == nil && job.ListID != nil {
		sc.applyToList(jobID, *job.ListID)
	}

	done := time.Now()
	sc.DB.Model(&models.SanitizationJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":       "completed",
		"completed_at": &done,
	})
	sc.Logger.Printf("job %d completed: %d valid, %d invalid, %d duplicates", jobID, valid, invalid, duplicates)
}

func (sc *SanitizerController) failJob(jobID uint, err error) {
	sc.Logger.Printf("job %d failed: %v", jobID, err)
	sentry.CaptureException(err)
	done := time.Now()
	sc.DB.Model(&models.SanitizationJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":       "failed",
		"error":        err.Error(),
		"completed_at": &done,
	})
}

// applyToList flips recipients that failed classification to invalid and
// stamps the list as cleaned.
func (sc *SanitizerController) applyToList(jobID, listID uint) {
	var failed []models.SanitizationEntry
	if err := sc.DB.Where("job_id = ? AND is_valid = ?", jobID, false).Find(&failed).Error; err != nil {
		sc.Logger.Printf("job %d: loading failed entries: %v", jobID, err)
		return
	}

	for _, entry := range failed {
		sc.DB.Model(&models.Recipient{}).
			Where("list_id = ? AND LOWER(email) = ?", listID, entry.Email).
			Updates(map[string]interface{}{
				"status":        "invalid",
				"status_reason": entry.Reason,
			})
	}

	var active int64
	sc.DB.Model(&models.Recipient{}).
		Where("list_id = ? AND status = ?", listID, "active").
		Count(&active)

	now := time.Now()
	sc.DB.Model(&models.RecipientList{}).Where("id = ?", listID).Updates(map[string]interface{}{
		"active_count": active,
		"cleaned_at":   &now,
	})
}

// GetJob returns a job with its counters, without entries.
func (sc *SanitizerController) GetJob(c *fiber.Ctx) error {
	var job models.SanitizationJob
	if err := sc.DB.First(&job, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	return c.JSON(utils.SuccessResponse(job))
}

// ListJobs returns jobs newest first.
func (sc *SanitizerController) ListJobs(c *fiber.Ctx) error {
	var jobs []models.SanitizationJob
	if err := sc.DB.Order("created_at DESC").Limit(100).Find(&jobs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch jobs",
		})
	}
	return c.JSON(utils.SuccessResponse(jobs))
}

// GetJobEntries returns the per-address classifications, paginated and
// optionally filtered by validity.
func (sc *SanitizerController) GetJobEntries(c *fiber.Ctx) error {
	jobID := utils.ParseUint(c.Params("id"))
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	query := sc.DB.Model(&models.SanitizationEntry{}).Where("job_id = ?", jobID)
	switch c.Query("valid") {
	case "true":
		query = query.Where("is_valid = ?", true)
	case "false":
		query = query.Where("is_valid = ?", false)
	}

	var total int64
	query.Count(&total)

	var entries []models.SanitizationEntry
	if err := query.Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch entries",
		})
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  entries,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// ExportValidCSV streams the valid addresses of a completed job as CSV.
func (sc *SanitizerController) ExportValidCSV(c *fiber.Ctx) error {
	jobID := utils.ParseUint(c.Params("id"))

	var job models.SanitizationJob
	if err := sc.DB.First(&job, jobID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	if job.Status != "completed" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Job is not completed yet",
		})
	}

	var emails []string
	if err := sc.DB.Model(&models.SanitizationEntry{}).
		Where("job_id = ? AND is_valid = ?", jobID, true).
		Order("id ASC").
		Pluck("email", &emails).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch entries",
		})
	}

	var buf bytes.Buffer
	if err := sanitizer.WriteCSV(&buf, emails); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render CSV",
		})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="job-%d-valid.csv"`, jobID))
	return c.Send(buf.Bytes())
}

// InspectDomain reports what the pipeline knows about a domain: denylist
// membership, MX outcome and the raw whois record.
func (sc *SanitizerController) InspectDomain(c *fiber.Ctx) error {
	domain := c.Params("domain")
	if domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Domain is required",
		})
	}

	outcome, err := sc.Sanitizer.CheckDomain(c.UserContext(), domain)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "DNS resolution is not configured",
		})
	}

	// Whois is best effort; registries rate limit aggressively.
	record, whoisErr := whois.Whois(domain)
	if whoisErr != nil {
		sc.Logger.Printf("whois lookup for %s failed: %v", domain, whoisErr)
		record = ""
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"domain":     domain,
		"disposable": sc.Sanitizer.Disposable(domain),
		"mx":         outcome.String(),
		"whois":      record,
	}))
}
