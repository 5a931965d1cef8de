package controller

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"mailsift/config"
	"mailsift/models"
	"mailsift/utils"
)

// HandleJobProgressWS streams the progress of a sanitization job until it
// reaches a terminal state. The job id comes from the upgraded route param.
func HandleJobProgressWS(c *websocket.Conn) {
	defer c.Close()

	jobID := utils.ParseUint(c.Params("id"))
	if jobID == 0 {
		_ = c.WriteJSON(map[string]string{"error": "invalid job id"})
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var job models.SanitizationJob
		if err := config.DB.First(&job, jobID).Error; err != nil {
			_ = c.WriteJSON(map[string]string{"error": "job not found"})
			return
		}

		progress := struct {
			Status         string `json:"status"`
			Percent        int    `json:"percent"`
			ProcessedCount int    `json:"processed_count"`
			TotalCount     int    `json:"total_count"`
			ValidCount     int    `json:"valid_count"`
			InvalidCount   int    `json:"invalid_count"`
			DuplicateCount int    `json:"duplicate_count"`
		}{
			Status:         job.Status,
			ProcessedCount: job.ProcessedCount,
			TotalCount:     job.TotalCount,
			ValidCount:     job.ValidCount,
			InvalidCount:   job.InvalidCount,
			DuplicateCount: job.DuplicateCount,
		}

		// Duplicates never reach the classification stage, so the divisor
		// is the deduplicated count.
		if work := job.TotalCount - job.DuplicateCount; work > 0 {
			progress.Percent = job.ProcessedCount * 100 / work
		}

		if err := c.WriteJSON(progress); err != nil {
			log.Printf("Error writing JSON: %v", err)
			return
		}

		if job.Status == "completed" || job.Status == "failed" {
			return
		}
	}
}
