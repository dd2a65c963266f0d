// controllers/review.go
package controllers

import (
	"net/http"
	"strconv"

	"achievement-review-api/config"
	"achievement-review-api/models"
	"achievement-review-api/services"
	"achievement-review-api/utils"

	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	Feedback string `json:"feedback"`
}

func applyDecision(c *gin.Context, target string) {
	achievementID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid achievement ID"})
		return
	}

	// Approvals may carry no body at all.
	var req reviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.FormatBindingError(err)})
			return
		}
	}

	workflow := services.NewWorkflowService(config.DB)
	record, err := workflow.Review(c.Request.Context(), callerFromContext(c), achievementID, target, req.Feedback)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Achievement " + target,
		"achievement": record,
	})
}

// ApproveAchievement moves a pending record to approved (terminal).
// POST /api/v1/achievements/:id/approve
func ApproveAchievement(c *gin.Context) {
	applyDecision(c, models.StatusApproved)
}

// RejectAchievement moves a pending record to rejected; feedback required.
// POST /api/v1/achievements/:id/reject
func RejectAchievement(c *gin.Context) {
	applyDecision(c, models.StatusRejected)
}

// RequestRevision sends a pending record back for changes; feedback required.
// POST /api/v1/achievements/:id/request-revision
func RequestRevision(c *gin.Context) {
	applyDecision(c, models.StatusNeedsRevision)
}

type resubmitRequest struct {
	Title           *string             `json:"title"`
	Description     *string             `json:"description"`
	Issuer          *string             `json:"issuer"`
	Category        *string             `json:"category"`
	AchievementDate *string             `json:"achievement_date"`
	Tags            []string            `json:"tags"`
	NewAttachments  []attachmentRequest `json:"new_attachments"`
}

// ResubmitAchievement returns a rejected or needs_revision record to the
// review queue under its owner.
// POST /api/v1/achievements/:id/resubmit
func ResubmitAchievement(c *gin.Context) {
	achievementID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid achievement ID"})
		return
	}

	var req resubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.FormatBindingError(err)})
		return
	}

	input := services.ResubmissionInput{
		Tags:           req.Tags,
		NewAttachments: toAttachmentInputs(req.NewAttachments),
	}
	if req.Title != nil {
		title := utils.SanitizeInput(*req.Title)
		input.Title = &title
	}
	if req.Description != nil {
		desc := utils.SanitizeInput(*req.Description)
		input.Description = &desc
	}
	if req.Issuer != nil {
		issuer := utils.SanitizeInput(*req.Issuer)
		input.Issuer = &issuer
	}
	if req.Category != nil {
		input.Category = req.Category
	}
	if req.AchievementDate != nil {
		date, ok := parseDate(*req.AchievementDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "achievement_date must be YYYY-MM-DD"})
			return
		}
		if !date.IsZero() {
			input.AchievementDate = &date
		}
	}

	workflow := services.NewWorkflowService(config.DB)
	record, err := workflow.Resubmit(c.Request.Context(), callerFromContext(c), achievementID, input)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Achievement resubmitted for review",
		"achievement": record,
	})
}
