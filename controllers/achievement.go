// controllers/achievement.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"achievement-review-api/config"
	"achievement-review-api/services"
	"achievement-review-api/utils"

	"github.com/gin-gonic/gin"
)

type attachmentRequest struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
	StorageRef  string `json:"storage_ref"`
}

type createAchievementRequest struct {
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Issuer          string              `json:"issuer"`
	Category        string              `json:"category"`
	AchievementDate string              `json:"achievement_date"`
	Tags            []string            `json:"tags"`
	Attachments     []attachmentRequest `json:"attachments"`
}

// parseDate accepts a plain date or a full timestamp.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toAttachmentInputs(atts []attachmentRequest) []services.AttachmentInput {
	out := make([]services.AttachmentInput, 0, len(atts))
	for _, a := range atts {
		out = append(out, services.AttachmentInput{
			FileName:    utils.SanitizeInput(a.FileName),
			FileSize:    a.FileSize,
			ContentType: a.ContentType,
			StorageRef:  a.StorageRef,
		})
	}
	return out
}

// CreateAchievement stores a new pending achievement for the caller.
// POST /api/v1/achievements
func CreateAchievement(c *gin.Context) {
	var req createAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.FormatBindingError(err)})
		return
	}

	date, ok := parseDate(req.AchievementDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "achievement_date must be YYYY-MM-DD"})
		return
	}

	input := services.SubmissionInput{
		Title:           utils.SanitizeInput(req.Title),
		Description:     utils.SanitizeInput(req.Description),
		Issuer:          utils.SanitizeInput(req.Issuer),
		Category:        req.Category,
		AchievementDate: date,
		Tags:            req.Tags,
		Attachments:     toAttachmentInputs(req.Attachments),
	}

	workflow := services.NewWorkflowService(config.DB)
	record, err := workflow.Create(c.Request.Context(), callerFromContext(c), input)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Achievement submitted successfully",
		"achievement": record,
	})
}

// GetAchievements returns the caller-visible page of achievements.
// GET /api/v1/achievements?category=&status=&owner_id=&institution_id=&date_field=&date_from=&date_to=&search=&sort=&dir=&page=&page_size=
func GetAchievements(c *gin.Context) {
	filter := services.AchievementFilter{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		DateField: c.Query("date_field"),
		Search:    c.Query("search"),
	}
	if ownerID, err := strconv.Atoi(c.Query("owner_id")); err == nil {
		filter.OwnerID = ownerID
	}
	if instID, err := strconv.Atoi(c.Query("institution_id")); err == nil {
		filter.InstitutionID = instID
	}
	if from, ok := parseDate(c.Query("date_from")); ok && !from.IsZero() {
		filter.DateFrom = &from
	}
	if to, ok := parseDate(c.Query("date_to")); ok && !to.IsZero() {
		filter.DateTo = &to
	}

	sort := services.SortOption{Key: c.Query("sort"), Dir: c.Query("dir")}
	page := services.PageRequest{}
	page.Page, _ = strconv.Atoi(c.Query("page"))
	page.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	page = services.NormalizePage(page)

	query := services.NewQueryService(config.DB)
	records, total, err := query.List(c.Request.Context(), callerFromContext(c), filter, sort, page)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"achievements": records,
		"meta": gin.H{
			"page":      page.Page,
			"page_size": page.PageSize,
			"total":     total,
		},
	})
}

// GetAchievement returns one record, subject to the caller's scope.
// GET /api/v1/achievements/:id
func GetAchievement(c *gin.Context) {
	achievementID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid achievement ID"})
		return
	}

	query := services.NewQueryService(config.DB)
	record, err := query.Get(c.Request.Context(), callerFromContext(c), achievementID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"achievement": record,
	})
}

// GetAchievementReviews returns the archived review history of a record.
// GET /api/v1/achievements/:id/reviews
func GetAchievementReviews(c *gin.Context) {
	achievementID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid achievement ID"})
		return
	}

	query := services.NewQueryService(config.DB)
	reviews, err := query.Reviews(c.Request.Context(), callerFromContext(c), achievementID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
		"total":   len(reviews),
	})
}
