// controllers/bulk.go
package controllers

import (
	"net/http"

	"achievement-review-api/config"
	"achievement-review-api/services"
	"achievement-review-api/utils"

	"github.com/gin-gonic/gin"
)

type bulkApplyRequest struct {
	Action   string `json:"action" binding:"required,oneof=approve reject request_revision"`
	IDs      []int  `json:"ids" binding:"required,min=1"`
	Feedback string `json:"feedback"`
}

// BulkApplyAchievements runs one review action over a selection set. Partial
// failure is the normal response shape; the batch is never transactional.
// POST /api/v1/achievements/bulk
func BulkApplyAchievements(c *gin.Context) {
	var req bulkApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.FormatBindingError(err)})
		return
	}

	workflow := services.NewWorkflowService(config.DB)
	query := services.NewQueryService(config.DB)
	bulk := services.NewBulkService(workflow, query)

	result, err := bulk.Apply(c.Request.Context(), callerFromContext(c), req.Action, req.IDs, req.Feedback)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

type exportRequest struct {
	IDs    []int    `json:"ids" binding:"required,min=1"`
	Fields []string `json:"fields"`
	Format string   `json:"format"`
}

// ExportAchievements shapes the selected records under a field mask. The
// format tag is echoed back; file encoding belongs to the caller.
// POST /api/v1/achievements/export
func ExportAchievements(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.FormatBindingError(err)})
		return
	}

	workflow := services.NewWorkflowService(config.DB)
	query := services.NewQueryService(config.DB)
	bulk := services.NewBulkService(workflow, query)

	result, err := bulk.Export(c.Request.Context(), callerFromContext(c), services.ExportRequest{
		IDs:    req.IDs,
		Fields: req.Fields,
		Format: req.Format,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"export":  result,
	})
}
