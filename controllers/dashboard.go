// controllers/dashboard.go
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

// scopeFromCaller derives the statistics scope the caller is entitled to:
// students get their own records, reviewers their institution, and the
// oversight role whatever narrowing it asks for in the query string.
func scopeFromCaller(c *gin.Context, caller services.Caller) services.StatsScope {
	switch caller.RoleID {
	case models.RoleStudent:
		return services.StatsScope{OwnerID: caller.UserID}
	case models.RoleReviewer:
		return services.StatsScope{InstitutionID: caller.InstitutionID}
	default:
		scope := services.StatsScope{}
		if instID, err := strconv.Atoi(c.Query("institution_id")); err == nil {
			scope.InstitutionID = instID
		}
		if ownerID, err := strconv.Atoi(c.Query("owner_id")); err == nil {
			scope.OwnerID = ownerID
		}
		return scope
	}
}

// GetDashboardStats returns status counts and completion for the caller's scope.
// GET /api/v1/dashboard/stats
func GetDashboardStats(c *gin.Context) {
	caller := callerFromContext(c)
	scope := scopeFromCaller(c, caller)

	stats := services.NewStatsService(config.DB)
	summary, err := stats.Summarize(c.Request.Context(), scope)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   summary,
	})
}

type goalProgressRequest struct {
	Goals map[string]int `json:"goals" binding:"required"`
}

// GetGoalProgress measures the caller's approved records against a supplied
// category goal table.
// POST /api/v1/dashboard/goals
func GetGoalProgress(c *gin.Context) {
	var req goalProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.FormatBindingError(err)})
		return
	}

	for category, target := range req.Goals {
		if !models.IsValidCategory(category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown goal category '" + category + "'"})
			return
		}
		if target < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "goal target for '" + category + "' must not be negative"})
			return
		}
	}

	caller := callerFromContext(c)
	scope := scopeFromCaller(c, caller)

	stats := services.NewStatsService(config.DB)
	summary, err := stats.GoalProgress(c.Request.Context(), scope, req.Goals)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"goals":   summary,
	})
}
