package controllers

import (
	"errors"
	"net/http"

	"achievement-review-api/services"

	"github.com/gin-gonic/gin"
)

// callerFromContext rebuilds the engine caller from what AuthMiddleware
// stored on the request.
func callerFromContext(c *gin.Context) services.Caller {
	caller := services.Caller{IP: c.ClientIP()}
	if v, ok := c.Get("userID"); ok {
		caller.UserID, _ = v.(int)
	}
	if v, ok := c.Get("roleID"); ok {
		caller.RoleID, _ = v.(int)
	}
	if v, ok := c.Get("institutionID"); ok {
		caller.InstitutionID, _ = v.(int)
	}
	return caller
}

// respondEngineError maps the engine error taxonomy onto HTTP statuses:
// validation 400, disallowed transition 400, concurrent conflict 409,
// missing record 404, storage trouble 503 (retryable).
func respondEngineError(c *gin.Context, err error) {
	var verrs services.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": verrs,
		})
		return
	}

	var terr *services.TransitionError
	if errors.As(err, &terr) {
		status := http.StatusBadRequest
		if terr.Conflict {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":      terr.Error(),
			"transition": terr,
		})
		return
	}

	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Achievement not found"})
		return
	}

	var serr *services.StorageError
	if errors.As(err, &serr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable, please retry"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
