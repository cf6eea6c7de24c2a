package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

var badRequest = []error{
	domain.ErrInvalidDate,
	domain.ErrInvalidCalendarRange,
	domain.ErrInvalidCalendarConfig,
	domain.ErrInvalidStatsRange,
	domain.ErrInvalidEntry,
	domain.ErrEntryNoteTooLong,
	domain.ErrNegativeValue,
	domain.ErrInvalidMood,
	domain.ErrHabitTitleEmpty,
	domain.ErrHabitTitleTooLong,
	domain.ErrHabitDescTooLong,
	domain.ErrHabitInvalidUserID,
	domain.ErrInvalidColor,
	domain.ErrInvalidWeekdays,
	domain.ErrInvalidTarget,
	domain.ErrInvalidFrequency,
	domain.ErrInvalidUnit,
	domain.ErrInvalidReminder,
	domain.ErrInvalidPeriod,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
}

var conflict = []error{
	domain.ErrEntryDateTaken,
	domain.ErrDuplicateEntryDate,
	domain.ErrEmailAlreadyExists,
	domain.ErrHabitArchived,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleError writes the JSON error response matching err.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrHabitConflict), errors.Is(err, domain.ErrEntryConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "Data has been modified elsewhere. Please sync.",
		})
	case isAny(err, conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case isAny(err, badRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
	case errors.Is(err, domain.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
}

func userContextMissing(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
}
