package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type HabitHandler struct {
	svc     *services.HabitService
	streaks *services.StreakService
}

func NewHabitHandler(svc *services.HabitService, streaks *services.StreakService) *HabitHandler {
	return &HabitHandler{
		svc:     svc,
		streaks: streaks,
	}
}

type createHabitRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	Color        string     `json:"color"`
	Icon         string     `json:"icon"`
	Frequency    string     `json:"frequency"`
	Weekdays     []int      `json:"weekdays"`
	TargetValue  *float64   `json:"target_value"`
	Unit         string     `json:"unit"`
	ReminderTime string     `json:"reminder_time"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

type updateHabitRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Color         string     `json:"color"`
	Icon          string     `json:"icon"`
	Frequency     string     `json:"frequency"`
	Weekdays      []int      `json:"weekdays"`
	TargetValue   *float64   `json:"target_value"`
	ClearTarget   bool       `json:"clear_target"`
	Unit          string     `json:"unit"`
	ReminderTime  string     `json:"reminder_time"`
	ClearReminder bool       `json:"clear_reminder"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	SortOrder     *int       `json:"sort_order"`
	Version       int        `json:"version"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/sync", h.Sync)
		habits.POST("/recalculate-streaks", h.RecalculateStreaks)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.DELETE("/:id", h.Delete)
		habits.POST("/:id/archive", h.Archive)
		habits.POST("/:id/restore", h.Restore)
		habits.GET("/:id/summary", h.Summary)
	}
}

// Create godoc
// @Summary  Create a habit
// @Tags     habits
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body createHabitRequest true "habit"
// @Success  201 {object} domain.Habit
// @Router   /habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		Color:        req.Color,
		Icon:         req.Icon,
		Frequency:    req.Frequency,
		Weekdays:     req.Weekdays,
		TargetValue:  req.TargetValue,
		Unit:         req.Unit,
		ReminderTime: req.ReminderTime,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

// List godoc
// @Summary  List the caller's habits
// @Tags     habits
// @Security BearerAuth
// @Produce  json
// @Success  200 {array} domain.Habit
// @Router   /habits [get]
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Sync godoc
// @Summary  Habits changed since last_sync, deletions included
// @Tags     sync
// @Security BearerAuth
// @Produce  json
// @Param    last_sync query string false "RFC3339 timestamp"
// @Router   /habits/sync [get]
func (h *HabitHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	lastSync, ok := parseLastSync(c)
	if !ok {
		return
	}

	deltas, err := h.svc.GetDelta(c.Request.Context(), userID, lastSync)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   deltas,
		"timestamp": time.Now().UTC(),
	})
}

func parseLastSync(c *gin.Context) (time.Time, bool) {
	raw := c.Query("last_sync")
	if raw == "" {
		return time.Time{}, true
	}

	lastSync, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_sync format, use RFC3339"})
		return time.Time{}, false
	}
	return lastSync, true
}

func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	habit, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Update godoc
// @Summary  Update a habit (optimistic locking on version)
// @Tags     habits
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string true "habit id"
// @Param    body body updateHabitRequest true "changes"
// @Success  200 {object} domain.Habit
// @Failure  409 {object} map[string]string
// @Router   /habits/{id} [put]
func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:            c.Param("id"),
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		Color:         req.Color,
		Icon:          req.Icon,
		Frequency:     req.Frequency,
		Weekdays:      req.Weekdays,
		TargetValue:   req.TargetValue,
		ClearTarget:   req.ClearTarget,
		Unit:          req.Unit,
		ReminderTime:  req.ReminderTime,
		ClearReminder: req.ClearReminder,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		SortOrder:     req.SortOrder,
		Version:       req.Version,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) Archive(c *gin.Context) {
	h.toggleArchive(c, h.svc.Archive)
}

func (h *HabitHandler) Restore(c *gin.Context) {
	h.toggleArchive(c, h.svc.Restore)
}

func (h *HabitHandler) toggleArchive(c *gin.Context, op func(ctx context.Context, id, userID string) (*domain.Habit, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	habit, err := op(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, habit)
}

// Summary godoc
// @Summary  Dashboard card: today's status, streak state and motivation tier
// @Tags     habits
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "habit id"
// @Success  200 {object} domain.HabitSummary
// @Router   /habits/{id}/summary [get]
func (h *HabitHandler) Summary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecalculateStreaks godoc
// @Summary  Recompute the cached streak counters of all the caller's habits
// @Tags     habits
// @Security BearerAuth
// @Produce  json
// @Router   /habits/recalculate-streaks [post]
func (h *HabitHandler) RecalculateStreaks(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	updated, err := h.streaks.RecalculateUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "streaks recalculated",
		"updatedCount": updated,
	})
}
