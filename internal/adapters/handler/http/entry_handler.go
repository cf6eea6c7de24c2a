package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type EntryHandler struct {
	svc *services.EntryService
}

func NewEntryHandler(svc *services.EntryService) *EntryHandler {
	return &EntryHandler{
		svc: svc,
	}
}

type createEntryRequest struct {
	Date  string  `json:"date" binding:"required"`
	Value float64 `json:"value"`
	Note  string  `json:"note"`
	Mood  string  `json:"mood"`
}

// updateEntryRequest leaves absent fields untouched.
type updateEntryRequest struct {
	Date    *string  `json:"date"`
	Value   *float64 `json:"value"`
	Note    *string  `json:"note"`
	Mood    *string  `json:"mood"`
	Version int      `json:"version" binding:"required"`
}

func (h *EntryHandler) RegisterRoutes(router *gin.RouterGroup) {
	habitEntries := router.Group("/habits/:id/entries")
	{
		habitEntries.POST("", h.Create)
		habitEntries.GET("", h.ListByHabit)
	}

	entries := router.Group("/entries")
	{
		entries.GET("/sync", h.Sync)
		entries.GET("/:id", h.Get)
		entries.PUT("/:id", h.Update)
		entries.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @Summary  Log an entry for a habit on a date
// @Tags     entries
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string true "habit id"
// @Param    body body createEntryRequest true "entry"
// @Success  201 {object} domain.HabitEntry
// @Failure  409 {object} map[string]string "an entry for this date already exists"
// @Router   /habits/{id}/entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	date, err := datekey.Parse(req.Date)
	if err != nil {
		handleError(c, err)
		return
	}

	entry, err := h.svc.Create(c.Request.Context(), services.CreateEntryInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Date:    date,
		Value:   req.Value,
		Note:    req.Note,
		Mood:    domain.Mood(req.Mood),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListByHabit godoc
// @Summary  Page through a habit's entries, newest first
// @Tags     entries
// @Security BearerAuth
// @Produce  json
// @Param    id         path  string true  "habit id"
// @Param    start_date query string false "YYYY-MM-DD"
// @Param    end_date   query string false "YYYY-MM-DD"
// @Param    limit      query int    false "page size, max 100"
// @Param    offset     query int    false "offset"
// @Success  200 {object} domain.EntryPage
// @Router   /habits/{id}/entries [get]
func (h *EntryHandler) ListByHabit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	from, err := optionalDate(c.Query("start_date"))
	if err != nil {
		handleError(c, err)
		return
	}
	to, err := optionalDate(c.Query("end_date"))
	if err != nil {
		handleError(c, err)
		return
	}

	limit, err := optionalInt(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := optionalInt(c.Query("offset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	page, err := h.svc.List(c.Request.Context(), services.ListEntriesInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		From:    from,
		To:      to,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func optionalDate(raw string) (datekey.Date, error) {
	if raw == "" {
		return datekey.Date{}, nil
	}
	return datekey.Parse(raw)
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (h *EntryHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	entry, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Update godoc
// @Summary  Change an entry (optimistic locking on version)
// @Tags     entries
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string true "entry id"
// @Param    body body updateEntryRequest true "changes"
// @Success  200 {object} domain.HabitEntry
// @Failure  409 {object} map[string]string
// @Router   /entries/{id} [put]
func (h *EntryHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	input := services.UpdateEntryInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Value:   req.Value,
		Note:    req.Note,
		Version: req.Version,
	}
	if req.Date != nil {
		date, err := datekey.Parse(*req.Date)
		if err != nil {
			handleError(c, err)
			return
		}
		input.Date = &date
	}
	if req.Mood != nil {
		mood := domain.Mood(*req.Mood)
		input.Mood = &mood
	}

	entry, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) Delete(c *gin.Context) {
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

// Sync godoc
// @Summary  Entries changed since last_sync, deletions included
// @Tags     sync
// @Security BearerAuth
// @Produce  json
// @Param    last_sync query string false "RFC3339 timestamp"
// @Router   /entries/sync [get]
func (h *EntryHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	lastSync, ok := parseLastSync(c)
	if !ok {
		return
	}

	changes, err := h.svc.GetDelta(c.Request.Context(), userID, lastSync)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}
