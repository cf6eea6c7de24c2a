package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type CalendarHandler struct {
	svc *services.CalendarService
	now func() time.Time
}

func NewCalendarHandler(svc *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{
		svc: svc,
		now: time.Now,
	}
}

func (h *CalendarHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/habits/:id/calendar", h.Get)
}

// Get godoc
// @Summary  Month heat map for a habit
// @Tags     calendar
// @Security BearerAuth
// @Produce  json
// @Param    id            path  string true  "habit id"
// @Param    year          query int    false "defaults to the current year"
// @Param    month         query int    false "1-12, defaults to the current month"
// @Param    start_week_on query string false "monday|sunday"
// @Param    color_scheme  query string false "green|blue|purple|orange"
// @Param    layout        query string false "fixed|dynamic"
// @Param    show_streaks  query bool   false "mark streak days"
// @Param    show_mood     query bool   false "attach the mood of days whose logged moods agree"
// @Success  200 {object} domain.CalendarData
// @Failure  400 {object} map[string]string
// @Router   /habits/{id}/calendar [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	now := h.now()
	year, month := now.Year(), int(now.Month())
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		month = v
	}

	cfg, err := calendarConfigFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.svc.Get(c.Request.Context(), services.CalendarInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Year:    year,
		Month:   time.Month(month),
		Config:  cfg,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func calendarConfigFromQuery(c *gin.Context) (domain.CalendarConfig, error) {
	cfg := domain.DefaultCalendarConfig()

	if v := c.Query("start_week_on"); v != "" {
		cfg.StartWeekOn = domain.WeekStart(v)
	}
	if v := c.Query("color_scheme"); v != "" {
		cfg.ColorScheme = domain.ColorScheme(v)
	}
	if v := c.Query("layout"); v != "" {
		cfg.Layout = domain.GridLayout(v)
	}

	var err error
	if v := c.Query("show_streaks"); v != "" {
		if cfg.ShowStreaks, err = strconv.ParseBool(v); err != nil {
			return cfg, domain.ErrInvalidCalendarConfig
		}
	}
	if v := c.Query("show_mood"); v != "" {
		if cfg.ShowMood, err = strconv.ParseBool(v); err != nil {
			return cfg, domain.ErrInvalidCalendarConfig
		}
	}

	return cfg, cfg.Validate()
}
