package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func TestCalendarHandler_Get(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.login(t)
	_, otherToken := srv.login(t)
	habit := srv.createHabit(t, token, map[string]any{"title": "Steps", "target_value": 4})

	srv.createEntry(t, token, habit.ID, map[string]any{"date": "2025-06-02", "value": 4, "mood": "GOOD"})
	srv.createEntry(t, token, habit.ID, map[string]any{"date": "2025-06-03", "value": 2})

	path := "/api/v1/habits/" + habit.ID + "/calendar"

	w := srv.do(t, http.MethodGet, path+"?year=2025&month=6&show_mood=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode[domain.CalendarData](t, w)

	assert.Equal(t, 2025, data.Year)
	assert.Equal(t, time.June, data.Month)
	require.Len(t, data.Days, 35)
	assert.Equal(t, datekey.New(2025, time.May, 26), data.Days[0].Date, "grid starts on the Monday before the 1st")

	byDate := map[datekey.Date]domain.CalendarDay{}
	for _, d := range data.Days {
		byDate[d.Date] = d
	}
	full := byDate[datekey.New(2025, time.June, 2)]
	assert.True(t, full.IsCompleted)
	assert.Equal(t, 4, full.Intensity)
	assert.Equal(t, domain.MoodGood, full.Mood)

	half := byDate[datekey.New(2025, time.June, 3)]
	assert.False(t, half.IsCompleted)
	assert.Equal(t, 3, half.Intensity)
	assert.Equal(t, 2, data.Stats.ActiveDays)
	assert.Equal(t, 1, data.Stats.CompletedDays)

	t.Run("dynamic layout fits the whole month", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, path+"?year=2025&month=6&layout=dynamic", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[domain.CalendarData](t, w).Days, 42)
	})

	t.Run("sunday start", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, path+"?year=2025&month=6&start_week_on=sunday", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, datekey.New(2025, time.June, 1), decode[domain.CalendarData](t, w).Days[0].Date)
	})

	tests := []struct {
		name       string
		query      string
		token      string
		wantStatus int
	}{
		{"Fail: month out of range", "?year=2025&month=13", token, http.StatusBadRequest},
		{"Fail: month not a number", "?month=june", token, http.StatusBadRequest},
		{"Fail: unknown week start", "?start_week_on=friday", token, http.StatusBadRequest},
		{"Fail: unknown color scheme", "?color_scheme=pink", token, http.StatusBadRequest},
		{"Fail: bad bool", "?show_streaks=maybe", token, http.StatusBadRequest},
		{"Fail: someone else's habit", "", otherToken, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodGet, path+tt.query, tt.token, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestCalendarHandler_DefaultsToCurrentMonth(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.login(t)
	habit := srv.createHabit(t, token, map[string]any{"title": "Steps"})

	w := srv.do(t, http.MethodGet, "/api/v1/habits/"+habit.ID+"/calendar", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode[domain.CalendarData](t, w)
	now := time.Now()
	assert.Equal(t, now.Year(), data.Year)
	assert.Equal(t, now.Month(), data.Month)
	assert.Equal(t, domain.DefaultCalendarConfig(), data.Config)
}
