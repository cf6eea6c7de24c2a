package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

const testSecret = "handler-test-secret"

type testServer struct {
	router *gin.Engine
	store  *repository.MemoryStore
	tokens *services.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	habits, entries, users := store.Habits(), store.Entries(), store.Users()
	tx := store.Transactor()

	tokens := services.NewTokenService(testSecret, "kanso-test", time.Hour, users)
	streaks := services.NewStreakService(habits, entries)

	router := NewRouter(RouterDependencies{
		AuthHandler:     NewAuthHandler(services.NewAuthService(users), tokens),
		HabitHandler:    NewHabitHandler(services.NewHabitService(habits, entries, tx, streaks), streaks),
		EntryHandler:    NewEntryHandler(services.NewEntryService(entries, habits, tx, streaks)),
		CalendarHandler: NewCalendarHandler(services.NewCalendarService(habits, entries)),
		StatsHandler:    NewStatsHandler(services.NewStatsService(habits, entries)),
		Tokens:          tokens,
		StartTime:       time.Now(),
	})

	return &testServer{router: router, store: store, tokens: tokens}
}

// login stores a user directly and returns a bearer token for it.
func (s *testServer) login(t *testing.T) (string, string) {
	t.Helper()

	user, err := domain.NewUser(uuid.NewString(), uuid.NewString()[:8]+"@kanso.app")
	require.NoError(t, err)
	require.NoError(t, s.store.Users().Create(context.Background(), user))

	token, err := s.tokens.GenerateToken(user.ID)
	require.NoError(t, err)
	return user.ID, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(v))
		}
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createHabit(t *testing.T, token string, body any) *domain.Habit {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/habits", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*domain.Habit](t, w)
}

func (s *testServer) createEntry(t *testing.T, token, habitID string, body any) *domain.HabitEntry {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/habits/"+habitID+"/entries", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*domain.HabitEntry](t, w)
}
