package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"modleapp/internal/config"
	"modleapp/internal/match"
	"modleapp/internal/middleware"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	contextutils "modleapp/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}

func testGameConfig() *config.Config {
	return &config.Config{
		Game: config.GameConfig{
			Languages:     []string{"english", "spanish", "french", "german", "italian", "portuguese"},
			MaxHints:      5,
			MinDistance:   2,
			DistanceRatio: 0.2,
		},
	}
}

// newModleTestRouter wires the handler under test behind a session store and
// returns both the router and a cookie for an authenticated user.
func newModleTestRouter(t *testing.T, h *ModleHandler, userID int) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))

	router.GET("/setup", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(middleware.UserIDKey, userID)
		session.Set(middleware.UsernameKey, "player")
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	router.GET("/puzzle/:language/:date", h.GetPuzzle)
	router.POST("/result", h.SubmitResult)
	router.GET("/status", h.GetStatus)
	router.GET("/played/:date", h.HasPlayed)
	router.GET("/suggest", h.SuggestAnswers)
	router.POST("/puzzles", h.CreatePuzzle)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/setup", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	return router, w.Header().Get("Set-Cookie")
}

func TestModleHandler_GetPuzzle(t *testing.T) {
	puzzleSvc := &mockPuzzleService{
		getPuzzleFn: func(_ context.Context, language models.Language, date string) (*models.Puzzle, error) {
			assert.Equal(t, models.English, language)
			assert.Equal(t, "2026-08-01", date)
			return &models.Puzzle{
				ID:       1,
				Language: models.English,
				Date:     "2026-08-01",
				Answer:   "INCEPTION",
				Hints:    []string{"Released in 2010", "Directed by Christopher Nolan"},
			}, nil
		},
	}
	h := NewModleHandler(puzzleSvc, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/puzzle/english/2026-08-01", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "english", resp["language"])
	assert.Equal(t, float64(2), resp["hint_count"])
	assert.Len(t, resp["hints"], 2)
	// The playable view carries the answer for client-side scoring
	assert.Equal(t, "INCEPTION", resp["answer"])
}

func TestModleHandler_GetPuzzle_NotFound(t *testing.T) {
	puzzleSvc := &mockPuzzleService{
		getPuzzleFn: func(_ context.Context, _ models.Language, _ string) (*models.Puzzle, error) {
			return nil, contextutils.ErrPuzzleNotFound
		},
	}
	h := NewModleHandler(puzzleSvc, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/puzzle/english/2026-08-01", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PUZZLE_NOT_FOUND")
}

func TestModleHandler_SubmitResult_Recorded(t *testing.T) {
	var gotEntry *models.DailyHistoryEntry
	var statusScopes []string
	playSvc := &mockPlayService{
		recordResultFn: func(_ context.Context, userID int, entry *models.DailyHistoryEntry) (*services.RecordOutcome, error) {
			assert.Equal(t, 7, userID)
			gotEntry = entry
			return &services.RecordOutcome{
				Recorded: true,
				Streak:   3,
				Entry:    entry,
			}, nil
		},
		getStatusFn: func(_ context.Context, _ int, language models.Language, scope string) (*models.PlayStatus, error) {
			statusScopes = append(statusScopes, scope)
			if scope == "language" {
				assert.Equal(t, models.Spanish, language)
			}
			return &models.PlayStatus{History: map[string]models.DailyHistoryEntry{}, Streak: 3}, nil
		},
	}
	h := NewModleHandler(&mockPuzzleService{}, playSvc, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	body := `{"language":"spanish","date":"2026-08-02","correct":true,"guesses":["el padrino"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, gotEntry)
	assert.Equal(t, "2026-08-02", gotEntry.Date)
	assert.Equal(t, models.Spanish, gotEntry.Language)
	assert.True(t, gotEntry.Completed)
	assert.Equal(t, []string{"el padrino"}, gotEntry.Guesses)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["recorded"])
	assert.Equal(t, false, resp["already_played"])
	assert.Equal(t, float64(3), resp["streak"])
	assert.NotNil(t, resp["entry"])

	// A successful close carries the refreshed language and global views
	assert.Equal(t, []string{"language", "global"}, statusScopes)
	langStatus, ok := resp["language"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "spanish", langStatus["scope"])
	globalStatus, ok := resp["global"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "global", globalStatus["scope"])
}

func TestModleHandler_SubmitResult_AlreadyPlayed(t *testing.T) {
	stored := &models.DailyHistoryEntry{
		UserID:    7,
		Date:      "2026-08-02",
		Language:  models.English,
		Correct:   true,
		Completed: true,
		Guesses:   []string{"INCEPTION"},
	}
	playSvc := &mockPlayService{
		recordResultFn: func(_ context.Context, _ int, _ *models.DailyHistoryEntry) (*services.RecordOutcome, error) {
			return &services.RecordOutcome{
				Recorded:      false,
				AlreadyPlayed: true,
				Streak:        5,
				Entry:         stored,
			}, nil
		},
	}
	h := NewModleHandler(&mockPuzzleService{}, playSvc, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	// A second report in another language is refused by the gate
	body := `{"language":"french","date":"2026-08-02","correct":false,"guesses":["amelie"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DAILY_LIMIT_REACHED", resp["code"])
	assert.Equal(t, "Daily play limit reached", resp["message"])
	assert.Contains(t, resp["details"], "2026-08-02")
	assert.Contains(t, resp["details"], "english")
}

func TestModleHandler_SubmitResult_Unauthenticated(t *testing.T) {
	h := NewModleHandler(&mockPuzzleService{}, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, _ := newModleTestRouter(t, h, 7)

	body := `{"language":"english","date":"2026-08-02","correct":true,"guesses":[]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestModleHandler_GetStatus_DefaultGlobal(t *testing.T) {
	playSvc := &mockPlayService{
		getStatusFn: func(_ context.Context, userID int, language models.Language, scope string) (*models.PlayStatus, error) {
			assert.Equal(t, 7, userID)
			assert.Equal(t, models.ScopeGlobal, scope)
			assert.Empty(t, string(language))
			return &models.PlayStatus{
				History: map[string]models.DailyHistoryEntry{
					"2026-08-02": {Date: "2026-08-02", Language: models.English, Correct: true, Completed: true},
				},
				Streak: 4,
			}, nil
		},
	}
	h := NewModleHandler(&mockPuzzleService{}, playSvc, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/status", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "global", resp["scope"])
	assert.Equal(t, float64(4), resp["streak"])

	history, ok := resp["history"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, history, "2026-08-02")
}

func TestModleHandler_GetStatus_LanguageScope(t *testing.T) {
	playSvc := &mockPlayService{
		getStatusFn: func(_ context.Context, _ int, language models.Language, scope string) (*models.PlayStatus, error) {
			assert.Equal(t, "language", scope)
			assert.Equal(t, models.Spanish, language)
			return &models.PlayStatus{History: map[string]models.DailyHistoryEntry{}, Streak: 2}, nil
		},
	}
	h := NewModleHandler(&mockPuzzleService{}, playSvc, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/status?language=spanish", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "spanish", resp["scope"])
	// The streak stays the global cross-language value
	assert.Equal(t, float64(2), resp["streak"])
}

func TestModleHandler_GetStatus_ExplicitGlobalOverridesLanguage(t *testing.T) {
	playSvc := &mockPlayService{
		getStatusFn: func(_ context.Context, _ int, language models.Language, scope string) (*models.PlayStatus, error) {
			assert.Equal(t, models.ScopeGlobal, scope)
			assert.Empty(t, string(language))
			return &models.PlayStatus{History: map[string]models.DailyHistoryEntry{}}, nil
		},
	}
	h := NewModleHandler(&mockPuzzleService{}, playSvc, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/status?scope=global&language=french", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "global", resp["scope"])
}

func TestModleHandler_HasPlayed(t *testing.T) {
	playSvc := &mockPlayService{
		hasPlayedOnFn: func(_ context.Context, userID int, date string) (bool, error) {
			assert.Equal(t, 7, userID)
			assert.Equal(t, "2026-08-02", date)
			return true, nil
		},
	}
	h := NewModleHandler(&mockPuzzleService{}, playSvc, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/played/2026-08-02", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["played"])
	assert.Equal(t, "2026-08-02", resp["date"])
}

func TestModleHandler_SuggestAnswers(t *testing.T) {
	puzzleSvc := &mockPuzzleService{
		suggestAnswersFn: func(_ context.Context, language models.Language, guess string, maxDistance int) ([]match.Result, error) {
			assert.Equal(t, models.English, language)
			assert.Equal(t, "incepton", guess)
			assert.Equal(t, 1, maxDistance)
			return []match.Result{{Term: "INCEPTION", Distance: 1}}, nil
		},
	}
	h := NewModleHandler(puzzleSvc, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/suggest?language=english&q=incepton&max_distance=1", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Suggestions []struct {
			Answer   string `json:"answer"`
			Distance int    `json:"distance"`
		} `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "INCEPTION", resp.Suggestions[0].Answer)
	assert.Equal(t, 1, resp.Suggestions[0].Distance)
}

func TestModleHandler_SuggestAnswers_MissingParams(t *testing.T) {
	h := NewModleHandler(&mockPuzzleService{}, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/suggest?language=english", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_REQUIRED_FIELD")
}

func TestModleHandler_SuggestAnswers_BadMaxDistance(t *testing.T) {
	h := NewModleHandler(&mockPuzzleService{}, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/suggest?language=english&q=test&max_distance=lots", nil)
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModleHandler_CreatePuzzle(t *testing.T) {
	puzzleSvc := &mockPuzzleService{
		createPuzzleFn: func(_ context.Context, puzzle *models.Puzzle) (*models.Puzzle, error) {
			assert.Equal(t, models.German, puzzle.Language)
			assert.Equal(t, "2026-09-01", puzzle.Date)
			assert.Equal(t, "Das Boot", puzzle.Answer)
			created := *puzzle
			created.ID = 12
			return &created, nil
		},
	}
	h := NewModleHandler(puzzleSvc, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	body := `{"language":"german","date":"2026-09-01","answer":"Das Boot","hints":["Submarine drama","Released in 1981"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/puzzles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "german", resp["language"])
	assert.Equal(t, float64(2), resp["hint_count"])
	assert.Equal(t, "Das Boot", resp["answer"])
}

func TestModleHandler_CreatePuzzle_Conflict(t *testing.T) {
	puzzleSvc := &mockPuzzleService{
		createPuzzleFn: func(_ context.Context, _ *models.Puzzle) (*models.Puzzle, error) {
			return nil, contextutils.ErrRecordExists
		},
	}
	h := NewModleHandler(puzzleSvc, &mockPlayService{}, testGameConfig(), newTestLogger())
	router, cookieHeader := newModleTestRouter(t, h, 7)

	body := `{"language":"german","date":"2026-09-01","answer":"Das Boot","hints":["Submarine drama"]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/puzzles", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookieHeader)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "RECORD_ALREADY_EXISTS")
}
