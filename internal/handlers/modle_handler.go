package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"modleapp/internal/api"
	"modleapp/internal/config"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	contextutils "modleapp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ModleHandler serves the daily puzzle, result reporting, and play status endpoints
type ModleHandler struct {
	puzzleService services.PuzzleServiceInterface
	playService   services.PlayServiceInterface
	cfg           *config.Config
	logger        *observability.Logger
}

// NewModleHandler creates a new ModleHandler instance
func NewModleHandler(puzzleService services.PuzzleServiceInterface, playService services.PlayServiceInterface, cfg *config.Config, logger *observability.Logger) *ModleHandler {
	return &ModleHandler{
		puzzleService: puzzleService,
		playService:   playService,
		cfg:           cfg,
		logger:        logger,
	}
}

// PuzzleCreateRequest represents an admin request to publish a puzzle
type PuzzleCreateRequest struct {
	Language string   `json:"language"`
	Date     string   `json:"date"`
	Answer   string   `json:"answer"`
	Hints    []string `json:"hints"`
}

// GetPuzzle handles GET /v1/modle/puzzle/:language/:date - fetch one day's
// puzzle: the answer, the hint list, and the date. The gate on scoring is the
// result endpoint, not this one, so handing out the payload is harmless.
func (h *ModleHandler) GetPuzzle(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_puzzle")
	defer observability.FinishSpan(span, nil)

	language := c.Param("language")
	date := c.Param("date")

	span.SetAttributes(
		attribute.String("puzzle.language", language),
		attribute.String("puzzle.date", date),
	)

	puzzle, err := h.puzzleService.GetPuzzle(c.Request.Context(), models.Language(language), date)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to get puzzle", map[string]interface{}{"language": language, "date": date, "error": err.Error()})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, convertPuzzleToAPI(puzzle))
}

// SubmitResult handles POST /v1/modle/result - report a finished day.
// The first report for a calendar date closes it in every language and the
// response carries the refreshed status for both the played language and the
// global scope. A later report for the same date is refused with a 409 and
// the DAILY_LIMIT_REACHED code.
func (h *ModleHandler) SubmitResult(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_result")
	defer observability.FinishSpan(span, nil)

	userID, err := GetCurrentUserID(c)
	if err != nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req api.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	date := req.Date.Format(contextutils.DateLayout)

	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("result.language", string(req.Language)),
		attribute.String("result.date", date),
		attribute.Bool("result.correct", req.Correct),
		attribute.Int("result.guesses", len(req.Guesses)),
	)

	entry := &models.DailyHistoryEntry{
		UserID:    userID,
		Date:      date,
		Language:  models.Language(req.Language),
		Correct:   req.Correct,
		Completed: true,
		Guesses:   req.Guesses,
	}

	outcome, err := h.playService.RecordResult(c.Request.Context(), userID, entry)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to record result", err, map[string]interface{}{"user_id": userID, "date": date})
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(
		attribute.Bool("result.recorded", outcome.Recorded),
		attribute.Bool("result.already_played", outcome.AlreadyPlayed),
		attribute.Int("result.streak", outcome.Streak),
	)

	if outcome.AlreadyPlayed {
		details := ""
		if outcome.Entry != nil {
			details = fmt.Sprintf("date %s already closed in %s", outcome.Entry.Date, outcome.Entry.Language)
		}
		HandleAppError(c, contextutils.NewAppError(
			contextutils.ErrorCodeDailyLimitReached,
			contextutils.SeverityInfo,
			contextutils.ErrDailyLimitReached.Message,
			details,
		))
		return
	}

	resp := api.ResultResponse{
		Recorded:      outcome.Recorded,
		AlreadyPlayed: outcome.AlreadyPlayed,
		Streak:        outcome.Streak,
	}
	if outcome.Entry != nil {
		apiEntry := convertEntryToAPI(outcome.Entry)
		resp.Entry = &apiEntry
	}

	// The day is closed; hand back the refreshed view for the played language
	// and for the global scope so the client can settle without extra reads.
	if langStatus, statusErr := h.playService.GetStatus(c.Request.Context(), userID, models.Language(req.Language), "language"); statusErr != nil {
		h.logger.Warn(c.Request.Context(), "Failed to load language status after recording", map[string]interface{}{"user_id": userID, "error": statusErr.Error()})
	} else {
		converted := convertStatusToAPI(langStatus, string(req.Language))
		resp.Language = &converted
	}
	if globalStatus, statusErr := h.playService.GetStatus(c.Request.Context(), userID, "", models.ScopeGlobal); statusErr != nil {
		h.logger.Warn(c.Request.Context(), "Failed to load global status after recording", map[string]interface{}{"user_id": userID, "error": statusErr.Error()})
	} else {
		converted := convertStatusToAPI(globalStatus, models.ScopeGlobal)
		resp.Global = &converted
	}

	c.JSON(http.StatusOK, resp)
}

// GetStatus handles GET /v1/modle/status - play history plus the streak.
// The default scope is global; pass a language to restrict the history window
// to that language. The streak is always the global cross-language value.
func (h *ModleHandler) GetStatus(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_status")
	defer observability.FinishSpan(span, nil)

	userID, err := GetCurrentUserID(c)
	if err != nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var params api.GetStatusParams
	if err := c.ShouldBindQuery(&params); err != nil {
		HandleAppError(c, contextutils.ErrInvalidInput)
		return
	}

	scope := models.ScopeGlobal
	var language models.Language
	if params.Language != nil && *params.Language != "" {
		language = models.Language(*params.Language)
		scope = "language"
	}
	if params.Scope != nil && *params.Scope == api.StatusScopeGlobal {
		scope = models.ScopeGlobal
		language = ""
	}

	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("status.scope", scope),
		attribute.String("status.language", string(language)),
	)

	status, err := h.playService.GetStatus(c.Request.Context(), userID, language, scope)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to get play status", err, map[string]interface{}{"user_id": userID, "scope": scope})
		HandleAppError(c, err)
		return
	}

	responseScope := models.ScopeGlobal
	if scope != models.ScopeGlobal {
		responseScope = string(language)
	}

	c.JSON(http.StatusOK, convertStatusToAPI(status, responseScope))
}

// HasPlayed handles GET /v1/modle/played/:date - reports whether the current
// user already closed the given calendar date in any language.
func (h *ModleHandler) HasPlayed(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "has_played")
	defer observability.FinishSpan(span, nil)

	userID, err := GetCurrentUserID(c)
	if err != nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	date := c.Param("date")

	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("played.date", date),
	)

	played, err := h.playService.HasPlayedOn(c.Request.Context(), userID, date)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":   date,
		"played": played,
	})
}

// SuggestAnswers handles GET /v1/modle/suggest - close-match answer lookup.
// Used by clients for "did you mean" hints when a guess misses narrowly.
func (h *ModleHandler) SuggestAnswers(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "suggest_answers")
	defer observability.FinishSpan(span, nil)

	language := c.Query("language")
	guess := c.Query("q")
	if language == "" || guess == "" {
		HandleAppError(c, contextutils.ErrMissingRequired)
		return
	}

	maxDistance := config.DefaultMinDistance
	if raw := c.Query("max_distance"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			HandleAppError(c, contextutils.ErrInvalidFormat)
			return
		}
		maxDistance = parsed
	}

	span.SetAttributes(
		attribute.String("suggest.language", language),
		attribute.Int("suggest.max_distance", maxDistance),
	)

	results, err := h.puzzleService.SuggestAnswers(c.Request.Context(), models.Language(language), guess, maxDistance)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	suggestions := make([]gin.H, 0, len(results))
	for _, r := range results {
		suggestions = append(suggestions, gin.H{
			"answer":   r.Term,
			"distance": r.Distance,
		})
	}

	span.SetAttributes(attribute.Int("suggest.count", len(suggestions)))

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// CreatePuzzle handles POST /v1/admin/puzzles - publish one day's puzzle (admin only)
func (h *ModleHandler) CreatePuzzle(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_puzzle")
	defer observability.FinishSpan(span, nil)

	var req PuzzleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.String("puzzle.language", req.Language),
		attribute.String("puzzle.date", req.Date),
		attribute.Int("puzzle.hints", len(req.Hints)),
	)

	puzzle := &models.Puzzle{
		Language: models.Language(req.Language),
		Date:     req.Date,
		Answer:   req.Answer,
		Hints:    req.Hints,
	}

	created, err := h.puzzleService.CreatePuzzle(c.Request.Context(), puzzle)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to create puzzle", err, map[string]interface{}{"language": req.Language, "date": req.Date})
		HandleAppError(c, err)
		return
	}

	h.logger.Info(c.Request.Context(), "Puzzle published", map[string]interface{}{"language": req.Language, "date": req.Date, "puzzle_id": created.ID})

	c.JSON(http.StatusCreated, convertPuzzleToAPI(created))
}
