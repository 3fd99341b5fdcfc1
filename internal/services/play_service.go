package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"modleapp/internal/config"
	"modleapp/internal/match"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	contextutils "modleapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// RecordOutcome is the authoritative result of reporting a played day.
type RecordOutcome struct {
	Recorded      bool
	AlreadyPlayed bool
	Streak        int
	Entry         *models.DailyHistoryEntry
}

// PlayServiceInterface defines the interface for play history and streak operations.
type PlayServiceInterface interface {
	HasPlayedOn(ctx context.Context, userID int, date string) (bool, error)
	RecordResult(ctx context.Context, userID int, entry *models.DailyHistoryEntry) (*RecordOutcome, error)
	GetStatus(ctx context.Context, userID int, language models.Language, scope string) (*models.PlayStatus, error)
	GetStreak(ctx context.Context, userID int) (*models.StreakState, error)
	GetHistory(ctx context.Context, userID int, language models.Language, days int) (map[string]models.DailyHistoryEntry, error)
}

// PlayService owns the daily play gate and the streak ledger. One scored day
// per user per calendar date across every language, and the streak only moves
// inside the same transaction that closes the day. The verdict is recomputed
// here from the stored answer; the client's reported flag is never trusted.
type PlayService struct {
	db      *sql.DB
	cfg     *config.Config
	logger  *observability.Logger
	matcher *match.Matcher
	timeNow func() time.Time
}

// Ensure PlayService implements the PlayServiceInterface
var _ PlayServiceInterface = (*PlayService)(nil)

// NewPlayService creates a new PlayService instance
func NewPlayService(db *sql.DB, cfg *config.Config, logger *observability.Logger) *PlayService {
	minDistance := config.DefaultMinDistance
	ratio := config.DefaultDistanceRatio
	if cfg != nil {
		if cfg.Game.MinDistance > 0 {
			minDistance = cfg.Game.MinDistance
		}
		if cfg.Game.DistanceRatio > 0 {
			ratio = cfg.Game.DistanceRatio
		}
	}
	return &PlayService{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		matcher: match.NewMatcher(minDistance, ratio),
		timeNow: time.Now,
	}
}

// HasPlayedOn reports whether the user already closed the given date, in any language
func (s *PlayService) HasPlayedOn(ctx context.Context, userID int, date string) (result0 bool, err error) {
	ctx, span := observability.TracePlayFunction(ctx, "has_played_on",
		observability.AttributeUserID(userID),
		observability.AttributeDate(date),
	)
	defer observability.FinishSpan(span, &err)

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_history WHERE user_id = $1 AND play_date = $2 AND completed)`,
		userID, date).Scan(&exists)
	if err != nil {
		return false, contextutils.WrapError(err, "failed to check daily gate")
	}
	return exists, nil
}

// RecordResult closes one played day. The submitted date must be the user's
// current calendar day, the verdict is recomputed from the stored answer, and
// the history insert and the streak update happen in a single transaction.
// The unique (user_id, play_date) constraint makes concurrent reports
// idempotent: the first writer wins and every later report gets the stored
// verdict back.
func (s *PlayService) RecordResult(ctx context.Context, userID int, entry *models.DailyHistoryEntry) (result0 *RecordOutcome, err error) {
	ctx, span := observability.TracePlayFunction(ctx, "record_result",
		observability.AttributeUserID(userID),
		observability.AttributeDate(entry.Date),
		observability.AttributeLanguage(string(entry.Language)),
		observability.AttributeGuessCount(len(entry.Guesses)),
	)
	defer observability.FinishSpan(span, &err)

	if !entry.Language.IsValid() {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
	}
	if _, err = time.Parse(contextutils.DateLayout, entry.Date); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	if len(entry.Guesses) > config.MaxGuesses {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "too many guesses")
	}

	// Store normalized guesses only
	normalized := make([]string, 0, len(entry.Guesses))
	for _, g := range entry.Guesses {
		if n := match.Normalize(g); n != "" {
			normalized = append(normalized, n)
		}
	}

	// The user's timezone decides when a new puzzle day begins, so a report
	// for any other date is rejected rather than stored.
	today, _, err := contextutils.UserLocalToday(ctx, userID, s.timeNow(), s.lookupUser)
	if err != nil {
		return nil, err
	}
	if entry.Date != today {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "date is not the user's current day")
	}

	correct, err := s.scoreGuesses(ctx, entry.Language, entry.Date, normalized)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(observability.AttributeCorrect(correct))

	guessesJSON, err := (&models.DailyHistoryEntry{Guesses: normalized}).MarshalGuessesToJSON()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to encode guesses")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseTransaction, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn(ctx, "Failed to roll back transaction", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	now := time.Now()
	var insertedID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO daily_history (user_id, play_date, language, correct, completed, guesses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $6)
		ON CONFLICT (user_id, play_date) DO NOTHING
		RETURNING id`,
		userID, entry.Date, string(entry.Language), correct, guessesJSON, now).Scan(&insertedID)

	if errors.Is(err, sql.ErrNoRows) {
		// The day is already closed, return the stored verdict unchanged
		if err = tx.Commit(); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseTransaction, "failed to commit transaction")
		}
		stored, getErr := s.getEntry(ctx, userID, entry.Date)
		if getErr != nil {
			return nil, getErr
		}
		streak, getErr := s.GetStreak(ctx, userID)
		if getErr != nil {
			return nil, getErr
		}
		span.SetAttributes(attribute.Bool("play.already_played", true))
		return &RecordOutcome{
			Recorded:      false,
			AlreadyPlayed: true,
			Streak:        streak.Streak,
			Entry:         stored,
		}, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert history entry")
	}

	streak, err := s.advanceStreak(ctx, tx, userID, entry.Date, correct)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseTransaction, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Played day recorded", map[string]interface{}{
		"user_id":  userID,
		"date":     entry.Date,
		"language": string(entry.Language),
		"correct":  correct,
		"streak":   streak,
	})

	return &RecordOutcome{
		Recorded: true,
		Streak:   streak,
		Entry: &models.DailyHistoryEntry{
			ID:        insertedID,
			UserID:    userID,
			Date:      entry.Date,
			Language:  entry.Language,
			Correct:   correct,
			Completed: true,
			Guesses:   normalized,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}, nil
}

// scoreGuesses recomputes the day's verdict from the stored answer. Guesses
// are already normalized by the caller.
func (s *PlayService) scoreGuesses(ctx context.Context, language models.Language, date string, guesses []string) (bool, error) {
	var answer string
	err := s.db.QueryRowContext(ctx,
		`SELECT answer FROM puzzles WHERE language = $1 AND puzzle_date = $2`,
		string(language), date).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return false, contextutils.WrapError(contextutils.ErrPuzzleNotFound, "no puzzle for that language and date")
	}
	if err != nil {
		return false, contextutils.WrapError(err, "failed to load puzzle answer")
	}
	for _, g := range guesses {
		if ok, _ := s.matcher.Match(g, answer); ok {
			return true, nil
		}
	}
	return false, nil
}

// lookupUser fetches the timezone the daily gate needs to place the user's
// day boundary. An unknown user falls back to UTC.
func (s *PlayService) lookupUser(ctx context.Context, userID int) (*models.User, error) {
	user := &models.User{ID: userID}
	err := s.db.QueryRowContext(ctx, `SELECT timezone FROM users WHERE id = $1`, userID).Scan(&user.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query user timezone")
	}
	return user, nil
}

// advanceStreak applies the streak law inside the closing transaction. The
// ledger row is locked so concurrent closes for different dates serialize.
func (s *PlayService) advanceStreak(ctx context.Context, tx *sql.Tx, userID int, date string, correct bool) (int, error) {
	var prior int
	var lastPlayed sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT streak, to_char(last_played_date, 'YYYY-MM-DD') FROM user_streaks WHERE user_id = $1 FOR UPDATE`,
		userID).Scan(&prior, &lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, contextutils.WrapError(err, "failed to lock streak row")
	}

	// A report for a date at or before the last recorded day never moves the
	// ledger; the gate already stored the entry, nothing else to do.
	if lastPlayed.Valid && date <= lastPlayed.String {
		return prior, nil
	}

	streak := 0
	if correct {
		streak = 1
		if lastPlayed.Valid {
			next, nextErr := contextutils.NextCalendarDay(lastPlayed.String)
			if nextErr != nil {
				return 0, nextErr
			}
			if date == next {
				streak = prior + 1
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_streaks (user_id, streak, last_played_date, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET streak = $2, last_played_date = $3, updated_at = $4`,
		userID, streak, date, time.Now())
	if err != nil {
		return 0, contextutils.WrapError(err, "failed to update streak ledger")
	}
	return streak, nil
}

// GetStreak returns the user's streak ledger state, zero-valued when the
// user has never closed a day
func (s *PlayService) GetStreak(ctx context.Context, userID int) (result0 *models.StreakState, err error) {
	ctx, span := observability.TracePlayFunction(ctx, "get_streak",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	state := &models.StreakState{UserID: userID}
	err = s.db.QueryRowContext(ctx,
		`SELECT streak, to_char(last_played_date, 'YYYY-MM-DD'), updated_at FROM user_streaks WHERE user_id = $1`,
		userID).Scan(&state.Streak, &state.LastPlayedDate, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state, nil
		}
		return nil, contextutils.WrapError(err, "failed to query streak")
	}
	span.SetAttributes(observability.AttributeStreak(state.Streak))
	return state, nil
}

// GetHistory returns completed entries for the trailing window, keyed by date
func (s *PlayService) GetHistory(ctx context.Context, userID int, language models.Language, days int) (result0 map[string]models.DailyHistoryEntry, err error) {
	ctx, span := observability.TracePlayFunction(ctx, "get_history",
		observability.AttributeUserID(userID),
		observability.AttributeLanguage(string(language)),
		attribute.Int("play.history_days", days),
	)
	defer observability.FinishSpan(span, &err)

	if days <= 0 {
		days = config.DefaultHistoryDays
	}

	query := `SELECT id, user_id, to_char(play_date, 'YYYY-MM-DD'), language, correct, completed, guesses, created_at, updated_at
		FROM daily_history
		WHERE user_id = $1 AND play_date >= CURRENT_DATE - $2::int`
	args := []interface{}{userID, days}
	if language != "" {
		query += ` AND language = $3`
		args = append(args, string(language))
	}
	query += ` ORDER BY play_date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query history")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	history := make(map[string]models.DailyHistoryEntry)
	for rows.Next() {
		var entry models.DailyHistoryEntry
		var guessesJSON string
		if err = rows.Scan(
			&entry.ID, &entry.UserID, &entry.Date, &entry.Language,
			&entry.Correct, &entry.Completed, &guessesJSON, &entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan history row")
		}
		if err = entry.UnmarshalGuessesFromJSON(guessesJSON); err != nil {
			return nil, contextutils.WrapError(err, "failed to decode stored guesses")
		}
		history[entry.Date] = entry
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate history rows")
	}
	return history, nil
}

// GetStatus assembles the authoritative play view for one scope. The streak
// is always the global ledger value; only the history window narrows when a
// language scope is requested.
func (s *PlayService) GetStatus(ctx context.Context, userID int, language models.Language, scope string) (result0 *models.PlayStatus, err error) {
	ctx, span := observability.TracePlayFunction(ctx, "get_status",
		observability.AttributeUserID(userID),
		observability.AttributeScope(scope),
	)
	defer observability.FinishSpan(span, &err)

	if scope != models.ScopeGlobal {
		if !language.IsValid() {
			return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
		}
	} else {
		language = ""
	}

	days := config.DefaultHistoryDays
	if s.cfg != nil && s.cfg.Server.MaxHistoryDays > 0 {
		days = s.cfg.Server.MaxHistoryDays
	}

	history, err := s.GetHistory(ctx, userID, language, days)
	if err != nil {
		return nil, err
	}
	streak, err := s.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.PlayStatus{
		History: history,
		Streak:  streak.Streak,
	}, nil
}

// getEntry fetches the stored entry for one (user, date) pair
func (s *PlayService) getEntry(ctx context.Context, userID int, date string) (*models.DailyHistoryEntry, error) {
	entry := &models.DailyHistoryEntry{}
	var guessesJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, to_char(play_date, 'YYYY-MM-DD'), language, correct, completed, guesses, created_at, updated_at
		FROM daily_history WHERE user_id = $1 AND play_date = $2`,
		userID, date).Scan(
		&entry.ID, &entry.UserID, &entry.Date, &entry.Language,
		&entry.Correct, &entry.Completed, &guessesJSON, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapError(err, "failed to query history entry")
	}
	if err = entry.UnmarshalGuessesFromJSON(guessesJSON); err != nil {
		return nil, contextutils.WrapError(err, "failed to decode stored guesses")
	}
	return entry, nil
}
