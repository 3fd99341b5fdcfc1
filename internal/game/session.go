// Package game implements the per-user, per-language, per-day puzzle session
// state machine: loading the day's puzzle, pacing hint reveals against
// guesses, scoring guesses, and closing the day exactly once.
package game

import (
	"context"
	"time"

	"modleapp/internal/config"
	"modleapp/internal/match"
	"modleapp/internal/models"
	contextutils "modleapp/internal/utils"
)

// State names a position in the session lifecycle.
type State string

const (
	// StateLoading means the puzzle fetch has not completed yet
	StateLoading State = "loading"
	// StateReady means the puzzle is loaded and no guess has been made
	StateReady State = "ready"
	// StateAwaitingGuess means at least one hint is revealed and a guess is expected
	StateAwaitingGuess State = "awaiting_guess"
	// StateHintRevealed means a new hint was just revealed for the next guess
	StateHintRevealed State = "hint_revealed"
	// StateSolved means the day closed with a correct guess
	StateSolved State = "solved"
	// StateLocked means the day closed without a correct guess
	StateLocked State = "locked"
)

// ContentProvider supplies the immutable puzzle for a (language, date) pair.
type ContentProvider interface {
	GetPuzzle(ctx context.Context, language models.Language, date string) (*models.Puzzle, error)
}

// Session drives one user's play of one (language, date) puzzle. It is not
// safe for concurrent use; the authoritative store, not the session, is the
// source of truth for whether the day is closed.
type Session struct {
	UserID   int
	Language models.Language
	Date     string

	puzzle        *models.Puzzle
	guesses       []models.GuessAttempt
	revealedHints int
	entry         *models.DailyHistoryEntry
	state         State
	degraded      bool
	matcher       *match.Matcher
	provider      ContentProvider
}

// NewSession creates a session in the Loading state. Call Load before
// revealing hints or submitting guesses.
func NewSession(provider ContentProvider, matcher *match.Matcher, userID int, language models.Language, date string) *Session {
	return &Session{
		UserID:   userID,
		Language: language,
		Date:     date,
		state:    StateLoading,
		matcher:  matcher,
		provider: provider,
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Degraded reports whether the session is running on a placeholder puzzle
// because the content fetch failed.
func (s *Session) Degraded() bool {
	return s.degraded
}

// Puzzle returns the loaded puzzle, or nil before Load.
func (s *Session) Puzzle() *models.Puzzle {
	return s.puzzle
}

// Guesses returns the attempts made so far, in order.
func (s *Session) Guesses() []models.GuessAttempt {
	return s.guesses
}

// RevealedHints returns how many hints the player has seen.
func (s *Session) RevealedHints() int {
	return s.revealedHints
}

// Entry returns the closed day's history entry, or nil while the day is open.
func (s *Session) Entry() *models.DailyHistoryEntry {
	return s.entry
}

// HintCap returns the maximum number of hints this session can reveal.
func (s *Session) HintCap() int {
	if s.puzzle == nil {
		return 0
	}
	limit := len(s.puzzle.Hints)
	if limit > config.MaxHintsPerPuzzle {
		limit = config.MaxHintsPerPuzzle
	}
	return limit
}

// Load fetches the puzzle for the session's (language, date). On provider
// failure the session still becomes playable-looking (degraded Ready with a
// placeholder puzzle) and the error is surfaced to the caller; it never
// silently succeeds.
func (s *Session) Load(ctx context.Context) error {
	puzzle, err := s.provider.GetPuzzle(ctx, s.Language, s.Date)
	if err != nil || puzzle == nil {
		s.puzzle = &models.Puzzle{
			Language: s.Language,
			Date:     s.Date,
			Answer:   "",
			Hints:    []string{},
		}
		s.degraded = true
		s.state = StateReady
		if err == nil {
			err = contextutils.ErrPuzzleNotFound
		}
		return contextutils.WrapError(err, "failed to load puzzle")
	}

	s.puzzle = puzzle
	s.state = StateReady
	return nil
}

// Resume restores a previously persisted day onto a loaded session. A closed
// entry moves the session straight to its terminal state; an open entry
// replays the guess log so pacing picks up where it left off.
func (s *Session) Resume(entry *models.DailyHistoryEntry) {
	if entry == nil {
		return
	}
	for _, g := range entry.Guesses {
		s.guesses = append(s.guesses, models.GuessAttempt{Text: g, Normalized: match.Normalize(g)})
	}
	// The player has seen one hint per logged guess
	s.revealedHints = len(entry.Guesses)
	if limit := s.HintCap(); s.revealedHints > limit {
		s.revealedHints = limit
	}

	if entry.Completed {
		s.entry = entry
		if entry.Correct {
			s.state = StateSolved
		} else {
			s.state = StateLocked
		}
		return
	}
	if len(s.guesses) > 0 {
		s.state = StateAwaitingGuess
	}
}

// RevealHint uncovers the next hint and returns it. Revealing past the cap
// or on a closed day is rejected.
func (s *Session) RevealHint() (string, error) {
	switch s.state {
	case StateLoading:
		return "", contextutils.ErrContentUnavailable
	case StateSolved, StateLocked:
		return "", contextutils.ErrSessionClosed
	}
	if s.degraded {
		return "", contextutils.ErrContentUnavailable
	}

	if s.revealedHints >= s.HintCap() {
		return "", contextutils.NewAppError(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityInfo,
			"No hints left to reveal",
			"",
		)
	}

	hint := s.puzzle.Hints[s.revealedHints]
	s.revealedHints++
	s.state = StateHintRevealed
	return hint, nil
}

// SubmitGuess scores one guess. The guess log and hint counter advance
// together, so each hint buys exactly one guess until the hint cap is
// reached. A correct guess closes the day as Solved; exhausting the guess
// cap closes it as Locked; anything else keeps the session open.
func (s *Session) SubmitGuess(text string) (*models.GuessAttempt, error) {
	switch s.state {
	case StateLoading:
		return nil, contextutils.ErrContentUnavailable
	case StateSolved, StateLocked:
		return nil, contextutils.ErrAlreadyPlayedToday
	}
	if s.degraded {
		return nil, contextutils.ErrContentUnavailable
	}

	if s.entry != nil && s.entry.Completed {
		return nil, contextutils.ErrAlreadyPlayedToday
	}

	hintCap := s.HintCap()
	if s.revealedHints < hintCap && len(s.guesses) >= s.revealedHints {
		return nil, contextutils.ErrHintRequired
	}

	correct, distance := s.matcher.Match(text, s.puzzle.Answer)
	attempt := models.GuessAttempt{
		Text:       text,
		Normalized: match.Normalize(text),
		Distance:   distance,
		Correct:    correct,
	}
	s.guesses = append(s.guesses, attempt)
	if s.revealedHints < hintCap {
		s.revealedHints++
	}

	switch {
	case correct:
		s.close(true)
	case len(s.guesses) >= config.MaxGuesses:
		s.close(false)
	default:
		s.state = StateAwaitingGuess
	}

	return &attempt, nil
}

// Close finalizes the day with the given verdict. Closing an already-closed
// session is a no-op returning the existing entry.
func (s *Session) Close(correct bool) *models.DailyHistoryEntry {
	if s.entry != nil && s.entry.Completed {
		return s.entry
	}
	s.close(correct)
	return s.entry
}

func (s *Session) close(correct bool) {
	if s.entry != nil && s.entry.Completed {
		return
	}

	normalized := make([]string, 0, len(s.guesses))
	for _, g := range s.guesses {
		normalized = append(normalized, g.Normalized)
	}

	now := time.Now()
	s.entry = &models.DailyHistoryEntry{
		UserID:    s.UserID,
		Date:      s.Date,
		Language:  s.Language,
		Correct:   correct,
		Completed: true,
		Guesses:   normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if correct {
		s.state = StateSolved
	} else {
		s.state = StateLocked
	}
}
