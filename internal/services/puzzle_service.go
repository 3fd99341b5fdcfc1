package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"modleapp/internal/config"
	"modleapp/internal/match"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	contextutils "modleapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// PuzzleServiceInterface defines the interface for puzzle content operations.
type PuzzleServiceInterface interface {
	GetPuzzle(ctx context.Context, language models.Language, date string) (*models.Puzzle, error)
	CreatePuzzle(ctx context.Context, puzzle *models.Puzzle) (*models.Puzzle, error)
	GetAnswers(ctx context.Context, language models.Language) ([]string, error)
	SuggestAnswers(ctx context.Context, language models.Language, guess string, maxDistance int) ([]match.Result, error)
}

// PuzzleService serves the published puzzle catalog. Puzzles are immutable
// once published for a (language, date) pair; there is no update path.
type PuzzleService struct {
	db     *sql.DB
	cfg    *config.Config
	logger *observability.Logger

	// Per-language answer indexes for close-match suggestions, built lazily
	// and invalidated when a puzzle is published.
	mu      sync.RWMutex
	indexes map[models.Language]*match.BKTree
}

// Ensure PuzzleService implements the PuzzleServiceInterface
var _ PuzzleServiceInterface = (*PuzzleService)(nil)

// NewPuzzleService creates a new PuzzleService instance
func NewPuzzleService(db *sql.DB, cfg *config.Config, logger *observability.Logger) *PuzzleService {
	return &PuzzleService{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		indexes: make(map[models.Language]*match.BKTree),
	}
}

// GetPuzzle returns the puzzle for one (language, date) pair
func (s *PuzzleService) GetPuzzle(ctx context.Context, language models.Language, date string) (result0 *models.Puzzle, err error) {
	ctx, span := observability.TracePuzzleFunction(ctx, "get_puzzle",
		observability.AttributeLanguage(string(language)),
		observability.AttributeDate(date),
	)
	defer observability.FinishSpan(span, &err)

	if !language.IsValid() {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
	}
	if _, err = time.Parse(contextutils.DateLayout, date); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}

	query := `SELECT id, language, to_char(puzzle_date, 'YYYY-MM-DD'), answer, hints, created_at
		FROM puzzles WHERE language = $1 AND puzzle_date = $2`

	puzzle := &models.Puzzle{}
	var hintsJSON string
	err = s.db.QueryRowContext(ctx, query, string(language), date).Scan(
		&puzzle.ID, &puzzle.Language, &puzzle.Date, &puzzle.Answer, &hintsJSON, &puzzle.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.ErrPuzzleNotFound
		}
		return nil, contextutils.WrapError(err, "failed to query puzzle")
	}

	if err = puzzle.UnmarshalHintsFromJSON(hintsJSON); err != nil {
		return nil, contextutils.WrapError(err, "failed to decode puzzle hints")
	}
	return puzzle, nil
}

// CreatePuzzle publishes a puzzle. Publishing a second puzzle for an already
// occupied (language, date) pair is rejected, never overwritten.
func (s *PuzzleService) CreatePuzzle(ctx context.Context, puzzle *models.Puzzle) (result0 *models.Puzzle, err error) {
	ctx, span := observability.TracePuzzleFunction(ctx, "create_puzzle",
		observability.AttributeLanguage(string(puzzle.Language)),
		observability.AttributeDate(puzzle.Date),
	)
	defer observability.FinishSpan(span, &err)

	if !puzzle.Language.IsValid() {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
	}
	if _, err = time.Parse(contextutils.DateLayout, puzzle.Date); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	if match.Normalize(puzzle.Answer) == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "answer must contain at least one letter or digit")
	}
	if len(puzzle.Hints) == 0 || len(puzzle.Hints) > config.MaxHintsPerPuzzle {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "puzzle must carry between one and five hints")
	}

	hintsJSON, err := puzzle.MarshalHintsToJSON()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to encode puzzle hints")
	}

	query := `INSERT INTO puzzles (language, puzzle_date, answer, hints, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int
	err = s.db.QueryRowContext(ctx, query,
		string(puzzle.Language), puzzle.Date, puzzle.Answer, hintsJSON, time.Now()).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.ErrRecordExists
		}
		return nil, contextutils.WrapError(err, "failed to insert puzzle")
	}

	s.invalidateIndex(puzzle.Language)

	s.logger.Info(ctx, "Puzzle published", map[string]interface{}{
		"language": string(puzzle.Language),
		"date":     puzzle.Date,
	})

	return s.GetPuzzle(ctx, puzzle.Language, puzzle.Date)
}

// GetAnswers returns the normalized answers of every published puzzle in one language
func (s *PuzzleService) GetAnswers(ctx context.Context, language models.Language) (result0 []string, err error) {
	ctx, span := observability.TracePuzzleFunction(ctx, "get_answers",
		observability.AttributeLanguage(string(language)),
	)
	defer observability.FinishSpan(span, &err)

	if !language.IsValid() {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT answer FROM puzzles WHERE language = $1 ORDER BY puzzle_date`, string(language))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query answers")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var answers []string
	for rows.Next() {
		var answer string
		if err = rows.Scan(&answer); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan answer row")
		}
		if normalized := match.Normalize(answer); normalized != "" {
			answers = append(answers, normalized)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate answer rows")
	}
	return answers, nil
}

// SuggestAnswers returns catalog answers within maxDistance edits of the guess
func (s *PuzzleService) SuggestAnswers(ctx context.Context, language models.Language, guess string, maxDistance int) (result0 []match.Result, err error) {
	ctx, span := observability.TraceMatchFunction(ctx, "suggest_answers",
		observability.AttributeLanguage(string(language)),
	)
	defer observability.FinishSpan(span, &err)

	normalized := match.Normalize(guess)
	if normalized == "" {
		return nil, nil
	}
	if maxDistance < 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "max distance cannot be negative")
	}

	index, err := s.index(ctx, language)
	if err != nil {
		return nil, err
	}

	results := index.Query(normalized, maxDistance)
	span.SetAttributes(attribute.Int("match.results", len(results)))
	return results, nil
}

// index returns the answer index for one language, building it on first use
func (s *PuzzleService) index(ctx context.Context, language models.Language) (*match.BKTree, error) {
	s.mu.RLock()
	tree, ok := s.indexes[language]
	s.mu.RUnlock()
	if ok {
		return tree, nil
	}

	answers, err := s.GetAnswers(ctx, language)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have built it while we queried
	if tree, ok = s.indexes[language]; ok {
		return tree, nil
	}
	tree = match.NewBKTree(answers...)
	s.indexes[language] = tree

	s.logger.Debug(ctx, "Built answer index", map[string]interface{}{
		"language": string(language),
		"size":     tree.Size(),
	})
	return tree, nil
}

func (s *PuzzleService) invalidateIndex(language models.Language) {
	s.mu.Lock()
	delete(s.indexes, language)
	s.mu.Unlock()
}
