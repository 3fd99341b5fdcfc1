package services

import (
	"context"
	"testing"

	"modleapp/internal/config"
	"modleapp/internal/models"
	contextutils "modleapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPuzzleService_GetPuzzle_Validation(t *testing.T) {
	service := NewPuzzleService(nil, &config.Config{}, newTestLogger())
	ctx := context.Background()

	_, err := service.GetPuzzle(ctx, models.Language("klingon"), "2026-08-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, contextutils.ErrInvalidInput)

	_, err = service.GetPuzzle(ctx, models.English, "08/01/2026")
	require.Error(t, err)
	assert.ErrorIs(t, err, contextutils.ErrInvalidFormat)

	_, err = service.GetPuzzle(ctx, models.English, "2026-13-40")
	require.Error(t, err)
	assert.ErrorIs(t, err, contextutils.ErrInvalidFormat)
}

func TestPuzzleService_CreatePuzzle_Validation(t *testing.T) {
	service := NewPuzzleService(nil, &config.Config{}, newTestLogger())
	ctx := context.Background()

	base := func() *models.Puzzle {
		return &models.Puzzle{
			Language: models.English,
			Date:     "2026-08-01",
			Answer:   "Inception",
			Hints:    []string{"Released in 2010"},
		}
	}

	p := base()
	p.Language = "klingon"
	_, err := service.CreatePuzzle(ctx, p)
	assert.ErrorIs(t, err, contextutils.ErrInvalidInput)

	p = base()
	p.Date = "yesterday"
	_, err = service.CreatePuzzle(ctx, p)
	assert.ErrorIs(t, err, contextutils.ErrInvalidFormat)

	// An answer with no letters or digits normalizes to nothing
	p = base()
	p.Answer = "?!..."
	_, err = service.CreatePuzzle(ctx, p)
	assert.ErrorIs(t, err, contextutils.ErrInvalidInput)

	p = base()
	p.Hints = nil
	_, err = service.CreatePuzzle(ctx, p)
	assert.ErrorIs(t, err, contextutils.ErrInvalidInput)

	p = base()
	p.Hints = []string{"1", "2", "3", "4", "5", "6"}
	_, err = service.CreatePuzzle(ctx, p)
	assert.ErrorIs(t, err, contextutils.ErrInvalidInput)
}

func TestPuzzleService_SuggestAnswers_EmptyGuess(t *testing.T) {
	service := NewPuzzleService(nil, &config.Config{}, newTestLogger())

	// Nothing to match against, no database access needed
	results, err := service.SuggestAnswers(context.Background(), models.English, "?!", 2)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestPuzzleService_SuggestAnswers_NegativeDistance(t *testing.T) {
	service := NewPuzzleService(nil, &config.Config{}, newTestLogger())

	_, err := service.SuggestAnswers(context.Background(), models.English, "Inception", -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, contextutils.ErrInvalidInput)
}
