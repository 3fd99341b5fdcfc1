package gameclient

import (
	"context"

	"modleapp/internal/game"
	"modleapp/internal/models"
	contextutils "modleapp/internal/utils"
)

// ContentAdapter feeds puzzle sessions from the backend by converting the
// wire payload into the model the session scores guesses against.
type ContentAdapter struct {
	client *Client
}

var _ game.ContentProvider = (*ContentAdapter)(nil)

// NewContentAdapter wraps a client so sessions can load puzzles through it.
func NewContentAdapter(client *Client) *ContentAdapter {
	return &ContentAdapter{client: client}
}

// GetPuzzle fetches one day's puzzle and converts it for session play.
func (a *ContentAdapter) GetPuzzle(ctx context.Context, language models.Language, date string) (*models.Puzzle, error) {
	payload, err := a.client.GetPuzzle(ctx, language, date)
	if err != nil {
		return nil, err
	}
	return &models.Puzzle{
		Language: models.Language(payload.Language),
		Date:     payload.Date.Format(contextutils.DateLayout),
		Answer:   payload.Answer,
		Hints:    payload.Hints,
	}, nil
}
