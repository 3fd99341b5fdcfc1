package handlers

import (
	"time"

	"modleapp/internal/api"
	"modleapp/internal/models"
	contextutils "modleapp/internal/utils"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Helper functions for pointer conversion
func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func int64Ptr(i int) *int64 {
	i64 := int64(i)
	return &i64
}

// formatTimePtr formats a time.Time into an RFC3339 string pointer
func formatTimePtr(t time.Time) *string {
	s := t.In(time.UTC).Format(time.RFC3339)
	return &s
}

// formatTimePointer converts a *time.Time to *string (RFC3339) or nil
func formatTimePointer(tp *time.Time) *string {
	if tp == nil {
		return nil
	}
	s := tp.In(time.UTC).Format(time.RFC3339)
	return &s
}

// dateFromString parses a YYYY-MM-DD calendar date into an openapi date.
// Malformed input yields the zero date; callers validate dates upstream.
func dateFromString(date string) openapi_types.Date {
	t, err := time.Parse(contextutils.DateLayout, date)
	if err != nil {
		return openapi_types.Date{}
	}
	return openapi_types.Date{Time: t}
}

// Convert models.User to api.User
func convertUserToAPI(user *models.User) api.User {
	apiUser := api.User{
		Id:       int64Ptr(user.ID),
		Username: stringPtr(user.Username),
	}

	if !user.CreatedAt.IsZero() {
		apiUser.CreatedAt = formatTimePtr(user.CreatedAt)
	}

	if user.LastActive.Valid {
		apiUser.LastActive = formatTimePointer(&user.LastActive.Time)
	}

	if user.Email.Valid {
		email := openapi_types.Email(user.Email.String)
		apiUser.Email = &email
	}

	if user.Timezone.Valid {
		s := user.Timezone.String
		apiUser.Timezone = &s
	}

	if user.PreferredLanguage.Valid {
		lang := api.Language(user.PreferredLanguage.String)
		apiUser.PreferredLanguage = &lang
	}

	return apiUser
}

// Convert models.Puzzle to api.Puzzle. The answer is part of the playable
// payload so the client can score guesses locally.
func convertPuzzleToAPI(puzzle *models.Puzzle) api.Puzzle {
	return api.Puzzle{
		Language:  api.Language(puzzle.Language),
		Date:      dateFromString(puzzle.Date),
		Answer:    puzzle.Answer,
		Hints:     puzzle.Hints,
		HintCount: len(puzzle.Hints),
	}
}

// Convert models.DailyHistoryEntry to api.HistoryEntry
func convertEntryToAPI(entry *models.DailyHistoryEntry) api.HistoryEntry {
	apiEntry := api.HistoryEntry{
		Date:      dateFromString(entry.Date),
		Language:  api.Language(entry.Language),
		Correct:   entry.Correct,
		Completed: entry.Completed,
	}

	if entry.Guesses != nil {
		guesses := entry.Guesses
		apiEntry.Guesses = &guesses
	}

	return apiEntry
}

// Convert models.PlayStatus to api.StatusResponse for the given scope
func convertStatusToAPI(status *models.PlayStatus, scope string) api.StatusResponse {
	history := make(map[string]api.HistoryEntry, len(status.History))
	for date := range status.History {
		entry := status.History[date]
		history[date] = convertEntryToAPI(&entry)
	}

	return api.StatusResponse{
		History: history,
		Scope:   scope,
		Streak:  status.Streak,
	}
}
