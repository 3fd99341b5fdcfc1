package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{
			name: "complete user with all fields",
			user: User{
				ID:                1,
				Username:          "testuser",
				Email:             sql.NullString{String: "test@example.com", Valid: true},
				Timezone:          sql.NullString{String: "UTC", Valid: true},
				LastActive:        sql.NullTime{Time: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), Valid: true},
				PreferredLanguage: sql.NullString{String: "english", Valid: true},
				CreatedAt:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				UpdatedAt:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			},
			expected: `{"id":1,"username":"testuser","email":"test@example.com","timezone":"UTC","last_active":"2023-01-01T12:00:00Z","preferred_language":"english","created_at":"2023-01-01T00:00:00Z","updated_at":"2023-01-02T00:00:00Z"}`,
		},
		{
			name: "user with null fields",
			user: User{
				ID:                2,
				Username:          "nulluser",
				Email:             sql.NullString{Valid: false},
				Timezone:          sql.NullString{Valid: false},
				LastActive:        sql.NullTime{Valid: false},
				PreferredLanguage: sql.NullString{Valid: false},
				CreatedAt:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				UpdatedAt:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			expected: `{"id":2,"username":"nulluser","email":null,"timezone":null,"last_active":null,"preferred_language":null,"created_at":"2023-01-01T00:00:00Z","updated_at":"2023-01-01T00:00:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestUser_MarshalJSON_OmitsPasswordHash(t *testing.T) {
	user := User{
		ID:           1,
		Username:     "secretuser",
		PasswordHash: sql.NullString{String: "$2a$10$something", Valid: true},
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "$2a$10$")
}

func TestLanguage_IsValid(t *testing.T) {
	for _, lang := range AllLanguages() {
		assert.True(t, lang.IsValid(), "expected %s to be valid", lang)
	}

	assert.False(t, Language("klingon").IsValid())
	assert.False(t, Language("").IsValid())
	assert.False(t, Language("English").IsValid())
	assert.False(t, Language(ScopeGlobal).IsValid())
}

func TestAllLanguages_CountAndOrder(t *testing.T) {
	langs := AllLanguages()
	require.Len(t, langs, 6)
	assert.Equal(t, English, langs[0])
	assert.Equal(t, Portuguese, langs[5])
}

func TestPuzzle_HintsJSONRoundTrip(t *testing.T) {
	p := &Puzzle{
		Language: English,
		Date:     "2026-08-01",
		Answer:   "INCEPTION",
		Hints:    []string{"2010", "Christopher Nolan", "Leonardo DiCaprio", "dream heist", "spinning top"},
	}

	data, err := p.MarshalHintsToJSON()
	require.NoError(t, err)

	var restored Puzzle
	require.NoError(t, restored.UnmarshalHintsFromJSON(data))
	assert.Equal(t, p.Hints, restored.Hints)
}

func TestPuzzle_UnmarshalHintsFromJSON_Invalid(t *testing.T) {
	var p Puzzle
	assert.Error(t, p.UnmarshalHintsFromJSON("not json"))
}

func TestDailyHistoryEntry_GuessesJSONRoundTrip(t *testing.T) {
	entry := &DailyHistoryEntry{
		UserID:   1,
		Date:     "2026-08-01",
		Language: French,
		Guesses:  []string{"INCEPTON", "INCEPTION"},
	}

	data, err := entry.MarshalGuessesToJSON()
	require.NoError(t, err)

	var restored DailyHistoryEntry
	require.NoError(t, restored.UnmarshalGuessesFromJSON(data))
	assert.Equal(t, entry.Guesses, restored.Guesses)
}

func TestStreakState_MarshalJSON(t *testing.T) {
	t.Run("with last played date", func(t *testing.T) {
		s := StreakState{
			UserID:         7,
			Streak:         12,
			LastPlayedDate: sql.NullString{String: "2026-08-01", Valid: true},
			UpdatedAt:      time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		}

		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, `{"user_id":7,"streak":12,"last_played_date":"2026-08-01","updated_at":"2026-08-01T09:00:00Z"}`, string(data))
	})

	t.Run("never played", func(t *testing.T) {
		s := StreakState{UserID: 8}

		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"last_played_date":null`)
		assert.Contains(t, string(data), `"streak":0`)
	})
}

func TestPlayStatus_MarshalJSON(t *testing.T) {
	status := PlayStatus{
		History: map[string]DailyHistoryEntry{
			"2026-08-01": {
				UserID:    1,
				Date:      "2026-08-01",
				Language:  English,
				Correct:   true,
				Completed: true,
				Guesses:   []string{"PARASITE", "INCEPTION"},
			},
		},
		Streak: 3,
	}

	data, err := json.Marshal(status)
	require.NoError(t, err)

	var decoded PlayStatus
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded.Streak)
	require.Contains(t, decoded.History, "2026-08-01")
	assert.True(t, decoded.History["2026-08-01"].Correct)
	assert.Equal(t, []string{"PARASITE", "INCEPTION"}, decoded.History["2026-08-01"].Guesses)
}
