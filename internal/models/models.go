// Package models defines data structures used throughout the modle application.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Language identifies one of the playable puzzle languages.
type Language string

// Puzzle languages supported by the system
const (
	English    Language = "english"
	Spanish    Language = "spanish"
	French     Language = "french"
	German     Language = "german"
	Italian    Language = "italian"
	Portuguese Language = "portuguese"
)

// AllLanguages lists every playable language in display order.
func AllLanguages() []Language {
	return []Language{English, Spanish, French, German, Italian, Portuguese}
}

// IsValid reports whether the language is one of the playable languages.
func (l Language) IsValid() bool {
	switch l {
	case English, Spanish, French, German, Italian, Portuguese:
		return true
	}
	return false
}

// ScopeGlobal is the status scope that unions play history across all languages.
const ScopeGlobal = "global"

// User represents a user in the system
type User struct {
	ID                int            `json:"id" yaml:"id"`
	Username          string         `json:"username" yaml:"username"`
	Email             sql.NullString `json:"email" yaml:"email"`
	Timezone          sql.NullString `json:"timezone" yaml:"timezone"`
	PasswordHash      sql.NullString `json:"-" yaml:"-"` // Omit from JSON responses
	LastActive        sql.NullTime   `json:"last_active" yaml:"last_active"`
	PreferredLanguage sql.NullString `json:"preferred_language" yaml:"preferred_language"`
	CreatedAt         time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" yaml:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for User to handle sql.NullString and sql.NullTime properly
func (u User) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID                int        `json:"id"`
		Username          string     `json:"username"`
		Email             *string    `json:"email"`
		Timezone          *string    `json:"timezone"`
		LastActive        *time.Time `json:"last_active"`
		PreferredLanguage *string    `json:"preferred_language"`
		CreatedAt         time.Time  `json:"created_at"`
		UpdatedAt         time.Time  `json:"updated_at"`
	}{
		ID:                u.ID,
		Username:          u.Username,
		Email:             nullStringToPointer(u.Email),
		Timezone:          nullStringToPointer(u.Timezone),
		LastActive:        nullTimeToPointer(u.LastActive),
		PreferredLanguage: nullStringToPointer(u.PreferredLanguage),
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	})
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// Puzzle is one day's riddle for one language: the answer title plus an
// ordered hint sequence. Immutable once published for a (language, date) pair.
type Puzzle struct {
	ID        int       `json:"id" yaml:"id"`
	Language  Language  `json:"language" yaml:"language"`
	Date      string    `json:"date" yaml:"date"` // YYYY-MM-DD, local calendar date
	Answer    string    `json:"answer" yaml:"answer"`
	Hints     []string  `json:"hints" yaml:"hints"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// MarshalHintsToJSON serializes the hint sequence for database storage
func (p *Puzzle) MarshalHintsToJSON() (result0 string, err error) {
	data, err := json.Marshal(p.Hints)
	return string(data), err
}

// UnmarshalHintsFromJSON deserializes a stored hint sequence
func (p *Puzzle) UnmarshalHintsFromJSON(data string) error {
	return json.Unmarshal([]byte(data), &p.Hints)
}

// GuessAttempt is one scored guess inside a session: the raw text, its
// normalized form, and the verdict against the answer.
type GuessAttempt struct {
	Text       string `json:"text"`
	Normalized string `json:"normalized"`
	Distance   int    `json:"distance"`
	Correct    bool   `json:"correct"`
}

// DailyHistoryEntry records one user's play on one calendar date. At most one
// entry exists per (user, date) regardless of language; creating an entry for
// any language closes that date for all languages once the day finishes.
type DailyHistoryEntry struct {
	ID        int       `json:"id" yaml:"id"`
	UserID    int       `json:"user_id" yaml:"user_id"`
	Date      string    `json:"date" yaml:"date"` // YYYY-MM-DD
	Language  Language  `json:"language" yaml:"language"`
	Correct   bool      `json:"correct" yaml:"correct"`
	Completed bool      `json:"completed" yaml:"completed"`
	Guesses   []string  `json:"guesses" yaml:"guesses"` // normalized guess texts, in order
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// MarshalGuessesToJSON serializes the guess list for database storage
func (e *DailyHistoryEntry) MarshalGuessesToJSON() (result0 string, err error) {
	data, err := json.Marshal(e.Guesses)
	return string(data), err
}

// UnmarshalGuessesFromJSON deserializes a stored guess list
func (e *DailyHistoryEntry) UnmarshalGuessesFromJSON(data string) error {
	return json.Unmarshal([]byte(data), &e.Guesses)
}

// StreakState is the server-authoritative consecutive-day run for a user.
// LastPlayedDate is NULL until the user closes their first day.
type StreakState struct {
	UserID         int            `json:"user_id" yaml:"user_id"`
	Streak         int            `json:"streak" yaml:"streak"`
	LastPlayedDate sql.NullString `json:"last_played_date" yaml:"last_played_date"` // YYYY-MM-DD
	UpdatedAt      time.Time      `json:"updated_at" yaml:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for StreakState to handle the nullable date
func (s StreakState) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		UserID         int       `json:"user_id"`
		Streak         int       `json:"streak"`
		LastPlayedDate *string   `json:"last_played_date"`
		UpdatedAt      time.Time `json:"updated_at"`
	}{
		UserID:         s.UserID,
		Streak:         s.Streak,
		LastPlayedDate: nullStringToPointer(s.LastPlayedDate),
		UpdatedAt:      s.UpdatedAt,
	})
}

// PlayStatus is the authoritative view the status endpoint returns for one
// scope: dated history entries plus the global streak.
type PlayStatus struct {
	History map[string]DailyHistoryEntry `json:"history"` // keyed by YYYY-MM-DD
	Streak  int                          `json:"streak"`
}
