package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	ServerShutdownTimeout = 30 * time.Second
	WorkerShutdownTimeout = 30 * time.Second
	TestTimeout           = 100 * time.Millisecond

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days

	// Reminder mailer timeouts
	ReminderCheckInterval = 15 * time.Minute
)

// Gameplay constants
const (
	// MaxGuesses caps guesses per session at one per hint.
	MaxGuesses = 5

	// MaxHintsPerPuzzle bounds the hint sequence a puzzle may carry.
	MaxHintsPerPuzzle = 5

	// DefaultHistoryDays is the status-endpoint history window when the
	// server config leaves max_history_days unset.
	DefaultHistoryDays = 30

	// Fuzzy-match threshold defaults: a guess matches when its edit
	// distance is at most max(DefaultMinDistance, ceil(DefaultDistanceRatio * len)).
	DefaultMinDistance   = 2
	DefaultDistanceRatio = 0.2
)

// Session configuration constants
const (
	// Session settings
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	// Session name
	SessionName = "modle-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob: data:;"
)
