//go:build test

package config

// Test data constants - only available during testing
const (
	// Mock user IDs
	TestUserID = 123

	// Mock puzzle data
	TestPuzzleLanguage = "english"
	TestPuzzleDate     = "2026-08-01"
	TestPuzzleAnswer   = "INCEPTION"

	// Mock streak values
	MockStreak         = 7
	MockLastPlayedDate = "2026-07-31"
)
