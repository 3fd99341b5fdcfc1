package handlers

import (
	"context"
	"database/sql"

	"modleapp/internal/match"
	"modleapp/internal/models"
	"modleapp/internal/services"
)

// mockUserService implements services.UserServiceInterface with overridable funcs
type mockUserService struct {
	authenticateUserFn    func(ctx context.Context, username, password string) (*models.User, error)
	getUserByIDFn         func(ctx context.Context, id int) (*models.User, error)
	getUserByUsernameFn   func(ctx context.Context, username string) (*models.User, error)
	getUserByEmailFn      func(ctx context.Context, email string) (*models.User, error)
	createUserFn          func(ctx context.Context, username, password, email, timezone string, language models.Language) (*models.User, error)
	updateUserProfileFn   func(ctx context.Context, userID int, email, timezone string, language models.Language) error
	updateUserPasswordFn  func(ctx context.Context, userID int, newPassword string) error
	getAllUsersFn         func(ctx context.Context) ([]models.User, error)
	deleteUserFn          func(ctx context.Context, userID int) error
	isAdminFn             func(ctx context.Context, userID int) (bool, error)
}

var _ services.UserServiceInterface = (*mockUserService)(nil)

func (m *mockUserService) CreateUserWithPassword(ctx context.Context, username, password string, language models.Language) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, username, password, "", "UTC", language)
	}
	return nil, nil
}

func (m *mockUserService) CreateUserWithEmailAndTimezone(ctx context.Context, username, password, email, timezone string, language models.Language) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, username, password, email, timezone, language)
	}
	return nil, nil
}

func (m *mockUserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserService) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	if m.authenticateUserFn != nil {
		return m.authenticateUserFn(ctx, username, password)
	}
	return nil, nil
}

func (m *mockUserService) UpdateUserProfile(ctx context.Context, userID int, email, timezone string, language models.Language) error {
	if m.updateUserProfileFn != nil {
		return m.updateUserProfileFn(ctx, userID, email, timezone, language)
	}
	return nil
}

func (m *mockUserService) UpdateUserPassword(ctx context.Context, userID int, newPassword string) error {
	if m.updateUserPasswordFn != nil {
		return m.updateUserPasswordFn(ctx, userID, newPassword)
	}
	return nil
}

func (m *mockUserService) UpdateLastActive(_ context.Context, _ int) error { return nil }

func (m *mockUserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	if m.getAllUsersFn != nil {
		return m.getAllUsersFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) DeleteUser(ctx context.Context, userID int) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, userID)
	}
	return nil
}

func (m *mockUserService) EnsureAdminUserExists(_ context.Context, _, _ string) error { return nil }

func (m *mockUserService) IsAdmin(ctx context.Context, userID int) (bool, error) {
	if m.isAdminFn != nil {
		return m.isAdminFn(ctx, userID)
	}
	return false, nil
}

func (m *mockUserService) GetDB() *sql.DB { return nil }

// mockPuzzleService implements services.PuzzleServiceInterface
type mockPuzzleService struct {
	getPuzzleFn      func(ctx context.Context, language models.Language, date string) (*models.Puzzle, error)
	createPuzzleFn   func(ctx context.Context, puzzle *models.Puzzle) (*models.Puzzle, error)
	getAnswersFn     func(ctx context.Context, language models.Language) ([]string, error)
	suggestAnswersFn func(ctx context.Context, language models.Language, guess string, maxDistance int) ([]match.Result, error)
}

var _ services.PuzzleServiceInterface = (*mockPuzzleService)(nil)

func (m *mockPuzzleService) GetPuzzle(ctx context.Context, language models.Language, date string) (*models.Puzzle, error) {
	if m.getPuzzleFn != nil {
		return m.getPuzzleFn(ctx, language, date)
	}
	return nil, nil
}

func (m *mockPuzzleService) CreatePuzzle(ctx context.Context, puzzle *models.Puzzle) (*models.Puzzle, error) {
	if m.createPuzzleFn != nil {
		return m.createPuzzleFn(ctx, puzzle)
	}
	return puzzle, nil
}

func (m *mockPuzzleService) GetAnswers(ctx context.Context, language models.Language) ([]string, error) {
	if m.getAnswersFn != nil {
		return m.getAnswersFn(ctx, language)
	}
	return nil, nil
}

func (m *mockPuzzleService) SuggestAnswers(ctx context.Context, language models.Language, guess string, maxDistance int) ([]match.Result, error) {
	if m.suggestAnswersFn != nil {
		return m.suggestAnswersFn(ctx, language, guess, maxDistance)
	}
	return nil, nil
}

// mockPlayService implements services.PlayServiceInterface
type mockPlayService struct {
	hasPlayedOnFn  func(ctx context.Context, userID int, date string) (bool, error)
	recordResultFn func(ctx context.Context, userID int, entry *models.DailyHistoryEntry) (*services.RecordOutcome, error)
	getStatusFn    func(ctx context.Context, userID int, language models.Language, scope string) (*models.PlayStatus, error)
	getStreakFn    func(ctx context.Context, userID int) (*models.StreakState, error)
	getHistoryFn   func(ctx context.Context, userID int, language models.Language, days int) (map[string]models.DailyHistoryEntry, error)
}

var _ services.PlayServiceInterface = (*mockPlayService)(nil)

func (m *mockPlayService) HasPlayedOn(ctx context.Context, userID int, date string) (bool, error) {
	if m.hasPlayedOnFn != nil {
		return m.hasPlayedOnFn(ctx, userID, date)
	}
	return false, nil
}

func (m *mockPlayService) RecordResult(ctx context.Context, userID int, entry *models.DailyHistoryEntry) (*services.RecordOutcome, error) {
	if m.recordResultFn != nil {
		return m.recordResultFn(ctx, userID, entry)
	}
	return &services.RecordOutcome{}, nil
}

func (m *mockPlayService) GetStatus(ctx context.Context, userID int, language models.Language, scope string) (*models.PlayStatus, error) {
	if m.getStatusFn != nil {
		return m.getStatusFn(ctx, userID, language, scope)
	}
	return &models.PlayStatus{History: map[string]models.DailyHistoryEntry{}}, nil
}

func (m *mockPlayService) GetStreak(ctx context.Context, userID int) (*models.StreakState, error) {
	if m.getStreakFn != nil {
		return m.getStreakFn(ctx, userID)
	}
	return &models.StreakState{}, nil
}

func (m *mockPlayService) GetHistory(ctx context.Context, userID int, language models.Language, days int) (map[string]models.DailyHistoryEntry, error) {
	if m.getHistoryFn != nil {
		return m.getHistoryFn(ctx, userID, language, days)
	}
	return map[string]models.DailyHistoryEntry{}, nil
}
