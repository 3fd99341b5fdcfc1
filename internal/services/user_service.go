// Package services provides business logic services for the modle application.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"modleapp/internal/config"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	contextutils "modleapp/internal/utils"

	"github.com/lib/pq"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines the interface for user-related operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	CreateUserWithPassword(ctx context.Context, username, password string, language models.Language) (*models.User, error)
	CreateUserWithEmailAndTimezone(ctx context.Context, username, password, email, timezone string, language models.Language) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID int, email, timezone string, language models.Language) error
	UpdateUserPassword(ctx context.Context, userID int, newPassword string) error
	UpdateLastActive(ctx context.Context, userID int) error
	GetAllUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, userID int) error
	EnsureAdminUserExists(ctx context.Context, adminUsername, adminPassword string) error
	IsAdmin(ctx context.Context, userID int) (bool, error)
	GetDB() *sql.DB
}

// UserService provides methods for user management.
type UserService struct {
	db     *sql.DB
	cfg    *config.Config
	logger *observability.Logger
}

// userSelectFields contains all user fields for SELECT queries
const userSelectFields = `id, username, email, timezone, password_hash, last_active, preferred_language, created_at, updated_at`

// Ensure UserService implements the UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)

// NewUserServiceWithLogger creates a new UserService instance with logger
func NewUserServiceWithLogger(db *sql.DB, cfg *config.Config, logger *observability.Logger) *UserService {
	return &UserService{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// scanUserFromRow scans a database row into a models.User struct
func (s *UserService) scanUserFromRow(row *sql.Row) (result0 *models.User, err error) {
	user := &models.User{}
	err = row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Timezone, &user.PasswordHash,
		&user.LastActive, &user.PreferredLanguage, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// getUserByQuery is a shared method for getting a user by any query
func (s *UserService) getUserByQuery(ctx context.Context, query string, args ...interface{}) (result0 *models.User, err error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	user, err := s.scanUserFromRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found is not an error here
		}
		return nil, err
	}
	return user, nil
}

// CreateUserWithPassword creates a new user with password authentication
func (s *UserService) CreateUserWithPassword(ctx context.Context, username, password string, language models.Language) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user_with_password", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(username) == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "username cannot be empty")
	}
	if !language.IsValid() {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// default timezone to UTC for new users created with password
	query := `INSERT INTO users (username, password_hash, preferred_language, timezone, last_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now()
	var id int
	err = s.db.QueryRowContext(ctx, query, username, string(hashedPassword), string(language), "UTC", now, now, now).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.ErrRecordExists
		}
		return nil, err
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "user was created but could not be retrieved from database")
	}
	return user, nil
}

// CreateUserWithEmailAndTimezone creates a new user with email and timezone
func (s *UserService) CreateUserWithEmailAndTimezone(ctx context.Context, username, password, email, timezone string, language models.Language) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user_with_email", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(username) == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "username cannot be empty")
	}
	if !language.IsValid() {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
	}
	if email != "" && !contextutils.IsValidEmail(email) {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "invalid email address")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err = time.LoadLocation(timezone); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "invalid timezone")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO users (username, password_hash, email, timezone, preferred_language, last_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	var id int
	err = s.db.QueryRowContext(ctx, query, username, string(hashedPassword), email, timezone, string(language), now, now, now).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.ErrRecordExists
		}
		return nil, err
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "user was created but could not be retrieved from database")
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id", attribute.Int("user.id", id))
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userSelectFields + ` FROM users WHERE id = $1`
	return s.getUserByQuery(ctx, query, id)
}

// GetUserByUsername retrieves a user by their username
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_username", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userSelectFields + ` FROM users WHERE username = $1`
	return s.getUserByQuery(ctx, query, username)
}

// GetUserByEmail retrieves a user by their email address
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_email")
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userSelectFields + ` FROM users WHERE email = $1`
	return s.getUserByQuery(ctx, query, email)
}

// AuthenticateUser verifies a username and password pair
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate_user", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.ErrInvalidCredentials
	}

	if !user.PasswordHash.Valid {
		return nil, contextutils.ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		return nil, contextutils.ErrInvalidCredentials
	}

	return user, nil
}

// UpdateUserProfile updates a user's email, timezone and preferred language
func (s *UserService) UpdateUserProfile(ctx context.Context, userID int, email, timezone string, language models.Language) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user_profile", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	if email != "" && !contextutils.IsValidEmail(email) {
		return contextutils.WrapError(contextutils.ErrInvalidFormat, "invalid email address")
	}
	if timezone != "" {
		if _, err = time.LoadLocation(timezone); err != nil {
			return contextutils.WrapError(contextutils.ErrInvalidFormat, "invalid timezone")
		}
	}
	if language != "" && !language.IsValid() {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "unsupported language")
	}

	query := `UPDATE users SET
		email = COALESCE(NULLIF($2, ''), email),
		timezone = COALESCE(NULLIF($3, ''), timezone),
		preferred_language = COALESCE(NULLIF($4, ''), preferred_language),
		updated_at = $5
		WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, userID, email, timezone, string(language), time.Now())
	if err != nil {
		if isDuplicateKeyError(err) {
			return contextutils.ErrRecordExists
		}
		return contextutils.WrapError(err, "failed to update user profile")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check update result")
	}
	if rows == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

// UpdateUserPassword replaces the user's password hash
func (s *UserService) UpdateUserPassword(ctx context.Context, userID int, newPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user_password", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	if newPassword == "" {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "password cannot be empty")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return contextutils.WrapError(err, "failed to hash password")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, string(hashedPassword), time.Now())
	if err != nil {
		return contextutils.WrapError(err, "failed to update password")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check update result")
	}
	if rows == 0 {
		return contextutils.ErrRecordNotFound
	}
	return nil
}

// UpdateLastActive stamps the user's last activity time
func (s *UserService) UpdateLastActive(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_last_active", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx, `UPDATE users SET last_active = $2 WHERE id = $1`, userID, time.Now())
	if err != nil {
		return contextutils.WrapError(err, "failed to update last active")
	}
	return nil
}

// GetAllUsers returns every user, ordered by username
func (s *UserService) GetAllUsers(ctx context.Context) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_all_users")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `SELECT `+userSelectFields+` FROM users ORDER BY username`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query users")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err = rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.Timezone, &user.PasswordHash,
			&user.LastActive, &user.PreferredLanguage, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan user row")
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate user rows")
	}
	return users, nil
}

// DeleteUser removes a user and all their play history
func (s *UserService) DeleteUser(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "delete_user", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check delete result")
	}
	if rows == 0 {
		return contextutils.ErrRecordNotFound
	}

	s.logger.Info(ctx, "User deleted", map[string]interface{}{"user_id": userID})
	return nil
}

// EnsureAdminUserExists creates the admin account or refreshes its password
func (s *UserService) EnsureAdminUserExists(ctx context.Context, adminUsername, adminPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "ensure_admin_user_exists", attribute.String("admin.username", adminUsername))
	defer observability.FinishSpan(span, &err)

	if adminUsername == "" {
		return contextutils.ErrorWithContextf("admin username cannot be empty")
	}
	if adminPassword == "" {
		return contextutils.ErrorWithContextf("admin password cannot be empty")
	}

	existingUser, err := s.GetUserByUsername(ctx, adminUsername)
	if err != nil {
		return contextutils.WrapError(err, "failed to check if admin user exists")
	}

	if existingUser != nil {
		if existingUser.PasswordHash.Valid {
			if bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash.String), []byte(adminPassword)) == nil {
				s.logger.Info(ctx, "Admin user already exists with correct password", map[string]interface{}{"username": adminUsername})
				return nil
			}
		}
		if err = s.UpdateUserPassword(ctx, existingUser.ID, adminPassword); err != nil {
			return contextutils.WrapError(err, "failed to update admin password")
		}
		s.logger.Info(ctx, "Admin password updated", map[string]interface{}{"username": adminUsername})
		return nil
	}

	_, err = s.CreateUserWithPassword(ctx, adminUsername, adminPassword, models.English)
	if err != nil {
		return contextutils.WrapError(err, "failed to create admin user")
	}
	s.logger.Info(ctx, "Admin user created", map[string]interface{}{"username": adminUsername})
	return nil
}

// IsAdmin reports whether the user is the configured admin account
func (s *UserService) IsAdmin(ctx context.Context, userID int) (result0 bool, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "is_admin", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	if s.cfg == nil || s.cfg.Server.AdminUsername == "" {
		return false, nil
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.Username == s.cfg.Server.AdminUsername, nil
}

// GetDB exposes the underlying database handle
func (s *UserService) GetDB() *sql.DB {
	return s.db
}

// isDuplicateKeyError checks for a PostgreSQL unique constraint violation
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// PostgreSQL error code 23505 is for unique constraint violations
		return pqErr.Code == "23505"
	}
	return false
}
