package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"modleapp/internal/api"
	"modleapp/internal/config"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	contextutils "modleapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserAdminHandler handles user management operations
type UserAdminHandler struct {
	userService services.UserServiceInterface
	cfg         *config.Config
	logger      *observability.Logger
}

// NewUserAdminHandler creates a new UserAdminHandler instance
func NewUserAdminHandler(userService services.UserServiceInterface, cfg *config.Config, logger *observability.Logger) *UserAdminHandler {
	return &UserAdminHandler{
		userService: userService,
		cfg:         cfg,
		logger:      logger,
	}
}

// UserCreateRequest represents a request to create a new user
// Using the generated type from api package for automatic validation
type UserCreateRequest = api.UserCreateRequest

// UserUpdateRequest represents a request to update user profile
// Using the generated type from api package for automatic validation
type UserUpdateRequest = api.UserUpdateRequest

// PasswordResetRequest represents a request to reset user password
type PasswordResetRequest struct {
	NewPassword string `json:"new_password"`
}

// ProfileResponse represents user profile data
type ProfileResponse struct {
	ID                int        `json:"id"`
	Username          string     `json:"username"`
	Email             *string    `json:"email"`
	Timezone          *string    `json:"timezone"`
	LastActive        *time.Time `json:"last_active"`
	PreferredLanguage *string    `json:"preferred_language"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// GetAllUsers handles GET /userz - list all users (admin only) - JSON API
func (h *UserAdminHandler) GetAllUsers(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error retrieving users", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to retrieve users"))
		return
	}

	// Convert to response format
	var userResponses []ProfileResponse
	for i := range users {
		userResponses = append(userResponses, convertUserToProfileResponse(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{"users": userResponses})
}

// CreateUser handles POST /userz - create new user (admin only)
func (h *UserAdminHandler) CreateUser(c *gin.Context) {
	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request data",
			"",
			err,
		))
		return
	}

	// Validate required fields
	if req.Username == "" {
		HandleAppError(c, contextutils.ErrMissingRequired)
		return
	}
	if req.Password == "" {
		HandleAppError(c, contextutils.ErrMissingRequired)
		return
	}

	// Extract values from generated types
	timezone := "UTC"
	if req.Timezone != nil && *req.Timezone != "" {
		timezone = *req.Timezone
		// Validate timezone if provided
		if !isValidTimezone(timezone) {
			HandleAppError(c, contextutils.ErrInvalidFormat)
			return
		}
	}

	preferredLanguage := string(models.English)
	if req.PreferredLanguage != nil && *req.PreferredLanguage != "" {
		preferredLanguage = string(*req.PreferredLanguage)
		if h.cfg != nil && !h.cfg.IsSupportedLanguage(preferredLanguage) {
			HandleAppError(c, contextutils.ErrInvalidFormat)
			return
		}
	}

	email := ""
	if req.Email != nil {
		email = string(*req.Email)
	}

	// Check if username already exists
	existingUser, err := h.userService.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error checking existing username", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to check existing username"))
		return
	}
	if existingUser != nil {
		HandleAppError(c, contextutils.ErrRecordExists)
		return
	}

	// Check if email already exists (if provided)
	if email != "" {
		existingUser, err := h.userService.GetUserByEmail(c.Request.Context(), email)
		if err != nil {
			h.logger.Error(c.Request.Context(), "Error checking existing email", err, nil)
			HandleAppError(c, contextutils.WrapError(err, "failed to check email uniqueness"))
			return
		}
		if existingUser != nil {
			HandleAppError(c, contextutils.ErrRecordExists)
			return
		}
	}

	// Create user
	user, err := h.userService.CreateUserWithEmailAndTimezone(
		c.Request.Context(),
		req.Username,
		req.Password,
		email,
		timezone,
		models.Language(preferredLanguage),
	)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error creating user", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to create user"))
		return
	}

	// Return the created user profile
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    convertUserToProfileResponse(user),
	})
}

// UpdateUser handles PUT /userz/:id - update user details (admin or self)
func (h *UserAdminHandler) UpdateUser(c *gin.Context) {
	userIDStr := c.Param("id")
	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	// Check if user exists
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error retrieving user", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "database error"))
		return
	}
	if user == nil {
		HandleAppError(c, contextutils.ErrRecordNotFound)
		return
	}

	// Check authorization (admin or self) - skip for direct routes (testing)
	if currentUserID, err := GetCurrentUserID(c); err == nil {
		if err := RequireSelfOrAdmin(c.Request.Context(), h.userService, currentUserID, userID); err != nil {
			if contextutils.IsError(err, contextutils.ErrForbidden) {
				HandleAppError(c, contextutils.ErrForbidden)
				return
			}
			h.logger.Error(c.Request.Context(), "Error checking authorization", err, nil)
			HandleAppError(c, contextutils.WrapError(err, "failed to check authorization"))
			return
		}
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request data",
			"",
			err,
		))
		return
	}

	if err := h.applyProfileUpdate(c, user, &req); err != nil {
		// Response already written by applyProfileUpdate
		return
	}

	// Get updated user
	updatedUser, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error retrieving updated user", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to retrieve updated user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    convertUserToProfileResponse(updatedUser),
	})
}

// DeleteUser handles DELETE /userz/:id - delete user (admin only)
func (h *UserAdminHandler) DeleteUser(c *gin.Context) {
	userIDStr := c.Param("id")
	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	// Check if user exists
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error retrieving user", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "database error"))
		return
	}
	if user == nil {
		HandleAppError(c, contextutils.ErrRecordNotFound)
		return
	}

	// Delete user
	err = h.userService.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error deleting user", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to delete user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ResetUserPassword handles POST /userz/:id/reset-password - reset user password (admin only)
func (h *UserAdminHandler) ResetUserPassword(c *gin.Context) {
	userIDStr := c.Param("id")
	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	// Check if user exists
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error retrieving user", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, contextutils.WrapError(err, "database error"))
		return
	}
	if user == nil {
		h.logger.Warn(c.Request.Context(), "User not found for password reset", map[string]interface{}{"user_id": userID})
		HandleAppError(c, contextutils.ErrRecordNotFound)
		return
	}

	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error(c.Request.Context(), "Invalid request data for password reset", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request data",
			"",
			err,
		))
		return
	}

	// Validate password
	if req.NewPassword == "" {
		HandleAppError(c, contextutils.ErrMissingRequired)
		return
	}
	if len(req.NewPassword) < 8 {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	// Update password
	err = h.userService.UpdateUserPassword(c.Request.Context(), userID, req.NewPassword)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error updating user password", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, contextutils.WrapError(err, "failed to update password"))
		return
	}

	h.logger.Info(c.Request.Context(), "Password reset successful", map[string]interface{}{"user_id": userID, "username": user.Username})
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// UpdateCurrentUserProfile handles PUT /userz/profile - update current user profile
func (h *UserAdminHandler) UpdateCurrentUserProfile(c *gin.Context) {
	// Get user ID from context/session
	userID, err := GetCurrentUserID(c)
	if err != nil {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request data",
			"",
			err,
		))
		return
	}

	// Get current user
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error retrieving user", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "database error"))
		return
	}
	if user == nil {
		HandleAppError(c, contextutils.ErrRecordNotFound)
		return
	}

	if err := h.applyProfileUpdate(c, user, &req); err != nil {
		// Response already written by applyProfileUpdate
		return
	}

	// Get updated user
	updatedUser, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error retrieving updated user", err, nil)
		HandleAppError(c, contextutils.WrapError(err, "failed to retrieve updated profile"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    convertUserToProfileResponse(updatedUser),
	})
}

// applyProfileUpdate merges the request onto the stored user and persists the
// result. On failure it writes the error response and returns a non-nil error.
func (h *UserAdminHandler) applyProfileUpdate(c *gin.Context, user *models.User, req *UserUpdateRequest) error {
	// Validate timezone if provided
	if req.Timezone != nil && *req.Timezone != "" && !isValidTimezone(*req.Timezone) {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return contextutils.ErrInvalidFormat
	}

	// Use existing values if not provided in request
	email := ""
	if user.Email.Valid {
		email = user.Email.String
	}
	if req.Email != nil {
		email = strings.ToLower(string(*req.Email))
	}

	timezone := ""
	if user.Timezone.Valid {
		timezone = user.Timezone.String
	}
	if req.Timezone != nil && *req.Timezone != "" {
		timezone = *req.Timezone
	}

	preferredLanguage := ""
	if user.PreferredLanguage.Valid {
		preferredLanguage = user.PreferredLanguage.String
	}
	if req.PreferredLanguage != nil && *req.PreferredLanguage != "" {
		preferredLanguage = string(*req.PreferredLanguage)
		if h.cfg != nil && !h.cfg.IsSupportedLanguage(preferredLanguage) {
			HandleAppError(c, contextutils.ErrInvalidFormat)
			return contextutils.ErrInvalidFormat
		}
	}

	// Check if new email already exists (if changed)
	if email != "" && (!user.Email.Valid || email != user.Email.String) {
		existingUser, err := h.userService.GetUserByEmail(c.Request.Context(), email)
		if err != nil {
			h.logger.Error(c.Request.Context(), "Error checking existing email", err, nil)
			HandleAppError(c, contextutils.WrapError(err, "failed to check email uniqueness"))
			return err
		}
		if existingUser != nil && existingUser.ID != user.ID {
			HandleAppError(c, contextutils.ErrRecordExists)
			return contextutils.ErrRecordExists
		}
	}

	if err := h.userService.UpdateUserProfile(c.Request.Context(), user.ID, email, timezone, models.Language(preferredLanguage)); err != nil {
		h.logger.Error(c.Request.Context(), "Error updating user profile", err, nil)

		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			HandleAppError(c, contextutils.ErrRecordNotFound)
			return err
		}

		HandleAppError(c, contextutils.WrapError(err, "failed to update user profile"))
		return err
	}

	return nil
}

// Helper functions

// convertUserToProfileResponse converts a User model to ProfileResponse
func convertUserToProfileResponse(user *models.User) ProfileResponse {
	return ProfileResponse{
		ID:                user.ID,
		Username:          user.Username,
		Email:             nullStringToPointer(user.Email),
		Timezone:          nullStringToPointer(user.Timezone),
		LastActive:        nullTimeToPointer(user.LastActive),
		PreferredLanguage: nullStringToPointer(user.PreferredLanguage),
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

// isValidTimezone checks if a timezone string is valid
func isValidTimezone(tz string) bool {
	// Common timezone validation - check if it can be loaded
	_, err := time.LoadLocation(tz)
	if err != nil {
		// Also allow UTC as fallback
		return strings.ToUpper(tz) == "UTC"
	}
	return true
}

// Helper function to convert sql.NullString to *string (if not already available)
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

// Helper function to convert sql.NullTime to *time.Time (if not already available)
func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}
