package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"modleapp/internal/api"
	"modleapp/internal/config"
	"modleapp/internal/middleware"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	contextutils "modleapp/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.opentelemetry.io/otel/attribute"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	userService services.UserServiceInterface
	config      *config.Config
	logger      *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(userService services.UserServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      logger,
	}
}

// Login handles user login requests
func (h *AuthHandler) Login(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	// Set span attributes for observability
	span.SetAttributes(
		attribute.String("auth.username", req.Username),
		attribute.Bool("auth.password_provided", req.Password != ""),
	)

	// Authenticate user against database
	user, err := h.userService.AuthenticateUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Authentication failed for user", err, map[string]interface{}{"username": req.Username})
		HandleAppError(c, contextutils.ErrInvalidCredentials)
		return
	}

	if user == nil {
		HandleAppError(c, contextutils.ErrInvalidCredentials)
		return
	}

	// Update span attributes with user info
	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.String("user.username", user.Username),
		attribute.Bool("user.email_provided", user.Email.Valid),
		attribute.String("user.language", user.PreferredLanguage.String),
	)

	// Update last active
	if err := h.userService.UpdateLastActive(c.Request.Context(), user.ID); err != nil {
		// Log error but don't fail login
		h.logger.Warn(c.Request.Context(), "Failed to update last active for user", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
	}

	// Create session
	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.UsernameKey, user.Username)

	if err := session.Save(); err != nil {
		h.logger.Error(c.Request.Context(), "Failed to save session", err, map[string]interface{}{"error": err.Error()})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	apiUser := convertUserToAPI(user)

	c.JSON(http.StatusOK, api.LoginResponse{
		Success: boolPtr(true),
		Message: stringPtr("Login successful"),
		User:    &apiUser,
	})
}

// Logout handles user logout requests
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	// Get user info before clearing session for tracing
	session := sessions.Default(c)
	userID := session.Get(middleware.UserIDKey)
	username := session.Get(middleware.UsernameKey)

	// Set span attributes
	if userID != nil {
		if id, ok := userID.(int); ok {
			span.SetAttributes(attribute.Int("user.id", id))
		}
	}
	if username != nil {
		if name, ok := username.(string); ok {
			span.SetAttributes(attribute.String("user.username", name))
		}
	}

	session.Clear()

	if err := session.Save(); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{
		Message: "Logout successful",
	})
}

// Status returns the current authentication status
func (h *AuthHandler) Status(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "status")
	defer observability.FinishSpan(span, nil)

	session := sessions.Default(c)
	userID := session.Get(middleware.UserIDKey)

	id, ok := userID.(int)
	if !ok {
		span.SetAttributes(attribute.Bool("auth.authenticated", false))
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.authenticated", true),
		attribute.Int("user.id", id),
	)

	user, err := h.userService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error getting user by ID", err, map[string]interface{}{"user_id": id})
		HandleAppError(c, contextutils.ErrInternalError)
		return
	}

	if user == nil {
		// User not found, clear session
		session.Clear()
		if err := session.Save(); err != nil {
			h.logger.Error(c.Request.Context(), "Error saving session", err, map[string]interface{}{"error": err.Error()})
		}
		span.SetAttributes(attribute.Bool("auth.user_found", false))
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	// Update span attributes with user info
	span.SetAttributes(
		attribute.Bool("auth.user_found", true),
		attribute.String("user.username", user.Username),
		attribute.Bool("user.email_provided", user.Email.Valid),
		attribute.String("user.language", user.PreferredLanguage.String),
	)

	// Update last active timestamp
	if err := h.userService.UpdateLastActive(c.Request.Context(), user.ID); err != nil {
		h.logger.Error(c.Request.Context(), "Error updating last active", err, map[string]interface{}{"user_id": user.ID})
		// Don't fail the request for this error
	}

	apiUser := convertUserToAPI(user)

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          &apiUser,
	})
}

// Check is a lightweight auth-check endpoint intended for reverse proxy auth_request.
// It requires authentication via middleware and returns 204 when authenticated.
// Unauthenticated requests are rejected by the RequireAuth middleware with 401.
func (h *AuthHandler) Check(c *gin.Context) {
	// If we reached here, authentication succeeded in middleware
	c.Status(http.StatusNoContent)
}

// Signup handles user registration requests
func (h *AuthHandler) Signup(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "signup")
	defer observability.FinishSpan(span, nil)

	// Check if signups are disabled
	if h.config != nil && h.config.IsSignupDisabled() {
		span.SetAttributes(attribute.Bool("auth.signups_disabled", true))
		HandleAppError(c, contextutils.ErrForbidden)
		return
	}

	span.SetAttributes(attribute.Bool("auth.signups_disabled", false))

	var req api.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, openapi_types.ErrValidationEmail) {
			HandleAppError(c, contextutils.ErrInvalidInput)
			return
		}
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	// Set span attributes for request data
	span.SetAttributes(
		attribute.String("signup.username", req.Username),
		attribute.Bool("signup.password_provided", req.Password != ""),
		attribute.Bool("signup.email_provided", req.Email != nil && *req.Email != ""),
		attribute.Bool("signup.language_provided", req.PreferredLanguage != nil && *req.PreferredLanguage != ""),
		attribute.Bool("signup.timezone_provided", req.Timezone != nil && *req.Timezone != ""),
	)

	// Validate required fields
	if req.Username == "" {
		HandleAppError(c, contextutils.ErrMissingRequired)
		return
	}

	if req.Password == "" {
		HandleAppError(c, contextutils.ErrMissingRequired)
		return
	}

	// Validate username format (3-50 characters, alphanumeric + underscore)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(req.Username) {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	// Validate password (minimum 8 characters)
	if len(req.Password) < 8 {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}

	// Email is optional; validate and normalize when provided
	email := ""
	if req.Email != nil && *req.Email != "" {
		if !contextutils.IsValidEmail(string(*req.Email)) {
			HandleAppError(c, contextutils.ErrInvalidFormat)
			return
		}
		email = strings.ToLower(string(*req.Email))
	}

	h.logger.Info(c.Request.Context(), "Attempting signup for user", map[string]interface{}{"username": req.Username, "email": email})

	// Check if username already exists
	existingUser, err := h.userService.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error checking username uniqueness", err, map[string]interface{}{"username": req.Username})
		HandleAppError(c, contextutils.ErrInternalError)
		return
	}

	if existingUser != nil {
		span.SetAttributes(attribute.Bool("signup.username_exists", true))
		HandleAppError(c, contextutils.ErrRecordExists)
		return
	}

	// Check if email already exists
	if email != "" {
		existingUserByEmail, err := h.userService.GetUserByEmail(c.Request.Context(), email)
		if err != nil {
			h.logger.Error(c.Request.Context(), "Error checking email uniqueness", err, map[string]interface{}{"email": email})
			HandleAppError(c, contextutils.ErrInternalError)
			return
		}

		if existingUserByEmail != nil {
			span.SetAttributes(attribute.Bool("signup.email_exists", true))
			HandleAppError(c, contextutils.ErrRecordExists)
			return
		}
	}

	// Default to the first configured puzzle language
	language := string(models.English)
	if h.config != nil {
		languages := h.config.Languages()
		if len(languages) > 0 {
			language = languages[0]
		}
	}
	if req.PreferredLanguage != nil && *req.PreferredLanguage != "" {
		provided := string(*req.PreferredLanguage)
		if h.config != nil && !h.config.IsSupportedLanguage(provided) {
			HandleAppError(c, contextutils.ErrInvalidFormat)
			return
		}
		language = provided
	}

	timezone := "UTC" // Default timezone
	if req.Timezone != nil && *req.Timezone != "" {
		timezone = *req.Timezone
	}

	// Update span attributes with final values
	span.SetAttributes(
		attribute.String("signup.language", language),
		attribute.String("signup.timezone", timezone),
	)

	user, err := h.userService.CreateUserWithEmailAndTimezone(c.Request.Context(), req.Username, req.Password, email, timezone, models.Language(language))
	if err != nil {
		h.logger.Error(c.Request.Context(), "Error creating user", err, map[string]interface{}{"username": req.Username, "email": email})
		HandleAppError(c, contextutils.WrapError(err, "failed to create user account"))
		return
	}

	// Update span attributes with created user info
	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.String("user.username", user.Username),
		attribute.String("user.email", email),
	)

	h.logger.Info(c.Request.Context(), "Successfully created user", map[string]interface{}{"username": req.Username, "user_id": user.ID})

	// Return success response (no session created, no auto-login)
	c.JSON(http.StatusCreated, api.SuccessResponse{
		Message: "Account created successfully. Please log in.",
	})
}

// SignupStatus returns whether signups are enabled or disabled
func (h *AuthHandler) SignupStatus(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "signup_status")
	defer observability.FinishSpan(span, nil)

	signupsDisabled := false
	if h.config != nil {
		signupsDisabled = h.config.IsSignupDisabled()
	}

	span.SetAttributes(
		attribute.Bool("auth.signups_disabled", signupsDisabled),
		attribute.Bool("auth.config_available", h.config != nil),
	)

	c.JSON(http.StatusOK, gin.H{
		"signups_disabled": signupsDisabled,
	})
}
