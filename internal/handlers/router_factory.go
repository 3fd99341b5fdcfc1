package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"modleapp/internal/config"
	"modleapp/internal/middleware"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	"modleapp/internal/version"
)

// NewRouter creates a new router factory with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	userService services.UserServiceInterface,
	puzzleService services.PuzzleServiceInterface,
	playService services.PlayServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	// Setup Gin router
	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger, middleware.DefaultErrorRecoveryConfig()))

	// Add HTTP request logging middleware using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Log request details using our observability logger
		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		path := c.Request.URL.Path

		// Create structured log entry
		fields := map[string]interface{}{
			"http.method":      method,
			"http.path":        path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   clientIP,
			"http.user_agent":  c.Request.UserAgent(),
		}

		// Add error message if present
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		// For failed requests (4xx and 5xx), capture response size for debugging
		if statusCode >= 400 {
			if c.Writer.Size() > 0 {
				fields["http.response_size"] = c.Writer.Size()
			}

			if statusCode >= 500 {
				fields["http.error_type"] = "server_error"
			} else {
				fields["http.error_type"] = "client_error"
			}
		}

		// Log using our observability logger (goes to both stdout and OTLP)
		// Use appropriate log level based on status code
		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "backend"})
	})

	// Add OpenTelemetry middleware for HTTP tracing and context propagation with automatic error attributes
	router.Use(observability.GinMiddlewareWithErrorHandling("modle-backend"))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	// Setup CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Setup session middleware
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	// Configure session options for security
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure, // Set to true in production with HTTPS
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	// Setup Gin mode
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	// Request body schemas for validated endpoints
	schemas := middleware.NewSchemaLoader()

	// Initialize handlers
	authHandler := NewAuthHandler(userService, cfg, logger)
	modleHandler := NewModleHandler(puzzleService, playService, cfg, logger)
	userAdminHandler := NewUserAdminHandler(userService, cfg, logger)

	// V1 routes
	v1 := router.Group("/v1")
	{
		// Version endpoint (no auth)
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "backend",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RequestValidation(schemas, logger, "LoginRequest"), authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/status", authHandler.Status)
			auth.GET("/check", middleware.RequireAuth(), authHandler.Check)
			auth.POST("/signup", middleware.RequestValidation(schemas, logger, "UserCreateRequest"), authHandler.Signup)
			auth.GET("/signup/status", authHandler.SignupStatus)
		}

		modle := v1.Group("/modle")
		modle.Use(middleware.RequireAuth())
		{
			modle.GET("/puzzle/:language/:date", modleHandler.GetPuzzle)
			modle.POST("/result", middleware.RequestValidation(schemas, logger, "ResultRequest"), modleHandler.SubmitResult)
			modle.GET("/status", modleHandler.GetStatus)
			modle.GET("/played/:date", modleHandler.HasPlayed)
			modle.GET("/suggest", modleHandler.SuggestAnswers)
		}

		// User management endpoints (non-admin)
		userz := v1.Group("/userz")
		{
			userz.PUT("/profile", middleware.RequireAuth(), middleware.RequestValidation(schemas, logger, "UserUpdateRequest"), userAdminHandler.UpdateCurrentUserProfile)
		}

		// Admin endpoints
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin(userService))
		{
			admin.POST("/puzzles", middleware.RequestValidation(schemas, logger, "PuzzleCreateRequest"), modleHandler.CreatePuzzle)

			// User management (admin only)
			admin.GET("/userz", userAdminHandler.GetAllUsers)
			admin.POST("/userz", middleware.RequestValidation(schemas, logger, "UserCreateRequest"), userAdminHandler.CreateUser)
			admin.PUT("/userz/:id", middleware.RequestValidation(schemas, logger, "UserUpdateRequest"), userAdminHandler.UpdateUser)
			admin.DELETE("/userz/:id", userAdminHandler.DeleteUser)
			admin.POST("/userz/:id/reset-password", userAdminHandler.ResetUserPassword)
		}
	}

	router.NoRoute(middleware.NotFoundHandler())

	return router
}
