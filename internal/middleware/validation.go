package middleware

import (
	"bytes"
	"io"
	"net/http"

	"modleapp/internal/observability"
	contextutils "modleapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestValidation returns a middleware that validates the request body
// against the named embedded schema before the handler runs. The body is
// buffered and restored so handlers can bind it again.
func RequestValidation(loader *SchemaLoader, logger *observability.Logger, schemaName string) gin.HandlerFunc {
	if !loader.HasSchema(schemaName) {
		panic("unknown request schema: " + schemaName)
	}

	return func(c *gin.Context) {
		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "request_validation")
		defer span.End()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			StandardizeAppError(c, contextutils.NewAppError(
				contextutils.ErrorCodeInvalidInput,
				contextutils.SeverityWarn,
				"Failed to read request body",
				"",
			))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if len(body) == 0 {
			StandardizeAppError(c, contextutils.NewAppError(
				contextutils.ErrorCodeMissingRequired,
				contextutils.SeverityWarn,
				"Request body is required",
				"",
			))
			c.Abort()
			return
		}

		if err := loader.ValidateBytes(body, schemaName); err != nil {
			if logger != nil {
				logger.Warn(ctx, "Request validation failed", map[string]interface{}{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"schema": schemaName,
					"error":  err.Error(),
				})
			}
			HandleAppError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// NotFoundHandler returns the handler for routes outside the registered API
// surface, so unmatched paths answer with the same structured error shape.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"code":  "RECORD_NOT_FOUND",
		})
	}
}
