// Package mailer defines the email sending interface for the modle application.
package mailer

import (
	"context"

	"modleapp/internal/models"
)

// Mailer defines the interface for email sending functionality
type Mailer interface {
	// SendStreakReminder nudges a user who has not played today, quoting
	// the streak they are about to lose
	SendStreakReminder(ctx context.Context, user *models.User, streak int) error

	// SendEmail sends a generic email with the given parameters
	SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error

	// IsEnabled returns whether email functionality is enabled
	IsEnabled() bool
}
