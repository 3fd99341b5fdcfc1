package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"modleapp/internal/config"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	"modleapp/internal/services/mailer"
	contextutils "modleapp/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/mail.v2"
)

// EmailService implements the mailer.Mailer interface using gomail
type EmailService struct {
	cfg    *config.Config
	logger *observability.Logger
	dialer *mail.Dialer
}

// Ensure EmailService implements the Mailer interface
var _ mailer.Mailer = (*EmailService)(nil)

// NewEmailService creates a new EmailService instance
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	var dialer *mail.Dialer
	if cfg.Email.Enabled && cfg.Email.SMTP.Host != "" {
		dialer = mail.NewDialer(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
		)
	}

	return &EmailService{
		cfg:    cfg,
		logger: logger,
		dialer: dialer,
	}
}

// SendStreakReminder sends a streak reminder email to a user
func (e *EmailService) SendStreakReminder(ctx context.Context, user *models.User, streak int) (err error) {
	ctx, span := otel.Tracer("email-service").Start(ctx, "SendStreakReminder",
		trace.WithAttributes(
			attribute.Int("user.id", user.ID),
			attribute.Int("user.streak", streak),
		),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Info(ctx, "Email disabled, skipping streak reminder", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil
	}

	if !user.Email.Valid || user.Email.String == "" {
		e.logger.Warn(ctx, "User has no email address, skipping streak reminder", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil
	}

	data := map[string]interface{}{
		"Username":       user.Username,
		"AppURL":         e.cfg.Server.AppBaseURL,
		"CurrentDate":    time.Now().Format("January 2, 2006"),
		"Streak":         streak,
		"UnsubscribeURL": fmt.Sprintf("%s/settings", e.cfg.Server.AppBaseURL),
	}

	subject := "Your puzzle is waiting! 🎬"
	if streak > 0 {
		subject = fmt.Sprintf("Don't lose your %d-day streak! 🎬", streak)
	}

	err = e.SendEmail(ctx, user.Email.String, subject, "streak_reminder", data)
	if err != nil {
		return contextutils.WrapError(err, "failed to send streak reminder")
	}

	e.logger.Info(ctx, "Streak reminder sent successfully", map[string]interface{}{
		"user_id": user.ID,
		"streak":  streak,
	})

	return nil
}

// SendEmail sends a generic email with the given parameters
func (e *EmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) (err error) {
	ctx, span := otel.Tracer("email-service").Start(ctx, "SendEmail",
		trace.WithAttributes(
			attribute.String("email.to", to),
			attribute.String("email.subject", subject),
			attribute.String("email.template", templateName),
		),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Info(ctx, "Email disabled, skipping email send", map[string]interface{}{
			"to":       to,
			"template": templateName,
		})
		return nil
	}

	if e.dialer == nil {
		return contextutils.ErrorWithContextf("email service not properly configured")
	}

	m := mail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", e.cfg.Email.SMTP.FromName, e.cfg.Email.SMTP.FromAddress))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	content, err := e.generateEmailContent(templateName, data)
	if err != nil {
		return contextutils.WrapError(err, "failed to generate email content")
	}

	m.SetBody("text/html", content)

	if err = e.dialer.DialAndSend(m); err != nil {
		e.logger.Error(ctx, "Failed to send email", err, map[string]interface{}{
			"to":       to,
			"template": templateName,
			"subject":  subject,
		})
		return contextutils.WrapError(err, "failed to send email")
	}

	e.logger.Info(ctx, "Email sent successfully", map[string]interface{}{
		"to":       to,
		"template": templateName,
		"subject":  subject,
	})

	return nil
}

// IsEnabled returns whether email functionality is enabled
func (e *EmailService) IsEnabled() bool {
	return e.cfg.Email.Enabled && e.cfg.Email.SMTP.Host != ""
}

// generateEmailContent generates email content from templates
func (e *EmailService) generateEmailContent(templateName string, data map[string]interface{}) (string, error) {
	switch templateName {
	case "streak_reminder":
		return e.generateStreakReminderTemplate(data)
	case "test_email":
		return e.generateTestEmailTemplate(data)
	default:
		return "", contextutils.ErrorWithContextf("unknown template: %s", templateName)
	}
}

// generateStreakReminderTemplate generates the streak reminder email template
func (e *EmailService) generateStreakReminderTemplate(data map[string]interface{}) (string, error) {
	const templateStr = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Daily Puzzle Reminder</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #1a1a2e; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9f9f9; padding: 20px; }
        .streak { font-size: 24px; color: #e94560; text-align: center; }
        .button { display: inline-block; background-color: #e94560; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { background-color: #eee; padding: 15px; text-align: center; font-size: 12px; color: #666; border-radius: 0 0 5px 5px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🎬 Today's Movie Puzzle</h1>
        </div>
        <div class="content">
            <h2>Hello {{.Username}}!</h2>
            <p>It's {{.CurrentDate}} and today's puzzle is live.</p>
            {{if gt .Streak 0}}<p class="streak">🔥 {{.Streak}} day streak</p>
            <p>Play today to keep it going!</p>{{else}}<p>Guess today's movie and start a new streak!</p>{{end}}
            <div style="text-align: center;">
                <a href="{{.AppURL}}" class="button">Play Today's Puzzle</a>
            </div>
        </div>
        <div class="footer">
            <p>If you no longer wish to receive these reminders, you can <a href="{{.UnsubscribeURL}}">unsubscribe here</a>.</p>
        </div>
    </div>
</body>
</html>`

	tmpl, err := template.New("streak_reminder").Parse(templateStr)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to parse template")
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", contextutils.WrapError(err, "failed to execute template")
	}

	return buf.String(), nil
}

// generateTestEmailTemplate generates the test email template
func (e *EmailService) generateTestEmailTemplate(data map[string]interface{}) (string, error) {
	const templateStr = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Test Email</title>
</head>
<body>
    <h2>Hello {{.Username}}!</h2>
    <p>This is a test email to verify that your email settings are working correctly.</p>
    <p><strong>Test Time:</strong> {{.TestTime}}</p>
    <p>If you received this email, your email configuration is working properly!</p>
</body>
</html>
`

	tmpl, err := template.New("test_email").Parse(templateStr)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to parse template")
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", contextutils.WrapError(err, "failed to execute template")
	}

	return buf.String(), nil
}
