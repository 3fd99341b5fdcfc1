// Package worker runs the background streak reminder loop: once per day, at
// the configured hour, it emails every eligible user who has not yet played.
package worker

import (
	"context"
	"sync"
	"time"

	"modleapp/internal/config"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	"modleapp/internal/services"
	"modleapp/internal/services/mailer"
	contextutils "modleapp/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Worker periodically checks for users who should receive a streak reminder.
type Worker struct {
	userService  services.UserServiceInterface
	playService  services.PlayServiceInterface
	emailService mailer.Mailer
	instance     string
	cfg          *config.Config
	logger       *observability.Logger

	// remindedOn tracks the last date a reminder went out per user so one
	// reminder hour never produces duplicates.
	mu         sync.Mutex
	remindedOn map[int]string

	// Time function for testing - defaults to time.Now
	timeNow func() time.Time
	cancel  context.CancelFunc
}

// NewWorker creates a new Worker instance
func NewWorker(userService services.UserServiceInterface, playService services.PlayServiceInterface, emailService mailer.Mailer, instance string, cfg *config.Config, logger *observability.Logger) *Worker {
	if instance == "" {
		instance = "default"
	}

	return &Worker{
		userService:  userService,
		playService:  playService,
		emailService: emailService,
		instance:     instance,
		cfg:          cfg,
		logger:       logger,
		remindedOn:   make(map[int]string),
		timeNow:      time.Now, // Default to real time
	}
}

// Start begins the worker's background processing loop
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	ticker := time.NewTicker(config.ReminderCheckInterval)
	defer ticker.Stop()

	w.logger.Info(ctx, "Reminder worker started", map[string]interface{}{
		"instance": w.instance,
		"interval": config.ReminderCheckInterval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Reminder worker shutting down", map[string]interface{}{
				"instance": w.instance,
			})
			return

		case <-ticker.C:
			if err := w.checkForStreakReminders(ctx); err != nil {
				w.logger.Error(ctx, "Streak reminder check failed", err, map[string]interface{}{
					"instance": w.instance,
				})
			}
		}
	}
}

// Shutdown stops the worker loop. The context mirrors the lifecycle shape
// the service container expects; cancellation itself is immediate.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Info(ctx, "Worker shutdown requested", map[string]interface{}{
		"instance": w.instance,
	})
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}

// checkForStreakReminders sends reminder emails when the configured hour has
// arrived in a user's own timezone and they have not played today
func (w *Worker) checkForStreakReminders(ctx context.Context) error {
	ctx, span := otel.Tracer("worker").Start(ctx, "checkForStreakReminders",
		trace.WithAttributes(
			attribute.String("worker.instance", w.instance),
			attribute.Bool("email.streak_reminder.enabled", w.cfg.Email.StreakReminder.Enabled),
			attribute.Int("email.streak_reminder.hour", w.cfg.Email.StreakReminder.Hour),
			attribute.Bool("email.enabled", w.cfg.Email.Enabled),
		),
	)
	defer span.End()

	if !w.cfg.Email.StreakReminder.Enabled || !w.emailService.IsEnabled() {
		return nil
	}

	users, err := w.userService.GetAllUsers(ctx)
	if err != nil {
		span.RecordError(err)
		return contextutils.WrapError(err, "failed to get users")
	}
	span.SetAttributes(attribute.Int("users.total", len(users)))

	reminderHour := w.cfg.Email.StreakReminder.Hour
	remindersSent := 0
	failedReminders := 0

	for i := range users {
		user := &users[i]
		if !user.Email.Valid || user.Email.String == "" {
			continue
		}

		localNow := w.userLocalTime(user)
		if localNow.Hour() != reminderHour {
			continue
		}
		today := localNow.Format(contextutils.DateLayout)

		if w.alreadyReminded(user.ID, today) {
			continue
		}

		played, err := w.playService.HasPlayedOn(ctx, user.ID, today)
		if err != nil {
			w.logger.Warn(ctx, "Failed to check daily gate for reminder", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
			continue
		}
		if played {
			w.markReminded(user.ID, today)
			continue
		}

		streak := 0
		if state, err := w.playService.GetStreak(ctx, user.ID); err == nil {
			streak = state.Streak
		}

		if err := w.emailService.SendStreakReminder(ctx, user, streak); err != nil {
			failedReminders++
			w.logger.Error(ctx, "Failed to send streak reminder", err, map[string]interface{}{
				"user_id": user.ID,
			})
			continue
		}
		w.markReminded(user.ID, today)
		remindersSent++
	}

	span.SetAttributes(
		attribute.Int("reminders.sent", remindersSent),
		attribute.Int("reminders.failed", failedReminders),
	)

	if remindersSent > 0 || failedReminders > 0 {
		w.logger.Info(ctx, "Streak reminders processed", map[string]interface{}{
			"reminders_sent":   remindersSent,
			"reminders_failed": failedReminders,
			"reminder_hour":    reminderHour,
		})
	}

	return nil
}

// userLocalTime returns the current wall clock in the user's timezone,
// falling back to UTC when the timezone is unset or invalid
func (w *Worker) userLocalTime(user *models.User) time.Time {
	now := w.timeNow().UTC()
	if user.Timezone.Valid && user.Timezone.String != "" {
		if loc, err := time.LoadLocation(user.Timezone.String); err == nil {
			return now.In(loc)
		}
	}
	return now
}

func (w *Worker) alreadyReminded(userID int, date string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remindedOn[userID] == date
}

func (w *Worker) markReminded(userID int, date string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.remindedOn[userID] = date
}
