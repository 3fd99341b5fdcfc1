package contextutils

import (
	"context"
	"time"

	"modleapp/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDateInUserTimezone parses a YYYY-MM-DD date string in the user's timezone.
// The userLookup function is injected to fetch the user (to avoid tight coupling and enable testing).
// Returns the parsed time (in the location), the effective timezone name (or "UTC" on fallback), and an error.
// If the date format is invalid, the returned error will be wrapped with the message "invalid date format".
func ParseDateInUserTimezone(
	ctx context.Context,
	userID int,
	dateStr string,
	userLookup func(context.Context, int) (*models.User, error),
) (time.Time, string, error) {
	user, err := userLookup(ctx, userID)
	if err != nil {
		return time.Time{}, "", err
	}

	timezone := "UTC"
	if user != nil && user.Timezone.Valid && user.Timezone.String != "" {
		timezone = user.Timezone.String
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		// Fallback to UTC if invalid timezone
		loc = time.UTC
		timezone = "UTC"
	}

	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, timezone, WrapError(err, "invalid date format")
	}

	return date, timezone, nil
}

// UserLocalToday returns the calendar date (YYYY-MM-DD) that `now` falls on
// in the user's configured timezone. The daily gate compares submitted dates
// against this value, so the user's timezone defines when a new puzzle day
// begins. The clock value is a parameter so callers can pin it in tests.
func UserLocalToday(
	ctx context.Context,
	userID int,
	now time.Time,
	userLookup func(context.Context, int) (*models.User, error),
) (string, string, error) {
	user, err := userLookup(ctx, userID)
	if err != nil {
		return "", "", err
	}

	timezone := "UTC"
	if user != nil && user.Timezone.Valid && user.Timezone.String != "" {
		timezone = user.Timezone.String
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
		timezone = "UTC"
	}

	return now.In(loc).Format(DateLayout), timezone, nil
}

// ConvertTimeToUserLocation converts the provided time to the user's timezone.
// Returns the converted time and the effective timezone name (or "UTC" on fallback).
func ConvertTimeToUserLocation(
	ctx context.Context,
	userID int,
	t time.Time,
	userLookup func(context.Context, int) (*models.User, error),
) (time.Time, string, error) {
	user, err := userLookup(ctx, userID)
	if err != nil {
		return time.Time{}, "", err
	}

	timezone := "UTC"
	if user != nil && user.Timezone.Valid && user.Timezone.String != "" {
		timezone = user.Timezone.String
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
		timezone = "UTC"
	}

	return t.In(loc), timezone, nil
}

// UserLocalDayRange returns the UTC start and end timestamps that cover the
// last `days` calendar days for the given user in their configured timezone.
// The range is [startUTC, endUTC) where startUTC is the start of the earliest
// local day at 00:00 and endUTC is the start of the day after "today" at 00:00
// in UTC. The userLookup function is used to fetch the user's timezone.
func UserLocalDayRange(ctx context.Context, userID, days int, userLookup func(context.Context, int) (*models.User, error)) (time.Time, time.Time, string, error) {
	if days <= 0 {
		days = 1
	}
	user, err := userLookup(ctx, userID)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}

	timezone := "UTC"
	if user != nil && user.Timezone.Valid && user.Timezone.String != "" {
		timezone = user.Timezone.String
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
		timezone = "UTC"
	}

	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	startLocal := today.AddDate(0, 0, -(days - 1))
	// start of the day after today
	endLocal := today.Add(24 * time.Hour)

	startUTC := startLocal.UTC()
	endUTC := endLocal.UTC()
	return startUTC, endUTC, timezone, nil
}

// NextCalendarDay returns the YYYY-MM-DD string for the day after the given
// date string. It is used by the streak ledger to decide whether a solved day
// extends the current run. Invalid input returns an error.
func NextCalendarDay(dateStr string) (string, error) {
	d, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return "", WrapError(err, "invalid date format")
	}
	return d.AddDate(0, 0, 1).Format(DateLayout), nil
}
