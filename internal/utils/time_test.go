package contextutils

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"modleapp/internal/models"

	"github.com/stretchr/testify/require"
)

func TestParseDateInUserTimezone_ValidTimezone(t *testing.T) {
	user := &models.User{ID: 1, Timezone: sql.NullString{String: "America/Los_Angeles", Valid: true}}
	userLookup := func(context.Context, int) (*models.User, error) { return user, nil }
	date, tz, err := ParseDateInUserTimezone(context.Background(), 1, "2025-08-19", userLookup)
	require.NoError(t, err)
	require.Equal(t, "America/Los_Angeles", tz)
	// Ensure parsed time has local location
	require.Equal(t, 0, date.Hour())
}

func TestParseDateInUserTimezone_InvalidDate(t *testing.T) {
	userLookup := func(context.Context, int) (*models.User, error) { return nil, nil }
	_, tz, err := ParseDateInUserTimezone(context.Background(), 1, "19-08-2025", userLookup)
	require.Error(t, err)
	require.Equal(t, "UTC", tz)
}

func TestUserLocalToday_DefaultUTC(t *testing.T) {
	userLookup := func(context.Context, int) (*models.User, error) { return nil, nil }
	now := time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC)
	today, tz, err := UserLocalToday(context.Background(), 1, now, userLookup)
	require.NoError(t, err)
	require.Equal(t, "UTC", tz)
	require.Equal(t, "2026-08-20", today)
}

func TestUserLocalToday_TimezoneShiftsDate(t *testing.T) {
	user := &models.User{ID: 1, Timezone: sql.NullString{String: "America/Los_Angeles", Valid: true}}
	userLookup := func(context.Context, int) (*models.User, error) { return user, nil }
	// 02:00 UTC is still the previous evening on the US west coast
	now := time.Date(2026, 8, 21, 2, 0, 0, 0, time.UTC)
	today, tz, err := UserLocalToday(context.Background(), 1, now, userLookup)
	require.NoError(t, err)
	require.Equal(t, "America/Los_Angeles", tz)
	require.Equal(t, "2026-08-20", today)
}

func TestUserLocalToday_InvalidTimezoneFallsBack(t *testing.T) {
	user := &models.User{ID: 1, Timezone: sql.NullString{String: "Not/AZone", Valid: true}}
	userLookup := func(context.Context, int) (*models.User, error) { return user, nil }
	_, tz, err := UserLocalToday(context.Background(), 1, time.Now(), userLookup)
	require.NoError(t, err)
	require.Equal(t, "UTC", tz)
}

func TestUserLocalDayRange_DefaultUTC(t *testing.T) {
	userLookup := func(context.Context, int) (*models.User, error) { return nil, nil }
	start, end, tz, err := UserLocalDayRange(context.Background(), 1, 2, userLookup)
	require.NoError(t, err)
	require.Equal(t, "UTC", tz)
	require.True(t, start.Before(end))
}

func TestUserLocalDayRange_WithTimezone(t *testing.T) {
	user := &models.User{ID: 1, Timezone: sql.NullString{String: "America/Los_Angeles", Valid: true}}
	userLookup := func(context.Context, int) (*models.User, error) { return user, nil }
	start, end, tz, err := UserLocalDayRange(context.Background(), 1, 1, userLookup)
	require.NoError(t, err)
	require.Equal(t, "America/Los_Angeles", tz)
	// start and end should be UTC times where end-start == 24h
	require.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestNextCalendarDay(t *testing.T) {
	next, err := NextCalendarDay("2025-08-31")
	require.NoError(t, err)
	require.Equal(t, "2025-09-01", next)

	next, err = NextCalendarDay("2024-02-28")
	require.NoError(t, err)
	require.Equal(t, "2024-02-29", next)

	_, err = NextCalendarDay("not-a-date")
	require.Error(t, err)
}
