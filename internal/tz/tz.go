// Package tz converts wall-clock times between a user's IANA zone and the
// canonical storage zone (UTC).
//
// Every conversion is anchored to a calendar date so the zone offset in effect
// on that date is used. Around a DST transition a local time may not exist or
// may be ambiguous; Go's time.Date normalization is accepted there and callers
// must not assume an exact round trip across such an instant.
package tz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/utils"
)

// ErrInvalidTimezone is returned when a zone name is not a recognized IANA zone.
var ErrInvalidTimezone = errors.New("invalid timezone")

// Canonical is the storage timezone.
var Canonical = time.UTC

// LoadLocation loads an IANA zone. Empty names and the process-local "Local"
// zone are rejected; falling back to a default is the caller's decision.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

// Validate reports whether name is a loadable IANA zone.
func Validate(name string) error {
	_, err := LoadLocation(name)
	return err
}

// ToCanonical interprets local as a wall-clock reading in zone on the anchor's
// calendar date and returns the corresponding UTC time of day.
func ToCanonical(local models.TimeOfDay, zone string, anchor time.Time) (models.TimeOfDay, error) {
	loc, err := LoadLocation(zone)
	if err != nil {
		return 0, err
	}
	return models.TimeOfDayFromTime(local.On(anchor, loc).In(Canonical)), nil
}

// ToLocal interprets canonical as a UTC time of day on the anchor's calendar
// date and returns the wall-clock reading in zone.
func ToLocal(canonical models.TimeOfDay, zone string, anchor time.Time) (models.TimeOfDay, error) {
	loc, err := LoadLocation(zone)
	if err != nil {
		return 0, err
	}
	return models.TimeOfDayFromTime(canonical.On(anchor, Canonical).In(loc)), nil
}

// ToCanonicalPtr converts an optional time, leaving nil untouched.
func ToCanonicalPtr(local *models.TimeOfDay, zone string, anchor time.Time) (*models.TimeOfDay, error) {
	if local == nil {
		return nil, nil
	}
	t, err := ToCanonical(*local, zone, anchor)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ToLocalPtr converts an optional time, leaving nil untouched.
func ToLocalPtr(canonical *models.TimeOfDay, zone string, anchor time.Time) (*models.TimeOfDay, error) {
	if canonical == nil {
		return nil, nil
	}
	t, err := ToLocal(*canonical, zone, anchor)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LocalInstant resolves a local wall-clock reading on date (YYYY-MM-DD) in zone
// to an absolute UTC instant.
func LocalInstant(date string, local models.TimeOfDay, zone string) (time.Time, error) {
	loc, err := LoadLocation(zone)
	if err != nil {
		return time.Time{}, err
	}
	day, err := utils.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return local.On(day, loc).UTC(), nil
}

// Today returns the calendar date (YYYY-MM-DD) of now as observed in zone.
func Today(now time.Time, zone string) (string, error) {
	loc, err := LoadLocation(zone)
	if err != nil {
		return "", err
	}
	return utils.TodayIn(now, loc), nil
}
