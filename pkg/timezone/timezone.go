// Package timezone provides the stateless time lookups: the current
// time in a named zone and HH:MM conversion between zones. It is a thin
// wrapper over the IANA timezone database; no state is persisted.
package timezone

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/entrhq/chronos/pkg/errors"
)

var timeNow = time.Now // injected for testability

const displayLayout = "January 02, 2006 at 03:04:05 PM"

// TimeResult describes a single instant in a single zone.
type TimeResult struct {
	Timezone  string `json:"timezone"`
	DateTime  string `json:"datetime"`
	Formatted string `json:"formatted_timezone"`
	DayOfWeek string `json:"day_of_week"`
	IsDST     bool   `json:"is_dst"`
}

// ConversionResult pairs the source and target renderings of one
// instant with their signed offset difference.
type ConversionResult struct {
	Source         TimeResult `json:"source"`
	Target         TimeResult `json:"target"`
	TimeDifference string     `json:"time_difference"`
}

// Service resolves zone names, including the "system"/"local" aliases
// for the host zone (optionally overridden at startup).
type Service struct {
	local     *time.Location
	localName string
}

// NewService creates a timezone service. A non-empty override replaces
// the detected host zone; an unknown override fails fast.
func NewService(localOverride string) (*Service, error) {
	if localOverride == "" {
		return &Service{local: time.Local, localName: time.Local.String()}, nil
	}
	loc, err := time.LoadLocation(localOverride)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid local timezone override %q", localOverride)
	}
	return &Service{local: loc, localName: localOverride}, nil
}

// LocalName returns the name of the configured local zone.
func (s *Service) LocalName() string {
	return s.localName
}

func isLocalAlias(name string) bool {
	lower := strings.ToLower(name)
	return lower == "system" || lower == "local"
}

func (s *Service) resolve(name string) (*time.Location, string, error) {
	if isLocalAlias(name) || strings.EqualFold(name, s.localName) {
		return s.local, s.localName, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "", apperrors.NewValidationError(
			"invalid timezone %q: use 'system', 'local', or IANA names like 'America/New_York', 'Europe/London', 'UTC'", name)
	}
	return loc, name, nil
}

func (s *Service) result(t time.Time, requested, actual string) TimeResult {
	formatted := t.Format(displayLayout)
	display := actual
	switch {
	case strings.EqualFold(requested, "utc"):
		formatted += " UTC"
	case isLocalAlias(requested):
		formatted += fmt.Sprintf(" (System Time - %s)", s.localName)
		display = fmt.Sprintf("System (%s)", s.localName)
	default:
		formatted += fmt.Sprintf(" (%s)", requested)
	}
	return TimeResult{
		Timezone:  display,
		DateTime:  t.Format(time.RFC3339),
		Formatted: formatted,
		DayOfWeek: t.Weekday().String(),
		IsDST:     t.IsDST(),
	}
}

// Current reports the current time in the named zone.
func (s *Service) Current(name string) (*TimeResult, error) {
	loc, actual, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	r := s.result(timeNow().In(loc), name, actual)
	return &r, nil
}

// ParseClock validates a 24-hour HH:MM string.
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, apperrors.NewValidationError(
			"invalid time format %q: expected 24-hour format HH:MM (00:00-23:59)", s)
	}
	hour, err = strconv.Atoi(s[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, apperrors.NewValidationError("hours must be between 00-23 in %q", s)
	}
	minute, err = strconv.Atoi(s[3:])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, apperrors.NewValidationError("minutes must be between 00-59 in %q", s)
	}
	return hour, minute, nil
}

// Convert interprets an HH:MM clock reading as today's date in the
// source zone and renders the same instant in the target zone, with the
// signed offset difference between the two.
func (s *Service) Convert(sourceTZ, clock, targetTZ string) (*ConversionResult, error) {
	sourceLoc, sourceName, err := s.resolve(sourceTZ)
	if err != nil {
		return nil, err
	}
	targetLoc, targetName, err := s.resolve(targetTZ)
	if err != nil {
		return nil, err
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return nil, err
	}

	today := timeNow().In(sourceLoc)
	sourceTime := time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, sourceLoc)
	targetTime := sourceTime.In(targetLoc)

	_, sourceOffset := sourceTime.Zone()
	_, targetOffset := targetTime.Zone()
	diff := float64(targetOffset-sourceOffset) / 3600

	var diffStr string
	if diff == math.Trunc(diff) {
		diffStr = fmt.Sprintf("%+.1fh", diff)
	} else {
		// Fractional offsets like Nepal's UTC+5:45.
		diffStr = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%+.2f", diff), "0"), ".") + "h"
	}

	return &ConversionResult{
		Source:         s.result(sourceTime, sourceTZ, sourceName),
		Target:         s.result(targetTime, targetTZ, targetName),
		TimeDifference: diffStr,
	}, nil
}
