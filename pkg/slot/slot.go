// Package slot converts a working-hours window into fixed-width bookable slots.
//
// Slot indices are computed on a grid shared by every doctor and clinic that uses
// the same duration and origin, so index 18 always means the same time of day.
package slot

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("invalid clock time, use HH:MM")

const minutesPerDay = 24 * 60

// Slot is a single grid cell inside a working window.
type Slot struct {
	Index     int
	StartTime string // HH:MM
	EndTime   string // HH:MM
}

// Calculator is safe for concurrent use; it holds no mutable state.
type Calculator struct {
	duration int
	origin   int
}

// NewCalculator builds a calculator for the given slot duration in minutes. origin is
// the HH:MM clock time that maps to slot index 0; an empty origin means midnight.
func NewCalculator(durationMinutes int, origin string) (*Calculator, error) {
	if durationMinutes <= 0 || durationMinutes > minutesPerDay {
		return nil, fmt.Errorf("slot duration must be between 1 and %d minutes, got %d", minutesPerDay, durationMinutes)
	}

	originMinutes := 0
	if origin != "" {
		m, err := ParseClock(origin)
		if err != nil {
			return nil, fmt.Errorf("grid origin: %w", err)
		}
		if m >= minutesPerDay {
			return nil, fmt.Errorf("grid origin: %w: %q", ErrInvalidClock, origin)
		}
		originMinutes = m
	}

	return &Calculator{duration: durationMinutes, origin: originMinutes}, nil
}

func (c *Calculator) DurationMinutes() int {
	return c.duration
}

// SlotsFor tiles [start, end) from start in steps of the slot duration. A trailing
// partial slot is dropped, and end <= start yields an empty result.
func (c *Calculator) SlotsFor(start, end string) ([]Slot, error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return nil, err
	}

	slots := []Slot{}
	if endMin <= startMin {
		return slots, nil
	}

	for cur := startMin; cur+c.duration <= endMin; cur += c.duration {
		if cur < c.origin {
			continue
		}
		slots = append(slots, Slot{
			Index:     (cur - c.origin) / c.duration,
			StartTime: FormatClock(cur),
			EndTime:   FormatClock(cur + c.duration),
		})
	}

	return slots, nil
}

// IndexOf returns the grid index a clock time falls into.
func (c *Calculator) IndexOf(clock string) (int, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return 0, err
	}
	if m < c.origin {
		return 0, fmt.Errorf("%s is before the slot grid origin %s", clock, FormatClock(c.origin))
	}
	return (m - c.origin) / c.duration, nil
}

// ClockOf returns the HH:MM start time of a grid index.
func (c *Calculator) ClockOf(index int) string {
	return FormatClock(c.origin + index*c.duration)
}

// ParseClock accepts HH:MM and HH:MM:SS (as returned by a Postgres time column) and
// returns minutes since midnight. Seconds are ignored. 24:00 (and 24:00:00, which
// Postgres allows in a time column) is the end of the day, 1440.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return minutesPerDay, nil
	}
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as HH:MM. 1440 renders as 24:00 so a
// window closing at midnight keeps a readable end time.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
