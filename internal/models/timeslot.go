package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted exam date format.
const DateLayout = "2006-01-02"

// EveningStartHour marks slots that count as evening exams.
const EveningStartHour = 19

var canonicalSlots = []string{
	"08:00-10:00",
	"10:30-12:30",
	"14:00-16:00",
	"16:30-18:30",
	"19:00-21:00",
}

// TimeSlots returns the daily slot set: four daytime slots, plus the evening
// slot when slotsPerDay is 5.
func TimeSlots(slotsPerDay int) []string {
	n := 4
	if slotsPerDay == 5 {
		n = 5
	}
	out := make([]string, n)
	copy(out, canonicalSlots[:n])
	return out
}

// AllTimeSlots returns every canonical slot.
func AllTimeSlots() []string {
	return TimeSlots(5)
}

// IsCanonicalSlot reports exact membership in the slot vocabulary.
func IsCanonicalSlot(slot string) bool {
	for _, s := range canonicalSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
	}
	return t, nil
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ParseTimeRange converts "HH:MM-HH:MM" into minutes since midnight.
func ParseTimeRange(raw string) (start, end int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time range %q: want HH:MM-HH:MM", raw)
	}
	if start, err = parseClock(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid time range %q: %w", raw, err)
	}
	if end, err = parseClock(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid time range %q: %w", raw, err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("invalid time range %q: end must be after start", raw)
	}
	return start, end, nil
}

func parseClock(raw string) (int, error) {
	hm := strings.Split(strings.TrimSpace(raw), ":")
	if len(hm) != 2 || len(hm[0]) != 2 || len(hm[1]) != 2 {
		return 0, fmt.Errorf("bad clock %q", raw)
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", raw)
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", raw)
	}
	return h*60 + m, nil
}

// RangesOverlap is the open-interval test: touching ranges do not overlap.
func RangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return !(aEnd <= bStart || bEnd <= aStart)
}

// IsEveningSlot reports whether the slot starts at or after EveningStartHour.
func IsEveningSlot(slot string) (bool, error) {
	start, _, err := ParseTimeRange(slot)
	if err != nil {
		return false, err
	}
	return start/60 >= EveningStartHour, nil
}

// NextMonday returns from when it is a Monday, else the following Monday.
func NextMonday(from time.Time) time.Time {
	days := (8 - int(from.Weekday())) % 7
	y, m, d := from.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, time.UTC)
}

// DateRange lists every day from start to end inclusive.
func DateRange(start, end time.Time) []string {
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}
