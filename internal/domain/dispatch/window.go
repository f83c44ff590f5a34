package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	domainagent "github.com/alanyang/shiftdesk/internal/domain/agent"
)

// ParseClock converts an "HH:MM" (or "HH:MM:SS") wall-clock string into minutes
// since midnight. Malformed or empty input parses to 0.
func ParseClock(s string) int {
	m, ok := parseClock(s)
	if !ok {
		return 0
	}
	return m
}

func parseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	if len(parts) == 3 {
		// Seconds must be well formed even though they are ignored.
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, false
		}
	}
	return h*60 + m, true
}

// MinuteOfDay returns the minutes since midnight of t in t's location. Seconds are ignored.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// EligibleAt reports whether the agent is inside working hours, outside lunch,
// enabled and holding a role that receives work, at the instant now.
//
// Ranges are inclusive on both ends and linear within one day: a schedule whose
// work end precedes its start never matches.
func EligibleAt(a domainagent.Agent, now time.Time) bool {
	cur := MinuteOfDay(now)
	s := a.Schedule

	inLunch := ParseClock(s.LunchStart) <= cur && cur <= ParseClock(s.LunchEnd)
	inWork := ParseClock(s.WorkStart) <= cur && cur <= ParseClock(s.WorkEnd)

	return inWork && !inLunch && a.Active && a.Role.ReceivesWork()
}

// ValidateSchedule rejects malformed clock strings and windows that span midnight.
func ValidateSchedule(s domainagent.Schedule) error {
	fields := []struct {
		name  string
		value string
	}{
		{"work_start", s.WorkStart},
		{"work_end", s.WorkEnd},
		{"lunch_start", s.LunchStart},
		{"lunch_end", s.LunchEnd},
	}
	mins := make([]int, len(fields))
	for i, f := range fields {
		m, ok := parseClock(f.value)
		if !ok {
			return fmt.Errorf("%w: %s %q is not HH:MM", ErrInvalidSchedule, f.name, f.value)
		}
		mins[i] = m
	}
	if mins[0] > mins[1] {
		return fmt.Errorf("%w: work window %s-%s spans midnight", ErrInvalidSchedule, s.WorkStart, s.WorkEnd)
	}
	if mins[2] > mins[3] {
		return fmt.Errorf("%w: lunch window %s-%s spans midnight", ErrInvalidSchedule, s.LunchStart, s.LunchEnd)
	}
	return nil
}
