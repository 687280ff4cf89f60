package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange is a parsed "9:00 AM - 5:30 PM" string, in minutes since local midnight.
type TimeRange struct {
	StartMinutes int
	EndMinutes   int
}

// ParseTimeRange parses "<H>[:<MM>] <AM|PM> - <H>[:<MM>] <AM|PM>".
// It never guesses: any malformed side makes the whole range unparseable.
// Ordering is not checked here, a range may legitimately cross midnight.
func ParseTimeRange(text string) (TimeRange, bool) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return TimeRange{}, false
	}
	start, ok := parseClock(parts[0])
	if !ok {
		return TimeRange{}, false
	}
	end, ok := parseClock(parts[1])
	if !ok {
		return TimeRange{}, false
	}
	return TimeRange{StartMinutes: start, EndMinutes: end}, true
}

func parseClock(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var pm bool
	switch {
	case strings.HasSuffix(s, "AM"):
	case strings.HasSuffix(s, "PM"):
		pm = true
	default:
		return 0, false
	}
	clock := strings.TrimSpace(s[:len(s)-2])

	hourText, minuteText, hasMinutes := strings.Cut(clock, ":")
	hour, ok := atoiDigits(hourText, 2)
	if !ok || hour < 1 || hour > 12 {
		return 0, false
	}
	minute := 0
	if hasMinutes {
		if len(minuteText) != 2 {
			return 0, false
		}
		minute, ok = atoiDigits(minuteText, 2)
		if !ok || minute > 59 {
			return 0, false
		}
	}

	if hour == 12 {
		hour = 0
	}
	if pm {
		hour += 12
	}
	return hour*60 + minute, true
}

// atoiDigits accepts 1..maxLen ASCII digits and nothing else (no sign, no spaces).
func atoiDigits(s string, maxLen int) (int, bool) {
	if s == "" || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Window anchors the range to calendar dates: start on startDate, end on endDate
// (startDate when endDate is zero). An end that is not after the start is
// treated as crossing midnight and pushed one day forward.
func (r TimeRange) Window(startDate, endDate time.Time) (time.Time, time.Time) {
	if endDate.IsZero() {
		endDate = startDate
	}
	start := atMinutes(startDate, r.StartMinutes)
	end := atMinutes(endDate, r.EndMinutes)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

func (r TimeRange) String() string {
	return formatClock(r.StartMinutes) + " - " + formatClock(r.EndMinutes)
}

func formatClock(minutes int) string {
	h, m := minutes/60, minutes%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}
