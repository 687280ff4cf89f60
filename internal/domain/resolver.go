package domain

import "time"

// ResolveStatus derives the event status at now.
//
// cancelled is absorbing. With a parseable time range the window is
// [start instant, end instant]; otherwise the resolver falls back to whole
// days, from 00:00 of startDate to 23:59:59.999 of endDate.
func ResolveStatus(now time.Time, current EventStatus, startDate, endDate time.Time, timeRange string) EventStatus {
	if current == StatusCancelled {
		return StatusCancelled
	}
	if endDate.IsZero() {
		endDate = startDate
	}

	tr, ok := ParseTimeRange(timeRange)
	if !ok {
		switch {
		case now.Before(DateOf(startDate)):
			return StatusUpcoming
		case now.After(EndOfDay(endDate)):
			return StatusCompleted
		default:
			return StatusOngoing
		}
	}

	start, end := tr.Window(startDate, endDate)
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusCompleted
	default:
		return StatusOngoing
	}
}
