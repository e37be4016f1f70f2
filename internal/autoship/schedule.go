package autoship

import "time"

// NextRunDate computes the date the next recurring order should be generated.
//
// activeDay is the anchor day-of-month (callers guarantee 1-28), and
// frequencyMonths the recurrence interval. A nil lastRunDate, or a startDate
// still in the future, means the schedule is fresh (or restarted): the next
// run is the first occurrence of activeDay on or after max(now, startDate).
// Otherwise the next run is lastRunDate shifted forward by frequencyMonths,
// re-anchored on activeDay; month overflow rolls into following years via
// standard calendar normalization.
//
// The function is pure: no I/O, deterministic for given inputs. Callers
// persist the result.
func NextRunDate(now time.Time, activeDay, frequencyMonths int, startDate, lastRunDate *time.Time) time.Time {
	if frequencyMonths < 1 {
		frequencyMonths = 1
	}

	today := dateOnly(now)
	start := today
	if startDate != nil {
		start = dateOnly(*startDate)
	}

	if lastRunDate == nil || start.After(today) {
		candidate := firstOnOrAfter(today, activeDay)
		if candidate.Before(start) {
			candidate = firstOnOrAfter(start, activeDay)
		}
		return candidate
	}

	last := dateOnly(*lastRunDate)
	return time.Date(last.Year(), last.Month()+time.Month(frequencyMonths), activeDay, 0, 0, 0, 0, time.UTC)
}

// firstOnOrAfter returns the first occurrence of activeDay in ref's month or,
// when ref is already past it, the next month.
func firstOnOrAfter(ref time.Time, activeDay int) time.Time {
	month := ref.Month()
	if ref.Day() > activeDay {
		month++
	}
	return time.Date(ref.Year(), month, activeDay, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
