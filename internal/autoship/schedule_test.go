package autoship

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextRunDate_FirstRunBeforeCutoff(t *testing.T) {
	now := date(2024, time.March, 10)
	got := NextRunDate(now, 20, 1, nil, nil)
	if want := date(2024, time.March, 20); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_FirstRunAfterCutoff(t *testing.T) {
	now := date(2024, time.March, 25)
	got := NextRunDate(now, 20, 1, nil, nil)
	if want := date(2024, time.April, 20); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_FirstRunOnCutoffDayRunsSameDay(t *testing.T) {
	now := date(2024, time.March, 20)
	got := NextRunDate(now, 20, 1, nil, nil)
	if want := date(2024, time.March, 20); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_FirstRunRespectsFutureStartDate(t *testing.T) {
	now := date(2024, time.March, 10)
	start := date(2024, time.June, 5)
	got := NextRunDate(now, 20, 1, &start, nil)
	if want := date(2024, time.June, 20); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	// Start date past the anchor day pushes the first run to the next month.
	start = date(2024, time.June, 25)
	got = NextRunDate(now, 20, 1, &start, nil)
	if want := date(2024, time.July, 20); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_FutureStartDateRestartsSchedule(t *testing.T) {
	// A lastRunDate is ignored while startDate is still ahead of now.
	now := date(2024, time.March, 10)
	start := date(2024, time.May, 1)
	last := date(2024, time.January, 15)
	got := NextRunDate(now, 15, 1, &start, &last)
	if want := date(2024, time.May, 15); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_SteadyStateMonthly(t *testing.T) {
	last := date(2024, time.January, 15)
	got := NextRunDate(date(2024, time.January, 16), 15, 1, nil, &last)
	if want := date(2024, time.February, 15); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_SteadyStateQuarterly(t *testing.T) {
	last := date(2024, time.January, 15)
	got := NextRunDate(date(2024, time.January, 16), 15, 3, nil, &last)
	if want := date(2024, time.April, 15); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_SteadyStateYearRollover(t *testing.T) {
	last := date(2024, time.November, 28)
	got := NextRunDate(date(2024, time.November, 29), 28, 3, nil, &last)
	if want := date(2025, time.February, 28); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextRunDate_Deterministic(t *testing.T) {
	now := date(2024, time.July, 3)
	start := date(2024, time.July, 1)
	last := date(2024, time.June, 10)
	first := NextRunDate(now, 10, 2, &start, &last)
	for i := 0; i < 5; i++ {
		if got := NextRunDate(now, 10, 2, &start, &last); !got.Equal(first) {
			t.Fatalf("expected deterministic result, got %s then %s", first, got)
		}
	}
}

func TestNextRunDate_NeverBeforeStartOrNow(t *testing.T) {
	cases := []struct {
		now       time.Time
		activeDay int
		freq      int
		start     *time.Time
		last      *time.Time
	}{
		{now: date(2024, time.March, 10), activeDay: 5, freq: 1},
		{now: date(2024, time.March, 10), activeDay: 28, freq: 1},
		{now: date(2024, time.December, 31), activeDay: 1, freq: 1},
		{now: date(2024, time.March, 10), activeDay: 5, freq: 6, start: ptrDate(date(2025, time.January, 20))},
	}
	for _, tc := range cases {
		got := NextRunDate(tc.now, tc.activeDay, tc.freq, tc.start, tc.last)
		floor := dateOnly(tc.now)
		if tc.start != nil && tc.start.After(floor) {
			floor = *tc.start
		}
		if got.Before(floor) {
			t.Fatalf("next run %s is before floor %s (case %+v)", got, floor, tc)
		}
		if got.Day() != tc.activeDay {
			t.Fatalf("next run %s not on anchor day %d", got, tc.activeDay)
		}
	}
}

func ptrDate(t time.Time) *time.Time { return &t }
