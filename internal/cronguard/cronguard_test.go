package cronguard

import (
	"testing"
	"time"
)

func TestMatchesEveryMinute(t *testing.T) {
	if !Matches("* * * * *", time.Date(2026, 7, 30, 10, 15, 0, 0, time.UTC)) {
		t.Fatal("expected match")
	}
}

func TestMatchesSpecificMinuteHour(t *testing.T) {
	now := time.Date(2026, 7, 30, 9, 30, 45, 0, time.UTC)
	if !Matches("30 9 * * *", now) {
		t.Fatal("expected match within the minute regardless of seconds")
	}
	if Matches("31 9 * * *", now) {
		t.Fatal("expected no match for a different minute")
	}
}

func TestSixFieldWithSecondsIgnoredForMinuteGate(t *testing.T) {
	now := time.Date(2026, 7, 30, 9, 30, 5, 0, time.UTC)
	if !Matches("45 30 9 * * *", now) {
		t.Fatal("expected match: any second within the minute satisfies the gate")
	}
}

func TestStepField(t *testing.T) {
	now := time.Date(2026, 7, 30, 9, 10, 0, 0, time.UTC)
	if !Matches("*/5 * * * *", now) {
		t.Fatal("expected match on a 5-minute step")
	}
	now2 := time.Date(2026, 7, 30, 9, 11, 0, 0, time.UTC)
	if Matches("*/5 * * * *", now2) {
		t.Fatal("expected no match off-step")
	}
}

func TestRangeAndList(t *testing.T) {
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	if !Matches("0 9-17 * * *", now) {
		t.Fatal("expected match within hour range")
	}
	if !Matches("0 1,14,22 * * *", now) {
		t.Fatal("expected match in hour list")
	}
}

func TestDayOfWeekNumberingSundayIsOne(t *testing.T) {
	sunday := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	if sunday.Weekday() != time.Sunday {
		t.Fatal("test fixture date is not a Sunday")
	}
	if !Matches("0 9 * * 1", sunday) {
		t.Fatal("expected day-of-week 1 to mean Sunday")
	}
	saturday := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	if !Matches("0 9 * * 7", saturday) {
		t.Fatal("expected day-of-week 7 to mean Saturday")
	}
}

func TestInvalidExpressionReturnsFalse(t *testing.T) {
	if Matches("not a cron expr", time.Now()) {
		t.Fatal("expected invalid expression to return false")
	}
	if Matches("", time.Now()) {
		t.Fatal("expected empty expression to return false")
	}
}
