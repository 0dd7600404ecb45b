package planning_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/warp/worklog-engine/planning"
)

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := planning.ParseDate("2025-03-14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-14" {
		t.Errorf("round trip got %s", d)
	}
	if _, err := planning.ParseDate("14/03/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDate_BusinessDays(t *testing.T) {
	// 2025-01-04 is a Saturday, 2025-01-06 a Monday.
	if planning.NewDate(2025, time.January, 4).IsBusinessDay() {
		t.Error("Saturday counted as business day")
	}
	if planning.NewDate(2025, time.January, 5).IsBusinessDay() {
		t.Error("Sunday counted as business day")
	}
	if !planning.NewDate(2025, time.January, 6).IsBusinessDay() {
		t.Error("Monday not counted as business day")
	}
}

func TestBusinessDaysBetween(t *testing.T) {
	// Jan 1 2025 (Wed) .. Jan 7 (Tue): Wed, Thu, Fri, Mon, Tue = 5 days.
	days := planning.BusinessDaysBetween(
		planning.NewDate(2025, time.January, 1),
		planning.NewDate(2025, time.January, 7),
	)
	if len(days) != 5 {
		t.Fatalf("expected 5 business days, got %d", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i-1].Before(days[i]) {
			t.Error("business days not chronologically ordered")
		}
	}

	// Weekend-only range has none.
	none := planning.BusinessDaysBetween(
		planning.NewDate(2025, time.January, 4),
		planning.NewDate(2025, time.January, 5),
	)
	if len(none) != 0 {
		t.Errorf("expected no business days on a weekend, got %d", len(none))
	}

	// Inverted range has none.
	inverted := planning.BusinessDaysBetween(
		planning.NewDate(2025, time.January, 7),
		planning.NewDate(2025, time.January, 1),
	)
	if len(inverted) != 0 {
		t.Errorf("expected no days for inverted range, got %d", len(inverted))
	}
}

func TestDate_WeekStart_MondayAnchored(t *testing.T) {
	monday := planning.NewDate(2025, time.January, 6)
	cases := []planning.Date{
		monday,
		planning.NewDate(2025, time.January, 8),  // Wednesday
		planning.NewDate(2025, time.January, 10), // Friday
		planning.NewDate(2025, time.January, 12), // Sunday
	}
	for _, d := range cases {
		if !d.WeekStart().Equal(monday) {
			t.Errorf("WeekStart(%s) = %s, want %s", d, d.WeekStart(), monday)
		}
	}
}

func TestDate_JSONWireFormat(t *testing.T) {
	d := planning.NewDate(2025, time.July, 1)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-07-01"` {
		t.Errorf("got %s", b)
	}

	var parsed planning.Date
	if err := json.Unmarshal([]byte(`"2025-07-01"`), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !parsed.Equal(d) {
		t.Errorf("round trip mismatch: %s", parsed)
	}
	if err := json.Unmarshal([]byte(`"yesterday"`), &parsed); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestPeriod_Bounds(t *testing.T) {
	p, err := planning.ParsePeriod("2025-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Start().Equal(planning.NewDate(2025, time.February, 1)) {
		t.Errorf("start = %s", p.Start())
	}
	if !p.End().Equal(planning.NewDate(2025, time.February, 28)) {
		t.Errorf("end = %s", p.End())
	}
	if !p.Contains(planning.NewDate(2025, time.February, 15)) {
		t.Error("period should contain mid-month date")
	}
	if p.Contains(planning.NewDate(2025, time.March, 1)) {
		t.Error("period should not contain next month")
	}
	if p.String() != "2025-02" {
		t.Errorf("string = %s", p)
	}

	if got := planning.PeriodFor(planning.NewDate(2024, time.December, 31)); got.String() != "2024-12" {
		t.Errorf("PeriodFor = %s", got)
	}
}
