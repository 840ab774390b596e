package domain

import (
	"testing"
	"time"
)

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name      string
		view      View
		anchor    string
		end       string
		wantStart string
		wantEnd   string
		wantView  View
		wantDays  int
	}{
		{"day", ViewDay, "2024-07-01", "", "2024-07-01", "2024-07-01", ViewDay, 1},
		{"week from wednesday", ViewWeek, "2024-07-03", "", "2024-07-01", "2024-07-07", ViewWeek, 7},
		{"week from sunday", ViewWeek, "2024-07-07", "", "2024-07-01", "2024-07-07", ViewWeek, 7},
		{"week from monday", ViewWeek, "2024-07-01", "", "2024-07-01", "2024-07-07", ViewWeek, 7},
		{"week across year", ViewWeek, "2025-01-01", "", "2024-12-30", "2025-01-05", ViewWeek, 7},
		{"february non-leap", ViewMonth, "2023-02-15", "", "2023-02-01", "2023-02-28", ViewMonth, 28},
		{"february leap", ViewMonth, "2024-02-29", "", "2024-02-01", "2024-02-29", ViewMonth, 29},
		{"december", ViewMonth, "2024-12-31", "", "2024-12-01", "2024-12-31", ViewMonth, 31},
		{"custom range", ViewCustom, "2024-07-01", "2024-07-10", "2024-07-01", "2024-07-10", ViewCustom, 10},
		{"custom defaults end", "", "2024-07-01", "", "2024-07-01", "2024-07-01", ViewCustom, 1},
		{"unknown view is literal", View("year"), "2024-07-01", "2024-07-02", "2024-07-01", "2024-07-02", ViewCustom, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var end *time.Time
			if tt.end != "" {
				e := mustDate(t, tt.end)
				end = &e
			}

			start, last, view := ResolveRange(tt.view, mustDate(t, tt.anchor), end)

			if FormatDate(start) != tt.wantStart {
				t.Errorf("start = %s, want %s", FormatDate(start), tt.wantStart)
			}
			if FormatDate(last) != tt.wantEnd {
				t.Errorf("end = %s, want %s", FormatDate(last), tt.wantEnd)
			}
			if view != tt.wantView {
				t.Errorf("view = %s, want %s", view, tt.wantView)
			}
			if got := len(DatesBetween(start, last)); got != tt.wantDays {
				t.Errorf("days = %d, want %d", got, tt.wantDays)
			}
			if start.Weekday() != time.Monday && tt.view == ViewWeek {
				t.Errorf("week should start on Monday, got %s", start.Weekday())
			}
		})
	}
}

func TestDatesBetween(t *testing.T) {
	dates := DatesBetween(mustDate(t, "2024-02-27"), mustDate(t, "2024-03-01"))
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}

	if len(dates) != len(want) {
		t.Fatalf("len = %d, want %d", len(dates), len(want))
	}
	for i, d := range dates {
		if FormatDate(d) != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, FormatDate(d), want[i])
		}
	}

	if DatesBetween(mustDate(t, "2024-03-02"), mustDate(t, "2024-03-01")) != nil {
		t.Error("reversed range should be empty")
	}
	if DaysInclusive(mustDate(t, "2024-01-01"), mustDate(t, "2024-12-31")) != 366 {
		t.Error("2024 has 366 days")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10:00", "10:00:00", false},
		{"09:30:15", "09:30:15", false},
		{"24:00", "", true},
		{"10h", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompareTimeOfDay(t *testing.T) {
	if CompareTimeOfDay(ptr("09:00"), ptr("10:00:00")) != -1 {
		t.Error("09:00 should sort before 10:00:00")
	}
	if CompareTimeOfDay(nil, ptr("10:00")) != 1 {
		t.Error("nil should sort last")
	}
	if CompareTimeOfDay(ptr("10:00"), ptr("10:00:00")) != 0 {
		t.Error("equivalent times should compare equal")
	}
}

func TestSpecialPeriod_Covers(t *testing.T) {
	p := &SpecialPeriod{StartDate: mustDate(t, "2024-12-24"), EndDate: mustDate(t, "2024-12-26")}

	if !p.Covers(mustDate(t, "2024-12-24")) || !p.Covers(mustDate(t, "2024-12-26")) {
		t.Error("period bounds are inclusive")
	}
	if p.Covers(mustDate(t, "2024-12-27")) {
		t.Error("day after the period should not be covered")
	}
}
