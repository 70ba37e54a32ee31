package core

import (
	"testing"
	"time"
)

func TestWeekIDFor(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{
			name: "monday mid-year",
			date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			want: "2024-W10",
		},
		{
			name: "sunday belongs to same week as its monday",
			date: time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC),
			want: "2024-W10",
		},
		{
			name: "jan 1 on a monday is week 1",
			date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "2024-W01",
		},
		{
			name: "days before the first monday fall in the previous year",
			date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), // Wednesday
			want: "2024-W53",
		},
		{
			name: "first monday of 2025",
			date: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			want: "2025-W01",
		},
		{
			name: "dec 31 on a wednesday stays in its monday's year",
			date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			want: "2025-W52",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekIDFor(tt.date); got != tt.want {
				t.Errorf("WeekIDFor(%v) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestWeekIDRoundTrip(t *testing.T) {
	// mondayFor(weekIdFor(d)) must equal the Monday of d's week for every
	// date, including year boundaries.
	start := time.Date(2022, 12, 15, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 800; d++ {
		date := start.AddDate(0, 0, d)
		id := WeekIDFor(date)
		monday, err := MondayFor(id)
		if err != nil {
			t.Fatalf("MondayFor(%q): %v", id, err)
		}
		if !monday.Equal(MondayOf(date)) {
			t.Fatalf("round trip failed for %v: id %q, monday %v, want %v",
				date, id, monday, MondayOf(date))
		}
		if monday.Weekday() != time.Monday {
			t.Fatalf("MondayFor(%q) returned a %v", id, monday.Weekday())
		}
		if WeekIDFor(monday) != id {
			t.Fatalf("WeekIDFor(MondayFor(%q)) = %q", id, WeekIDFor(monday))
		}
	}
}

func TestParseWeekID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		wantYear int
		wantWeek int
		wantErr  bool
	}{
		{name: "zero padded", id: "2024-W05", wantYear: 2024, wantWeek: 5},
		{name: "bare week number", id: "2024-W5", wantYear: 2024, wantWeek: 5},
		{name: "high week", id: "2024-W53", wantYear: 2024, wantWeek: 53},
		{name: "week zero", id: "2024-W00", wantErr: true},
		{name: "week out of range", id: "2025-W53", wantErr: true},
		{name: "missing separator", id: "2024W10", wantErr: true},
		{name: "garbage", id: "hello", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, week, err := ParseWeekID(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseWeekID(%q) = (%d, %d), want error", tt.id, year, week)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWeekID(%q): %v", tt.id, err)
			}
			if year != tt.wantYear || week != tt.wantWeek {
				t.Errorf("ParseWeekID(%q) = (%d, %d), want (%d, %d)",
					tt.id, year, week, tt.wantYear, tt.wantWeek)
			}
		})
	}
}

func TestWeeksInYear(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2023, 52},
		{2024, 53}, // Jan 1 2024 is a Monday and 2024 is a leap year
		{2025, 52},
	}
	for _, tt := range tests {
		if got := WeeksInYear(tt.year); got != tt.want {
			t.Errorf("WeeksInYear(%d) = %d, want %d", tt.year, got, tt.want)
		}
	}
}

func TestMonthOfWeek(t *testing.T) {
	// A week spanning two months is attributed to the month of its Monday.
	year, month, err := MonthOfWeek("2024-W05") // Monday 2024-01-29
	if err != nil {
		t.Fatalf("MonthOfWeek: %v", err)
	}
	if year != 2024 || month != time.January {
		t.Errorf("MonthOfWeek(2024-W05) = %d-%v, want 2024-January", year, month)
	}
}
