package runlength

import (
	"testing"

	"github.com/cfortin/climstats/pkg/calendar"
	"github.com/cfortin/climstats/pkg/series"
)

func TestLengths(t *testing.T) {
	tests := []struct {
		name string
		cond []bool
		want []int
	}{
		{"empty", nil, nil},
		{"no runs", []bool{false, false}, nil},
		{"single run", []bool{false, true, true, false}, []int{2}},
		{"run at end", []bool{false, true, true, true}, []int{3}},
		{"several runs", []bool{true, false, true, true, false, true}, []int{1, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lengths(tt.cond)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestStatistics(t *testing.T) {
	cond := []bool{true, true, false, true, true, true, false, true}
	if got := Statistics(cond, series.Op(series.Max)); got != 3 {
		t.Errorf("max run = %v, want 3", got)
	}
	if got := Statistics(cond, series.Op(series.Sum)); got != 6 {
		t.Errorf("total run days = %v, want 6", got)
	}
	if got := Statistics(cond, series.Op(series.Count)); got != 3 {
		t.Errorf("number of runs = %v, want 3", got)
	}

	// No spell at all is a length of zero, not missing.
	if got := Statistics([]bool{false, false}, series.Op(series.Max)); got != 0 {
		t.Errorf("max run of empty condition = %v, want 0", got)
	}
}

func TestFirstRun(t *testing.T) {
	cond := []bool{false, true, false, true, true, true, false}
	tests := []struct {
		window int
		want   int
	}{
		{1, 1},
		{2, 3},
		{3, 3},
		{4, -1},
	}
	for _, tt := range tests {
		if got := FirstRun(cond, tt.window); got != tt.want {
			t.Errorf("FirstRun(window=%d) = %d, want %d", tt.window, got, tt.want)
		}
	}
}

func TestLastRun(t *testing.T) {
	cond := []bool{true, true, true, false, true, true, false}
	// The index points at the end of the qualifying run.
	if got := LastRun(cond, 2); got != 5 {
		t.Errorf("LastRun(window=2) = %d, want 5", got)
	}
	if got := LastRun(cond, 3); got != 2 {
		t.Errorf("LastRun(window=3) = %d, want 2", got)
	}
	if got := LastRun(cond, 4); got != -1 {
		t.Errorf("LastRun(window=4) = %d, want -1", got)
	}
}

func TestIndexOfDate(t *testing.T) {
	times := calendar.NoLeap.DailyRange(
		calendar.Date{Year: 1991, Month: 2, Day: 25},
		calendar.Date{Year: 1991, Month: 3, Day: 5},
	)
	if got := IndexOfDate(times, 3, 1); got != 4 {
		t.Errorf("index of 03-01 = %d, want 4", got)
	}
	if got := IndexOfDate(times, 7, 1); got != -1 {
		t.Errorf("index of absent date = %d, want -1", got)
	}
}
