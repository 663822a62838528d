package series

import (
	"math"
	"strings"
	"testing"

	"github.com/cfortin/climstats/pkg/calendar"
)

func daily(n int) []calendar.Date {
	out := make([]calendar.Date, n)
	d := calendar.Date{Year: 1991, Month: 1, Day: 1}
	for i := range out {
		out[i] = d
		d = calendar.NoLeap.AddDays(d, 1)
	}
	return out
}

func TestCopyIsDeep(t *testing.T) {
	s := New(daily(3), []float64{1, 2, 3}, Meta{Units: "K", Calendar: calendar.NoLeap})
	s.Meta.AppendHistory("created")

	c := s.Copy()
	c.Values[0] = 99
	c.Times[0] = calendar.Date{Year: 2000, Month: 1, Day: 1}
	c.Meta.AppendHistory("copied")

	if s.Values[0] != 1 {
		t.Error("copy shares the values slice")
	}
	if s.Times[0] != (calendar.Date{Year: 1991, Month: 1, Day: 1}) {
		t.Error("copy shares the time axis")
	}
	if len(s.Meta.History) != 1 {
		t.Errorf("copy shares the history: %v", s.Meta.History)
	}
}

func TestMaskAndDrop(t *testing.T) {
	s := New(daily(4), []float64{1, 2, 3, 4}, Meta{Calendar: calendar.NoLeap})
	keep := []bool{true, false, true, false}

	m := s.MaskWhere(keep)
	if m.Len() != 4 || !math.IsNaN(m.Values[1]) || !math.IsNaN(m.Values[3]) || m.Values[0] != 1 {
		t.Errorf("MaskWhere: %v", m.Values)
	}

	d := s.DropWhere(keep)
	if d.Len() != 2 || d.Values[0] != 1 || d.Values[1] != 3 {
		t.Errorf("DropWhere values: %v", d.Values)
	}
	if d.Times[1] != s.Times[2] {
		t.Errorf("DropWhere time axis: %v", d.Times)
	}
}

func TestAppendHistory(t *testing.T) {
	var m Meta
	m.AppendHistory("jitter_under_thresh(thresh=%s)", "1 mm d-1")
	if len(m.History) != 1 {
		t.Fatalf("history: %v", m.History)
	}
	if !strings.HasSuffix(m.History[0], "jitter_under_thresh(thresh=1 mm d-1)") {
		t.Errorf("history entry %q lacks the call record", m.History[0])
	}
	// The entry is timestamp-prefixed.
	if !strings.Contains(m.History[0], "T") || !strings.HasPrefix(m.History[0], "20") {
		t.Errorf("history entry %q lacks a timestamp prefix", m.History[0])
	}
}

func TestNewPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic on mismatched axis lengths")
		}
	}()
	New(daily(3), []float64{1, 2}, Meta{})
}
