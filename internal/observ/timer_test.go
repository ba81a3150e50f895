package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestTimer_ReportOrder(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("load")
	tm.End(a, "1 file")
	b := tm.Begin("lower")
	tm.End(b, "")
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "load" || r.Phases[1].Name != "lower" {
		t.Fatalf("phases = %+v", r.Phases)
	}
	if r.Phases[0].Note != "1 file" {
		t.Errorf("note = %q", r.Phases[0].Note)
	}
	if !strings.Contains(tm.Summary(), "total") {
		t.Error("summary lacks total line")
	}
}

func TestTimer_Concurrent(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("fn"), "")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 8 {
		t.Errorf("got %d phases, want 8", got)
	}
}

func TestTimer_Nil(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Error("nil timer must report nothing")
	}
}
