package system

import (
	"testing"
	"time"
)

type probe struct {
	phase Phase
	tag   string
	log   *[]string
}

func (p *probe) Phase() Phase { return p.phase }
func (p *probe) Update(time.Duration) {
	*p.log = append(*p.log, p.tag)
}

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&probe{PhaseOutput, "output", &log})
	r.Register(&probe{PhaseInput, "input", &log})
	r.Register(&probe{PhaseCleanup, "cleanup", &log})
	r.Register(&probe{PhaseUpdate, "update", &log})

	r.Tick(time.Millisecond)

	want := []string{"input", "update", "output", "cleanup"}
	if len(log) != len(want) {
		t.Fatalf("ran %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("order %v, want %v", log, want)
		}
	}
}

func TestRunnerStableWithinPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&probe{PhaseUpdate, "first", &log})
	r.Register(&probe{PhaseUpdate, "second", &log})
	r.Register(&probe{PhaseUpdate, "third", &log})

	r.Tick(time.Millisecond)

	want := []string{"first", "second", "third"}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("registration order not preserved: %v", log)
		}
	}
}

func TestRunnerResortsAfterLateRegister(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&probe{PhaseUpdate, "update", &log})
	r.Tick(time.Millisecond)

	log = log[:0]
	r.Register(&probe{PhaseInput, "input", &log})
	r.Tick(time.Millisecond)

	if len(log) != 2 || log[0] != "input" || log[1] != "update" {
		t.Fatalf("late registration order: %v", log)
	}
}
