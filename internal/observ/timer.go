// Package observ measures how long the stages of a run take.
package observ

import (
	"math"
	"time"
)

type phase struct {
	name string
	dur  time.Duration
	note string
	done bool
}

// Timer collects stage durations of one run in start order. It is not safe
// for concurrent use.
type Timer struct {
	phases []phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Start opens a phase. The returned stop func closes it with a note and
// returns its duration; calls after the first return 0.
func (t *Timer) Start(name string) func(note string) time.Duration {
	idx := len(t.phases)
	t.phases = append(t.phases, phase{name: name})
	started := t.now()
	return func(note string) time.Duration {
		p := &t.phases[idx]
		if p.done {
			return 0
		}
		p.dur, p.note, p.done = t.now().Sub(started), note, true
		return p.dur
	}
}

// PhaseReport is one finished stage.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report is the serialisable form of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Report lists the finished phases; phases still open are left out.
func (t *Timer) Report() Report {
	var rep Report
	var total time.Duration
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		total += p.dur
		rep.Phases = append(rep.Phases, PhaseReport{Name: p.name, DurationMS: millis(p.dur), Note: p.note})
	}
	rep.TotalMS = millis(total)
	return rep
}

// millis rounds to microseconds so reports do not carry float noise.
func millis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Microsecond)) / 1000
}
