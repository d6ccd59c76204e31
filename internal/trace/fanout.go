package trace

import "errors"

// Fanout sends every event to all of its tracers.
type Fanout struct {
	tracers []Tracer
	level   Level
}

// NewFanout combines tracers; its level is the most verbose of theirs.
func NewFanout(tracers ...Tracer) *Fanout {
	f := &Fanout{tracers: tracers}
	for _, t := range tracers {
		f.level = max(f.level, t.Level())
	}
	return f
}

// Emit hands each tracer its own copy; stream tracers stamp Seq in place.
func (f *Fanout) Emit(ev *Event) {
	if ev == nil {
		return
	}
	for _, t := range f.tracers {
		cp := *ev
		t.Emit(&cp)
	}
}

// Ring returns the first ring tracer of the fanout, or nil.
func (f *Fanout) Ring() *RingTracer {
	for _, t := range f.tracers {
		if r, ok := t.(*RingTracer); ok {
			return r
		}
	}
	return nil
}

func (f *Fanout) Flush() error {
	var errs []error
	for _, t := range f.tracers {
		errs = append(errs, t.Flush())
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, t := range f.tracers {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

func (f *Fanout) Level() Level { return f.level }
