package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives trace events. Implementations must be goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
}

// Enabled reports whether t records events of scope.
func Enabled(t Tracer, scope Scope) bool {
	return t != nil && t.Level().ShouldEmit(scope)
}

// Mode selects where events go.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // written as they happen
	ModeRing                   // kept in memory, dumped on failure
	ModeBoth
)

var modeNames = map[string]Mode{"stream": ModeStream, "ring": ModeRing, "both": ModeBoth}

func (m Mode) String() string {
	for name, v := range modeNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("invalid trace mode: %q (expected: stream|ring|both)", s)
}

// DefaultRingSize is the ring capacity used when Options.RingSize is not set.
const DefaultRingSize = 4096

// Options configures New.
type Options struct {
	Level  Level
	Mode   Mode
	Format Format // FormatAuto picks NDJSON for .ndjson and .jsonl paths
	// Writer receives stream output. When nil, Path is created; "" and "-" mean stderr.
	Writer   io.Writer
	Path     string
	RingSize int
}

// New builds the tracer described by opts. LevelOff yields Nop.
func New(opts Options) (Tracer, error) {
	if opts.Level == LevelOff {
		return Nop, nil
	}
	if opts.RingSize <= 0 {
		opts.RingSize = DefaultRingSize
	}
	if opts.Format == FormatAuto {
		opts.Format = FormatText
		if strings.HasSuffix(opts.Path, ".ndjson") || strings.HasSuffix(opts.Path, ".jsonl") {
			opts.Format = FormatNDJSON
		}
	}

	var tracers []Tracer
	if opts.Mode == ModeStream || opts.Mode == ModeBoth {
		w, err := openWriter(opts)
		if err != nil {
			return nil, err
		}
		tracers = append(tracers, NewStreamTracer(w, opts.Level, opts.Format))
	}
	if opts.Mode == ModeRing || opts.Mode == ModeBoth {
		tracers = append(tracers, NewRingTracer(opts.RingSize, opts.Level))
	}
	switch len(tracers) {
	case 0:
		return nil, fmt.Errorf("unknown trace mode: %v", opts.Mode)
	case 1:
		return tracers[0], nil
	}
	return NewFanout(tracers...), nil
}

func openWriter(opts Options) (io.Writer, error) {
	if opts.Writer != nil {
		return opts.Writer, nil
	}
	if opts.Path == "" || opts.Path == "-" {
		return stderrWriter{os.Stderr}, nil
	}
	f, err := os.Create(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

// stderrWriter hides Close so closing the tracer leaves stderr open.
type stderrWriter struct{ io.Writer }
