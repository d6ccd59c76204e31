package trace

import "time"

// Kind is what an event marks.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Scope is the granularity of an event; smaller values are coarser.
type Scope uint8

const (
	ScopeRun   Scope = iota + 1 // one analysis run
	ScopeStage                  // parse, classify, correlate, remediate, report
	ScopeUnit                   // one log source or one source file
	ScopeStep                   // one remediation decision
)

func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopeStage:
		return "stage"
	case ScopeUnit:
		return "unit"
	case ScopeStep:
		return "step"
	}
	return "unknown"
}

// Attr is one key/value pair attached to an event. Attrs keep the order
// they were added in.
type Attr struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned when the event is stored
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for the run span
	Name     string // "parse", "source:build.log", "file:App/View.swift"
	Detail   string
	Attrs    []Attr
}

// Attr returns the value of key, or "".
func (e *Event) Attr(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
