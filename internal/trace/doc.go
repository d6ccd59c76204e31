// Package trace is the structured event log of buildlens.
//
// Every pipeline stage reports what it is doing through a Tracer carried in
// the context. Tracing is off by default and costs a context lookup when off.
//
// Enable it from the command line:
//
//	buildlens analyze --trace=- --trace-level=detail build.log
//
// # Tracers
//
//   - Nop: disabled tracing
//   - StreamTracer: writes each event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events, dumped when a run fails
//   - Fanout: sends events to several tracers
//
// # Levels and scopes
//
// LevelPhase emits ScopeRun and ScopeStage events, LevelDetail adds ScopeUnit
// (one log source or one source file), LevelDebug adds ScopeStep (single
// remediation decisions).
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeStage, "parse", trace.ParentID(ctx))
//	defer span.End("")
package trace
