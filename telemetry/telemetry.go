// Package telemetry provides context-scoped timing instrumentation for
// the ledger build pipeline, adapted from the teacher repository's
// telemetry package. It is deliberately narrow: a Collector starts
// named, optionally-countable timers and reports them; there is no
// external sink wiring (spec.md keeps observability out of the query/
// HTTP layer's scope, so this module stops at "something a caller can
// attach to context", matching §1's "out of scope: HTTP/GraphQL query
// layer").
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"
)

// TimerConfig carries structured metadata for a timer so reports can
// include a throughput figure (e.g. "1200 directives in 4ms").
type TimerConfig struct {
	Name  string
	Count int
	Unit  string
}

// Timer tracks one operation's duration. Not safe for concurrent use
// across goroutines; each goroutine should obtain its own timer.
type Timer interface {
	End()
}

// Collector starts timers and reports what they measured.
type Collector interface {
	Start(name string) Timer
	StartStructured(cfg TimerConfig) Timer
	Report(w io.Writer)
}

type record struct {
	cfg      TimerConfig
	duration time.Duration
}

// timingCollector is the default in-memory Collector implementation.
type timingCollector struct {
	records []*record
}

// NewTimingCollector returns a Collector that keeps every timing in
// memory for later Report.
func NewTimingCollector() Collector {
	return &timingCollector{}
}

type timer struct {
	c         *timingCollector
	rec       *record
	startedAt time.Time
}

func (t *timer) End() {
	t.rec.duration = time.Since(t.startedAt)
}

func (c *timingCollector) Start(name string) Timer {
	return c.StartStructured(TimerConfig{Name: name})
}

func (c *timingCollector) StartStructured(cfg TimerConfig) Timer {
	rec := &record{cfg: cfg}
	c.records = append(c.records, rec)
	return &timer{c: c, rec: rec, startedAt: time.Now()}
}

func (c *timingCollector) Report(w io.Writer) {
	for _, rec := range c.records {
		if rec.cfg.Count > 0 {
			fmt.Fprintf(w, "%s: %s (%d %s)\n", rec.cfg.Name, rec.duration, rec.cfg.Count, rec.cfg.Unit)
		} else {
			fmt.Fprintf(w, "%s: %s\n", rec.cfg.Name, rec.duration)
		}
	}
}

// noopCollector discards everything; used as the context default so
// instrumented code never has to nil-check.
type noopCollector struct{}

func (noopCollector) Start(string) Timer { return noopTimer{} }
func (noopCollector) StartStructured(TimerConfig) Timer { return noopTimer{} }
func (noopCollector) Report(io.Writer) {}

type noopTimer struct{}

func (noopTimer) End() {}

var defaultNoop Collector = noopCollector{}

type contextKey struct{}

// WithCollector attaches a Collector to ctx.
func WithCollector(ctx context.Context, c Collector) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext retrieves the attached Collector, or a no-op Collector
// if none was attached.
func FromContext(ctx context.Context) Collector {
	if c, ok := ctx.Value(contextKey{}).(Collector); ok {
		return c
	}
	return defaultNoop
}
