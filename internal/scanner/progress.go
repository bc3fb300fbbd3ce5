package scanner

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Event describes one completed unit within a batch. Emitted exactly
// once per unit; consumers derive throughput and ETA from it.
type Event struct {
	Path    string
	Done    int
	Total   int
	Cached  bool
	Elapsed time.Duration
}

// Throughput returns completed units per second.
func (e Event) Throughput() float64 {
	if e.Elapsed <= 0 {
		return 0
	}
	return float64(e.Done) / e.Elapsed.Seconds()
}

// ETA estimates the time remaining for the batch.
func (e Event) ETA() time.Duration {
	tp := e.Throughput()
	if tp <= 0 || e.Done >= e.Total {
		return 0
	}
	remaining := float64(e.Total-e.Done) / tp
	return time.Duration(remaining * float64(time.Second))
}

// Sink receives progress events. Implementations must tolerate
// concurrent Emit calls; the scheduler does not serialize them.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// NoopSink drops every event. Progress reporting is observational, so
// this is the default.
type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// PlainSink writes a single updating progress line. Safe for concurrent
// emitters.
type PlainSink struct {
	W  io.Writer
	mu sync.Mutex
}

func (s *PlainSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.W, "\rscanning %d/%d (%.1f files/s, eta %s)   ",
		e.Done, e.Total, e.Throughput(), e.ETA().Round(time.Second))
	if e.Done >= e.Total {
		fmt.Fprintln(s.W)
	}
}
