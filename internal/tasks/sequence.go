package tasks

import (
	"context"
	"sync"
)

// Sequencer stamps requests of one stream so only the newest completion is applied.
//
// The zero value is inactive; use [NewSequencer].
type Sequencer struct {
	mu      sync.Mutex
	current uint64
	active  bool
}

// Ticket identifies one request issued by a [Sequencer].
type Ticket struct {
	seq *Sequencer
	id  uint64
}

// NewSequencer returns an active sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{active: true}
}

// Next issues a ticket that supersedes every earlier one.
func (s *Sequencer) Next() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current++
	return Ticket{seq: s, id: s.current}
}

// Deactivate makes every outstanding ticket stale. Tickets issued afterwards are stale
// too until [Sequencer.Activate].
func (s *Sequencer) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.current++
}

func (s *Sequencer) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
}

func (s *Sequencer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Current reports whether t is the newest ticket of an active sequencer.
func (t Ticket) Current() bool {
	if t.seq == nil {
		return false
	}
	t.seq.mu.Lock()
	defer t.seq.mu.Unlock()
	return t.seq.active && t.seq.current == t.id
}

// ID returns the ticket's sequence number.
func (t Ticket) ID() uint64 { return t.id }

// Scope ties the requests of one view to a context and a set of named streams.
//
// Closing the scope cancels in-flight requests and turns every outstanding ticket stale,
// so completions that arrive after the view was left are dropped.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	streams map[string]*Sequencer
	closed  bool
}

// NewScope derives a cancellable scope from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel, streams: make(map[string]*Sequencer)}
}

// Context is cancelled when the scope closes.
func (s *Scope) Context() context.Context { return s.ctx }

// Begin issues a ticket on stream, superseding the stream's earlier tickets.
func (s *Scope) Begin(stream string) Ticket {
	s.mu.Lock()
	seq, ok := s.streams[stream]
	if !ok {
		seq = NewSequencer()
		if s.closed {
			seq.Deactivate()
		}
		s.streams[stream] = seq
	}
	s.mu.Unlock()
	return seq.Next()
}

// Close cancels the context and deactivates all streams. It is safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	for _, seq := range s.streams {
		seq.Deactivate()
	}
}

// Closed reports whether [Scope.Close] was called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
