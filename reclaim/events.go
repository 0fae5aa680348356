package reclaim

import (
	"sync"

	"github.com/colorfulnotion/reclaim/log"
	"github.com/colorfulnotion/reclaim/types"
)

// Event is a notification emitted after a state change or an accepted proof.
type Event interface {
	EventName() string
}

type ContractInitialized struct {
	Owner types.AccountID `json:"owner"`
}

type EpochAdded struct {
	EpochID types.EpochID `json:"epoch_id"`
}

type ProofVerified struct {
	EpochID types.EpochID `json:"epoch_id"`
}

func (ContractInitialized) EventName() string { return "ContractInitialized" }
func (EpochAdded) EventName() string { return "EpochAdded" }
func (ProofVerified) EventName() string { return "ProofVerified" }

// EventSink receives events in emission order.
type EventSink interface {
	Emit(e Event)
}

// LogSink writes one info line per event.
type LogSink struct {
	Module string
}

func (s LogSink) Emit(e Event) {
	module := s.Module
	if module == "" {
		module = log.ReclaimMonitoring
	}
	log.Info(module, e.EventName(), "event", e)
}

// RecordingSink keeps every event in memory.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of the events seen so far.
func (s *RecordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Fanout emits to every sink in order.
type Fanout []EventSink

func (f Fanout) Emit(e Event) {
	for _, s := range f {
		s.Emit(e)
	}
}
