package progress

import "sync"

// EventKind identifies a lifecycle event.
type EventKind string

const (
	EventStart    EventKind = "start"
	EventProgress EventKind = "progress"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// Event is a single recorded lifecycle event.
type Event struct {
	Kind    EventKind
	Name    string
	Written int64
	Total   int64
	Message string
}

// Recorder keeps every event in memory. It is used by tests and by callers
// that want to inspect what happened after a download finished.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnStart(name string, size int64) {
	r.add(Event{Kind: EventStart, Name: name, Total: size})
}

func (r *Recorder) OnProgress(name string, written, total int64) {
	r.add(Event{Kind: EventProgress, Name: name, Written: written, Total: total})
}

func (r *Recorder) OnComplete(name string) {
	r.add(Event{Kind: EventComplete, Name: name})
}

func (r *Recorder) OnError(name, message string) {
	r.add(Event{Kind: EventError, Name: name, Message: message})
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// EventsFor returns the events of a single file, in order.
func (r *Recorder) EventsFor(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event

	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}

	return out
}

// Count returns how many events of kind were recorded for name.
func (r *Recorder) Count(name string, kind EventKind) int {
	n := 0

	for _, e := range r.EventsFor(name) {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}
