package events

import "sync"

// Recorder is an Emitter that retains the most recent events in memory. The
// HTTP service uses it to back the event feed endpoint.
type Recorder struct {
	mu    sync.RWMutex
	buf   []Event
	limit int
}

// NewRecorder retains up to limit events, discarding the oldest first. A
// non-positive limit falls back to 256.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 256
	}
	return &Recorder{limit: limit}
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if evt == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, evt)
	if len(r.buf) > r.limit {
		r.buf = r.buf[len(r.buf)-r.limit:]
	}
}

// Recent returns the retained events, oldest first.
func (r *Recorder) Recent() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.buf...)
}
