// Package eventqueue implements the per-frame event bag: events generated
// during frame f are always applied/delivered on every peer at frame f+1,
// never at the frame they were generated. This matches the reference
// server's scheduling rule and keeps event ordering deterministic across
// server and client regardless of which frame first observed the cause.
package eventqueue

import "sync"

// Queue buffers GameEventBlob payloads keyed by their delivery frame.
type Queue struct {
    mu      sync.Mutex
    pending map[uint32][][]byte
}

// New creates an empty event queue.
func New() *Queue {
    return &Queue{pending: make(map[uint32][][]byte)}
}

// Schedule enqueues payload generated during generatedAtFrame for delivery
// at generatedAtFrame+1.
func (q *Queue) Schedule(generatedAtFrame uint32, payload []byte) {
    q.ScheduleAt(generatedAtFrame+1, payload)
}

// ScheduleAt enqueues payload for delivery directly at deliverAt, for
// callers that already know the exact delivery frame (e.g. a client
// recording a server-confirmed event read straight off the wire) rather
// than the frame that generated it.
func (q *Queue) ScheduleAt(deliverAt uint32, payload []byte) {
    q.mu.Lock()
    defer q.mu.Unlock()
    q.pending[deliverAt] = append(q.pending[deliverAt], append([]byte(nil), payload...))
}

// Drain returns and removes every event scheduled for delivery at frame.
func (q *Queue) Drain(frame uint32) [][]byte {
    q.mu.Lock()
    defer q.mu.Unlock()
    events := q.pending[frame]
    delete(q.pending, frame)
    return events
}

// Peek returns the events scheduled for frame without removing them.
func (q *Queue) Peek(frame uint32) [][]byte {
    q.mu.Lock()
    defer q.mu.Unlock()
    return append([][]byte(nil), q.pending[frame]...)
}

// PruneBefore discards any still-pending events scheduled before frame.
// These would only exist if a frame was skipped entirely (e.g. the server
// never ticked it), which should not happen in steady state, but this
// keeps the map from growing unbounded if it ever does.
func (q *Queue) PruneBefore(frame uint32) {
    q.mu.Lock()
    defer q.mu.Unlock()
    for f := range q.pending {
        if f < frame {
            delete(q.pending, f)
        }
    }
}

// Len reports how many distinct delivery frames currently have pending events.
func (q *Queue) Len() int {
    q.mu.Lock()
    defer q.mu.Unlock()
    return len(q.pending)
}
