// Package delta implements the per-type handler registry used to turn a
// full GameStateBlob into a smaller wire payload and back. Check runs
// server-side to decide whether a delta is worth sending at all; Apply runs
// client-side to reconstruct full state from a base plus a delta; Compare
// is used for desync detection between a locally predicted state and the
// server's authoritative one.
package delta

import "bytes"

// Handler binds the three operations a delta-aware state type needs.
// Implementations are expected to be pure functions over byte slices so the
// engine never needs to know the concrete game state shape.
type Handler interface {
    // Check reports whether base and next differ meaningfully enough to be
    // worth sending at all (a handler may suppress hash-noise deltas).
    Check(base, next []byte) bool
    // Apply reconstructs the full next-state bytes given a base and a delta
    // payload produced by Encode.
    Apply(base, delta []byte) ([]byte, error)
    // Encode produces the delta payload to send for (base, next).
    Encode(base, next []byte) ([]byte, error)
    // Compare reports whether two full states are equivalent, used to
    // detect desyncs between predicted and authoritative state.
    Compare(a, b []byte) bool
}

// Engine dispatches to a registered Handler by state-type tag. A server or
// client that only ever has one kind of GameStateBlob can register a single
// handler under any tag and ignore the tag entirely.
type Engine struct {
    handlers map[string]Handler
}

// New creates an empty delta engine.
func New() *Engine {
    return &Engine{handlers: make(map[string]Handler)}
}

// Register installs h under tag, replacing any previous handler for that tag.
func (e *Engine) Register(tag string, h Handler) {
    e.handlers[tag] = h
}

func (e *Engine) handler(tag string) (Handler, bool) {
    h, ok := e.handlers[tag]
    return h, ok
}

// Check runs the registered handler's Check, defaulting to "always send"
// when no handler is registered for tag.
func (e *Engine) Check(tag string, base, next []byte) bool {
    if h, ok := e.handler(tag); ok {
        return h.Check(base, next)
    }
    return true
}

// Encode runs the registered handler's Encode. ErrNoHandler is returned if
// tag isn't registered.
func (e *Engine) Encode(tag string, base, next []byte) ([]byte, error) {
    h, ok := e.handler(tag)
    if !ok {
        return nil, ErrNoHandler
    }
    return h.Encode(base, next)
}

// Apply runs the registered handler's Apply.
func (e *Engine) Apply(tag string, base, delta []byte) ([]byte, error) {
    h, ok := e.handler(tag)
    if !ok {
        return nil, ErrNoHandler
    }
    return h.Apply(base, delta)
}

// Compare runs the registered handler's Compare, falling back to a byte
// comparison when no handler is registered.
func (e *Engine) Compare(tag string, a, b []byte) bool {
    if h, ok := e.handler(tag); ok {
        return h.Compare(a, b)
    }
    return bytes.Equal(a, b)
}

// ErrNoHandler is returned from Engine.Encode/Apply when tag has no
// registered handler.
var ErrNoHandler = errNoHandler{}

type errNoHandler struct{}

func (errNoHandler) Error() string { return "delta: no handler registered for tag" }

// XORHandler is a minimal reference Handler: its delta is the byte-wise XOR
// of base and next (padded to the longer length), its Check reports true
// whenever the states differ at all, and Compare is a plain byte comparison.
// Suitable for fixed-size GameStateBlob payloads such as the demo
// gamelogic's packed entity table.
type XORHandler struct{}

func (XORHandler) Check(base, next []byte) bool {
    return !bytes.Equal(base, next)
}

func (XORHandler) Encode(base, next []byte) ([]byte, error) {
    n := len(next)
    if len(base) > n {
        n = len(base)
    }
    out := make([]byte, n)
    for i := 0; i < n; i++ {
        var b, x byte
        if i < len(base) {
            b = base[i]
        }
        if i < len(next) {
            x = next[i]
        }
        out[i] = b ^ x
    }
    return out, nil
}

func (XORHandler) Apply(base, delta []byte) ([]byte, error) {
    n := len(delta)
    out := make([]byte, n)
    for i := 0; i < n; i++ {
        var b byte
        if i < len(base) {
            b = base[i]
        }
        out[i] = b ^ delta[i]
    }
    return out, nil
}

func (XORHandler) Compare(a, b []byte) bool {
    return bytes.Equal(a, b)
}
