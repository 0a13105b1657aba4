// Package transport implements a reliable-ordered message session over TCP:
// a length-prefixed framing on top of net.Conn, a Listener that accepts
// connections and hands back sessions, and a Dial helper for clients.
package transport

import (
    "bufio"
    "encoding/binary"
    "errors"
    "fmt"
    "net"
    "sync"
    "time"
)

// ErrClosed is returned from Send/Recv once the session has been closed.
var ErrClosed = errors.New("transport: session closed")

// MaxFrameBytes bounds a single message to guard against a malformed
// length prefix forcing an unbounded allocation.
const MaxFrameBytes = 64 * 1024

// Session wraps one net.Conn with length-prefixed framing; each Recv call
// takes its own optional read deadline.
type Session struct {
    conn net.Conn
    r    *bufio.Reader

    mu     sync.Mutex
    closed bool

    RemoteAddr string
}

func newSession(conn net.Conn) *Session {
    return &Session{conn: conn, r: bufio.NewReader(conn), RemoteAddr: conn.RemoteAddr().String()}
}

// Send writes one frame: a 4-byte big-endian length prefix followed by the
// payload. Safe to call concurrently with Recv, but not with another Send.
func (s *Session) Send(payload []byte) error {
    s.mu.Lock()
    if s.closed {
        s.mu.Unlock()
        return ErrClosed
    }
    s.mu.Unlock()

    if len(payload) > MaxFrameBytes {
        return fmt.Errorf("transport: frame too large (%d > %d)", len(payload), MaxFrameBytes)
    }
    var hdr [4]byte
    binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
    if _, err := s.conn.Write(hdr[:]); err != nil {
        return fmt.Errorf("transport: write header: %w", err)
    }
    if _, err := s.conn.Write(payload); err != nil {
        return fmt.Errorf("transport: write payload: %w", err)
    }
    return nil
}

// Recv blocks until one frame arrives, the deadline elapses, or the session
// closes. A zero deadline disables the read timeout.
func (s *Session) Recv(deadline time.Duration) ([]byte, error) {
    s.mu.Lock()
    if s.closed {
        s.mu.Unlock()
        return nil, ErrClosed
    }
    s.mu.Unlock()

    if deadline > 0 {
        _ = s.conn.SetReadDeadline(time.Now().Add(deadline))
    } else {
        _ = s.conn.SetReadDeadline(time.Time{})
    }

    var hdr [4]byte
    if _, err := readFull(s.r, hdr[:]); err != nil {
        return nil, err
    }
    n := binary.BigEndian.Uint32(hdr[:])
    if n > MaxFrameBytes {
        return nil, fmt.Errorf("transport: incoming frame too large (%d)", n)
    }
    payload := make([]byte, n)
    if _, err := readFull(s.r, payload); err != nil {
        return nil, err
    }
    return payload, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
    total := 0
    for total < len(buf) {
        n, err := r.Read(buf[total:])
        total += n
        if err != nil {
            return total, err
        }
    }
    return total, nil
}

// Close shuts down the underlying connection. Safe to call multiple times.
func (s *Session) Close() error {
    s.mu.Lock()
    if s.closed {
        s.mu.Unlock()
        return nil
    }
    s.closed = true
    s.mu.Unlock()
    return s.conn.Close()
}

// Listener accepts incoming TCP connections and wraps each as a Session.
type Listener struct {
    ln net.Listener
}

// Listen opens a TCP listener on addr (e.g. ":7777").
func Listen(addr string) (*Listener, error) {
    ln, err := net.Listen("tcp", addr)
    if err != nil {
        return nil, fmt.Errorf("transport: listen: %w", err)
    }
    return &Listener{ln: ln}, nil
}

// Accept blocks for the next incoming connection.
func (l *Listener) Accept() (*Session, error) {
    conn, err := l.ln.Accept()
    if err != nil {
        return nil, fmt.Errorf("transport: accept: %w", err)
    }
    return newSession(conn), nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Dial connects to a remote server, bounded by timeout.
func Dial(addr string, timeout time.Duration) (*Session, error) {
    conn, err := net.DialTimeout("tcp", addr, timeout)
    if err != nil {
        return nil, fmt.Errorf("transport: dial: %w", err)
    }
    return newSession(conn), nil
}
