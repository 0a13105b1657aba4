// Package netserver implements the authoritative server simulation core:
// per-player input buffers, the tick loop that steps the game logic exactly
// once per frame, full/delta state encoding for the session layer to fan
// out, and the reconnection/telemetry bookkeeping carried over from the
// reference server (see original_source/Client-Server/Server.hpp).
//
// One mutex guards all mutable state. Simulation never runs under the
// lock: Tick copies out the frame's inputs, releases the lock, calls
// GameLogic.SimulateFrame, then re-acquires the lock to store the result
// and build the TickResult the caller broadcasts.
package netserver

import (
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/delta"
    "github.com/retroforge/netcode-engine/internal/eventqueue"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/snapshot"
    "github.com/retroforge/netcode-engine/internal/transport"
    "github.com/retroforge/netcode-engine/internal/wire"
)

// stateTag is the single delta-handler tag this server registers under;
// the demo only ever has one GameStateBlob shape.
const stateTag = "game"

// fullStateInterval is how often (in ticks) a full STATE_UPDATE is sent
// instead of a DELTA_STATE_UPDATE, matching the reference server's
// per-30-tick full broadcast.
const fullStateInterval = 30

// cleanupInterval is how often (in ticks) old frames are pruned from the
// snapshot ring, matching CleanupOldFramesInternal's 60-tick cadence.
const cleanupInterval = 60

// Peer is one connected player's server-side bookkeeping.
type Peer struct {
    PlayerID       uint16
    ClientID       string
    Session        *transport.Session
    LastAckedFrame uint32
    Connected      bool
    DisconnectedAt time.Time

    // NeedsFullState is true until the next STATE_UPDATE sent to this peer
    // has been a full snapshot rather than a delta. Set on every fresh join
    // and reconnect, since a delta against a base frame the peer never saw
    // is useless to it.
    NeedsFullState bool
}

// Server is the authoritative simulation core for one game session.
type Server struct {
    mu sync.Mutex

    cfg    config.ServerConfig
    logic  gamelogic.GameLogic
    log    zerolog.Logger
    deltas *delta.Engine
    events *eventqueue.Queue
    ring   *snapshot.Ring

    peers        map[uint16]*Peer
    nextPlayerID uint16
    currentFrame uint32
    started      bool

    pendingInputs map[uint32]map[uint16]wire.InputBlob
    tickTimes     []time.Duration
}

// New constructs a server core around logic, bound by cfg.
func New(cfg config.ServerConfig, logic gamelogic.GameLogic, log zerolog.Logger) *Server {
    de := delta.New()
    de.Register(stateTag, delta.XORHandler{})
    return &Server{
        cfg:           cfg,
        logic:         logic,
        log:           log,
        deltas:        de,
        events:        eventqueue.New(),
        ring:          snapshot.NewRing(cfg.FramesToKeep),
        peers:         make(map[uint16]*Peer),
        pendingInputs: make(map[uint32]map[uint16]wire.InputBlob),
    }
}

// ErrServerFull is returned by AddPlayer when MaxPlayers is already connected.
var ErrServerFull = fmt.Errorf("netserver: server full")

// ErrInvalidClientID is returned by AddPlayer when the id fails validation.
var ErrInvalidClientID = fmt.Errorf("netserver: invalid client id")

// ErrDuplicateClientID is returned by AddPlayer when the id is already connected.
var ErrDuplicateClientID = fmt.Errorf("netserver: duplicate client id")

// AddPlayer registers a newly-accepted connection as a player, returning its
// assigned player ID. Session ownership (reading/writing frames) belongs to
// the caller; the server core only tracks bookkeeping.
func (s *Server) AddPlayer(clientID string, sess *transport.Session) (uint16, error) {
    if s.cfg.RequireClientID && !wire.IsValidClientID(clientID) {
        return 0, ErrInvalidClientID
    }

    s.mu.Lock()
    defer s.mu.Unlock()

    for _, p := range s.peers {
        if p.ClientID == clientID && p.Connected {
            return 0, ErrDuplicateClientID
        }
    }
    if len(s.peers) >= s.cfg.MaxPlayers {
        return 0, ErrServerFull
    }

    id := s.nextPlayerID
    s.nextPlayerID++
    s.peers[id] = &Peer{PlayerID: id, ClientID: clientID, Session: sess, Connected: true, NeedsFullState: true}
    s.log.Info().Str("client_id", clientID).Uint16("player_id", id).Msg("player added")
    return id, nil
}

// Reconnect restores a previously-disconnected peer's slot to a new
// session, provided the peer has been disconnected for no longer than
// ReconnectionTimeout (a zero timeout imposes no bound). The peer is marked
// connected immediately, under the same mutex Tick takes, so a tick never
// observes a half-updated peer.
func (s *Server) Reconnect(clientID string, sess *transport.Session) (uint16, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    for _, p := range s.peers {
        if p.ClientID == clientID && !p.Connected {
            if s.cfg.ReconnectionTimeout > 0 && time.Since(p.DisconnectedAt) > s.cfg.ReconnectionTimeout {
                return 0, fmt.Errorf("netserver: reconnection window expired for client id %q", clientID)
            }
            p.Session = sess
            p.Connected = true
            p.DisconnectedAt = time.Time{}
            p.NeedsFullState = true
            s.log.Info().Str("client_id", clientID).Uint16("player_id", p.PlayerID).Msg("player reconnected")
            return p.PlayerID, nil
        }
    }
    return 0, fmt.Errorf("netserver: no disconnected peer with client id %q", clientID)
}

// Disconnect marks a peer as disconnected without removing its slot, so a
// later Reconnect can restore it within ReconnectionTimeout.
func (s *Server) Disconnect(playerID uint16) {
    s.mu.Lock()
    defer s.mu.Unlock()
    p, ok := s.peers[playerID]
    if !ok {
        return
    }
    p.Connected = false
    p.DisconnectedAt = time.Now()
    s.log.Info().Uint16("player_id", playerID).Msg("player disconnected")
}

// ExpireStaleReconnections drops peers that have been disconnected longer
// than ReconnectionTimeout, or immediately when reconnection is disabled.
func (s *Server) ExpireStaleReconnections() {
    s.mu.Lock()
    defer s.mu.Unlock()
    for id, p := range s.peers {
        if p.Connected {
            continue
        }
        if !s.cfg.AllowReconnection || time.Since(p.DisconnectedAt) > s.cfg.ReconnectionTimeout {
            delete(s.peers, id)
            s.log.Info().Uint16("player_id", id).Msg("player slot expired")
        }
    }
}

// ConnectedCount returns how many peers currently have an active session.
func (s *Server) ConnectedCount() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for _, p := range s.peers {
        if p.Connected {
            n++
        }
    }
    return n
}

// NeedsFullState reports whether playerID has not yet received a full
// STATE_UPDATE baseline since it last joined or reconnected.
func (s *Server) NeedsFullState(playerID uint16) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    p, ok := s.peers[playerID]
    return ok && p.NeedsFullState
}

// MarkFullStateSent clears playerID's full-state requirement after the
// caller has successfully sent it one.
func (s *Server) MarkFullStateSent(playerID uint16) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if p, ok := s.peers[playerID]; ok {
        p.NeedsFullState = false
    }
}

// Start initializes the game logic for the current peer count and sets the
// starting frame to 0. Must be called once before the first Tick.
func (s *Server) Start() wire.GameStateBlob {
    s.mu.Lock()
    defer s.mu.Unlock()
    state := s.logic.Init(len(s.peers))
    s.ring.WithSnapshot(0, func(snap *snapshot.Snapshot) {
        snap.State = append([]byte(nil), state.Data...)
    })
    s.started = true
    s.currentFrame = 0
    return state
}

// OnClientInputReceived records playerID's input for frame, to be consumed
// by the next Tick that simulates it.
func (s *Server) OnClientInputReceived(playerID uint16, frame uint32, in wire.InputBlob) {
    s.mu.Lock()
    defer s.mu.Unlock()
    m, ok := s.pendingInputs[frame]
    if !ok {
        m = make(map[uint16]wire.InputBlob)
        s.pendingInputs[frame] = m
    }
    m[playerID] = in
    if p, ok := s.peers[playerID]; ok && frame > p.LastAckedFrame {
        p.LastAckedFrame = frame
    }
}

// CurrentFrame returns the next frame number to be simulated.
func (s *Server) CurrentFrame() uint32 {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.currentFrame
}

// TickResult summarizes one Tick call for the caller to broadcast.
type TickResult struct {
    Frame           uint32
    State           wire.GameStateBlob
    ConfirmedInputs []wire.PlayerInput
    DueEvents       [][]byte
    IsFullState     bool
    Delta           []byte
    Duration        time.Duration
}

// Tick simulates exactly one frame and returns the packets the caller
// (session orchestrator) should broadcast to every connected peer.
func (s *Server) Tick() (TickResult, error) {
    start := time.Now()

    s.mu.Lock()
    frame := s.currentFrame
    inputsForFrame := s.pendingInputs[frame]
    baseState, ok := s.ring.Get(frame)
    if !ok {
        s.mu.Unlock()
        return TickResult{}, fmt.Errorf("netserver: missing base snapshot for frame %d", frame)
    }
    inputsCopy := make(map[uint16]wire.InputBlob, len(inputsForFrame))
    for k, v := range inputsForFrame {
        inputsCopy[k] = v
    }
    s.mu.Unlock()

    dueRaw := s.events.Drain(frame)
    dueEventsIn := make([]wire.GameEventBlob, 0, len(dueRaw))
    for _, d := range dueRaw {
        dueEventsIn = append(dueEventsIn, wire.GameEventBlob{Frame: frame, Data: d})
    }

    nextState, generated := s.logic.SimulateFrame(wire.GameStateBlob{Frame: frame, Data: baseState.State}, dueEventsIn, inputsCopy)

    s.mu.Lock()
    defer s.mu.Unlock()

    // Events generated while simulating frame apply on every peer at
    // frame+1, so they're scheduled here for next tick's SimulateFrame call
    // and broadcast below tagged with that same delivery frame.
    for _, ev := range generated {
        s.events.Schedule(frame, ev.Data)
    }
    dueEvents := make([][]byte, 0, len(generated))
    for _, ev := range generated {
        dueEvents = append(dueEvents, ev.Data)
    }

    s.ring.WithSnapshot(frame+1, func(snap *snapshot.Snapshot) {
        snap.State = append([]byte(nil), nextState.Data...)
        for pid, in := range inputsCopy {
            snap.Inputs[pid] = in
        }
    })

    confirmed := make([]wire.PlayerInput, 0, len(inputsCopy))
    for pid, in := range inputsCopy {
        confirmed = append(confirmed, wire.PlayerInput{PlayerID: pid, Input: in})
    }

    result := TickResult{Frame: frame + 1, State: nextState, ConfirmedInputs: confirmed, DueEvents: dueEvents}

    isFull := (frame+1)%fullStateInterval == 0
    result.IsFullState = isFull
    if !isFull {
        if d, err := s.deltas.Encode(stateTag, baseState.State, nextState.Data); err == nil {
            result.Delta = d
        } else {
            result.IsFullState = true
        }
    }

    delete(s.pendingInputs, frame)
    s.currentFrame = frame + 1

    elapsed := time.Since(start)
    result.Duration = elapsed
    s.recordTickTimeLocked(elapsed)

    if s.currentFrame%cleanupInterval == 0 {
        cutoff := uint32(0)
        if s.currentFrame > uint32(s.cfg.FramesToKeep) {
            cutoff = s.currentFrame - uint32(s.cfg.FramesToKeep)
        }
        s.ring.PruneBefore(cutoff)
        s.events.PruneBefore(cutoff)
    }

    return result, nil
}

func (s *Server) recordTickTimeLocked(d time.Duration) {
    const window = 30
    s.tickTimes = append(s.tickTimes, d)
    if len(s.tickTimes) > window {
        s.tickTimes = s.tickTimes[len(s.tickTimes)-window:]
    }
}

// TickStats reports the mean and most recent tick durations over the
// trailing 30-tick window, mirroring the reference server's telemetry.
func (s *Server) TickStats() (mean, last time.Duration) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if len(s.tickTimes) == 0 {
        return 0, 0
    }
    var sum time.Duration
    for _, d := range s.tickTimes {
        sum += d
    }
    return sum / time.Duration(len(s.tickTimes)), s.tickTimes[len(s.tickTimes)-1]
}

// Peers returns a snapshot copy of the current peer table.
func (s *Server) Peers() []Peer {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]Peer, 0, len(s.peers))
    for _, p := range s.peers {
        out = append(out, *p)
    }
    return out
}
