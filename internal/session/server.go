// Package session implements the two explicit-enum state machines that sit
// above the simulation cores: the server's lobby/game FSM (WAITING →
// RUNNING) and the client's connect FSM (INIT → ... → RUNNING). Neither
// uses exceptions for control flow — every terminal outcome is a named
// enum value, per the reference design's "replace exceptions with explicit
// result enums" note.
package session

import (
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/netserver"
    "github.com/retroforge/netcode-engine/internal/transport"
    "github.com/retroforge/netcode-engine/internal/wire"
)

// ServerPhase is the server lobby/game state.
type ServerPhase int

const (
    ServerWaiting ServerPhase = iota
    ServerRunning
    ServerStopped
)

func (p ServerPhase) String() string {
    switch p {
    case ServerWaiting:
        return "WAITING"
    case ServerRunning:
        return "RUNNING"
    case ServerStopped:
        return "STOPPED"
    default:
        return "UNKNOWN"
    }
}

// Server orchestrates the lobby FSM, accept loop, and tick loop around a
// netserver.Server core.
type Server struct {
    mu    sync.Mutex
    phase ServerPhase

    cfg config.ServerConfig
    ln  *transport.Listener
    sv  *netserver.Server
    log zerolog.Logger

    sessions map[uint16]*transport.Session
    quit     chan struct{}
}

// NewServer binds a lobby orchestrator to an already-constructed simulation
// core and a config describing its capacity/join rules.
func NewServer(cfg config.ServerConfig, logic gamelogic.GameLogic, log zerolog.Logger) *Server {
    return &Server{
        phase:    ServerWaiting,
        cfg:      cfg,
        sv:       netserver.New(cfg, logic, log),
        log:      log,
        sessions: make(map[uint16]*transport.Session),
        quit:     make(chan struct{}),
    }
}

// Phase returns the current lobby/game phase.
func (s *Server) Phase() ServerPhase {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.phase
}

// Core exposes the underlying simulation core for the tick loop driver.
func (s *Server) Core() *netserver.Server { return s.sv }

// Listen opens the transport listener on cfg.Port.
func (s *Server) Listen() error {
    ln, err := transport.Listen(fmt.Sprintf(":%d", s.cfg.Port))
    if err != nil {
        return err
    }
	s.ln = ln
	return nil
}

// Addr returns the bound listener address (useful in tests with port 0).
func (s *Server) Addr() string {
    if s.ln == nil {
        return ""
    }
    return s.ln.Addr().String()
}

// AcceptLoop accepts connections until Stop is called, performing the
// CLIENT_HELLO handshake for each and wiring accepted players into the
// simulation core. Intended to run in its own goroutine.
func (s *Server) AcceptLoop() {
    for {
        select {
        case <-s.quit:
            return
        default:
        }
        sess, err := s.ln.Accept()
        if err != nil {
            select {
            case <-s.quit:
                return
            default:
                s.log.Error().Err(err).Msg("accept failed")
                continue
            }
        }
        go s.handleHandshake(sess)
    }
}

func (s *Server) handleHandshake(sess *transport.Session) {
    body, err := sess.Recv(10 * time.Second)
    if err != nil {
        s.log.Warn().Err(err).Str("remote", sess.RemoteAddr).Msg("handshake read failed")
        sess.Close()
        return
    }
    hello, err := wire.DecodeClientHello(body)
    if err != nil {
        s.log.Warn().Err(err).Msg("malformed CLIENT_HELLO")
        sess.Close()
        return
    }

    s.mu.Lock()
    inGame := s.phase == ServerRunning
    midGameOK := s.cfg.AllowMidGameJoin
    s.mu.Unlock()

    if inGame && !midGameOK {
        pid, rerr := s.sv.Reconnect(hello.ClientID, sess)
        if rerr != nil {
            s.reject(sess, wire.RejectGameInProgress)
            return
        }
        // A reconnect always lands after the game has started, so the
        // client must not wait for a GAME_START that already happened.
        s.registerSession(pid, sess, true)
        return
    }

    pid, err := s.sv.AddPlayer(hello.ClientID, sess)
    if err != nil {
        switch err {
        case netserver.ErrServerFull:
            s.reject(sess, wire.RejectServerFull)
        case netserver.ErrInvalidClientID:
            s.reject(sess, wire.RejectInvalidClientID)
        case netserver.ErrDuplicateClientID:
            s.reject(sess, wire.RejectDuplicateClientID)
        default:
            s.reject(sess, wire.RejectServerFull)
        }
        return
    }
    s.registerSession(pid, sess, inGame)

    s.mu.Lock()
    shouldStart := s.phase == ServerWaiting && s.sv.ConnectedCount() >= s.cfg.MinPlayers
    if shouldStart {
        s.phase = ServerRunning
    }
    s.mu.Unlock()
}

// registerSession sends SERVER_ACCEPT, adds sess to the broadcast set, and
// starts the per-session receive loop that feeds this peer's INPUT packets
// into the simulation core. gameStarted tells the client whether to expect
// a GAME_START broadcast before its first STATE_UPDATE.
func (s *Server) registerSession(pid uint16, sess *transport.Session, gameStarted bool) {
    s.acceptPlayer(sess, pid, gameStarted)
    s.mu.Lock()
    s.sessions[pid] = sess
    s.mu.Unlock()
    go s.readLoop(pid, sess)
}

func (s *Server) acceptPlayer(sess *transport.Session, pid uint16, gameStarted bool) {
    accept := wire.EncodeServerAccept(wire.ServerAccept{
        AssignedPlayerID: pid,
        CurrentFrame:     s.sv.CurrentFrame(),
        TickRate:         uint16(s.cfg.TickRate),
        GameStarted:      gameStarted,
    })
    if err := sess.Send(accept); err != nil {
        s.log.Warn().Err(err).Uint16("player_id", pid).Msg("failed to send SERVER_ACCEPT")
    }
}

// readLoop blocks on sess.Recv for the lifetime of a peer's connection,
// dispatching every frame it reads into the simulation core. An INPUT
// packet claiming a playerId other than the one this session was accepted
// under is dropped rather than trusted, since the session, not the packet
// body, is the actual authority on identity.
func (s *Server) readLoop(pid uint16, sess *transport.Session) {
    for {
        body, err := sess.Recv(0)
        if err != nil {
            s.log.Info().Err(err).Uint16("player_id", pid).Msg("session closed")
            s.sv.Disconnect(pid)
            s.mu.Lock()
            if s.sessions[pid] == sess {
                delete(s.sessions, pid)
            }
            s.mu.Unlock()
            return
        }
        tag, err := wire.PeekType(body)
        if err != nil {
            continue
        }
        switch tag {
        case wire.PacketInput:
            in, err := wire.DecodeInput(body)
            if err != nil {
                s.log.Warn().Err(err).Uint16("player_id", pid).Msg("malformed INPUT packet")
                continue
            }
            if in.PlayerID != pid {
                s.log.Warn().Uint16("player_id", pid).Uint16("claimed_player_id", in.PlayerID).
                    Msg("INPUT playerId does not match session, dropping")
                continue
            }
            s.sv.OnClientInputReceived(pid, in.Frame, in.Input)
        default:
            s.log.Warn().Uint16("player_id", pid).Str("tag", tag.String()).Msg("unexpected packet from client")
        }
    }
}

func (s *Server) reject(sess *transport.Session, reason wire.RejectReason) {
    _ = sess.Send(wire.EncodeServerReject(reason))
    sess.Close()
}

// UpdateLiveConfig replaces the lobby-admission fields (MinPlayers,
// MaxPlayers, AllowMidGameJoin) from a freshly loaded config, leaving
// Port/TickRate/MaxFrames untouched since those are fixed once Listen and
// Core have been constructed from them. MaxPlayers is stored only in this
// orchestrator's copy: the core's AddPlayer keeps checking the MaxPlayers
// it was constructed with, so a reloaded MaxPlayers does not change
// admission.
func (s *Server) UpdateLiveConfig(cfg config.ServerConfig) {
    s.mu.Lock()
    s.cfg.MinPlayers = cfg.MinPlayers
    s.cfg.MaxPlayers = cfg.MaxPlayers
    s.cfg.AllowMidGameJoin = cfg.AllowMidGameJoin
    s.mu.Unlock()
}

// Stop halts the accept loop and marks the session stopped.
func (s *Server) Stop() {
    s.mu.Lock()
    s.phase = ServerStopped
    s.mu.Unlock()
    close(s.quit)
    if s.ln != nil {
        s.ln.Close()
    }
}

// BroadcastGameStart sends GAME_START to every currently connected session.
// Must be called exactly once, right after Core().Start(), before the
// first Tick/Broadcast — a fresh-joining client waits for this packet
// before waiting for its first STATE_UPDATE.
func (s *Server) BroadcastGameStart() {
    s.mu.Lock()
    startFrame := s.sv.CurrentFrame()
    playerCount := uint16(s.sv.ConnectedCount())
    sessions := make([]*transport.Session, 0, len(s.sessions))
    for _, sess := range s.sessions {
        sessions = append(sessions, sess)
    }
    s.mu.Unlock()

    buf := wire.EncodeGameStart(startFrame, playerCount)
    for _, sess := range sessions {
        if err := sess.Send(buf); err != nil {
            s.log.Warn().Err(err).Str("remote", sess.RemoteAddr).Msg("failed to send GAME_START")
        }
    }
}

// Broadcast fans a TickResult out to every connected session: the
// confirmed-input update, a full or delta state update, and any events due
// this frame. Full-vs-delta is decided per peer: a peer that hasn't yet
// received a full baseline (fresh join or reconnect) always gets a full
// STATE_UPDATE regardless of the tick's own periodic full/delta schedule.
func (s *Server) Broadcast(result netserver.TickResult) {
    type target struct {
        pid  uint16
        sess *transport.Session
    }
    s.mu.Lock()
    targets := make([]target, 0, len(s.sessions))
    for pid, sess := range s.sessions {
        targets = append(targets, target{pid, sess})
    }
    s.mu.Unlock()

    inputBuf := wire.EncodeInputUpdate(result.Frame, result.ConfirmedInputs)

    var fullBuf []byte
    encodeFull := func() []byte {
        if fullBuf != nil {
            return fullBuf
        }
        buf, err := wire.EncodeStateUpdate(result.State)
        if err != nil {
            s.log.Error().Err(err).Msg("failed to encode full state update")
            return nil
        }
        fullBuf = buf
        return fullBuf
    }

    var deltaBuf []byte
    if !result.IsFullState {
        buf, err := wire.EncodeDeltaStateUpdate(wire.DeltaStateBlob{
            Frame:     result.Frame,
            BaseFrame: result.Frame - 1,
            Data:      result.Delta,
        })
        if err != nil {
            s.log.Error().Err(err).Msg("failed to encode delta state update")
        } else {
            deltaBuf = buf
        }
    }

    eventBufs := make([][]byte, 0, len(result.DueEvents))
    for _, ev := range result.DueEvents {
        buf, err := wire.EncodeEventUpdate(wire.GameEventBlob{Frame: result.Frame, Data: ev})
        if err != nil {
            continue
        }
        eventBufs = append(eventBufs, buf)
    }

    for _, t := range targets {
        if err := t.sess.Send(inputBuf); err != nil {
            s.log.Warn().Err(err).Str("remote", t.sess.RemoteAddr).Msg("failed to send INPUT_UPDATE")
            continue
        }

        needFull := result.IsFullState || s.sv.NeedsFullState(t.pid)
        stateBuf := deltaBuf
        if needFull {
            stateBuf = encodeFull()
        }
        if stateBuf != nil {
            if err := t.sess.Send(stateBuf); err != nil {
                s.log.Warn().Err(err).Str("remote", t.sess.RemoteAddr).Msg("failed to send state update")
                continue
            }
            if needFull {
                s.sv.MarkFullStateSent(t.pid)
            }
        }

        for _, eb := range eventBufs {
            if err := t.sess.Send(eb); err != nil {
                s.log.Warn().Err(err).Str("remote", t.sess.RemoteAddr).Msg("failed to send EVENT_UPDATE")
                break
            }
        }
    }
}
