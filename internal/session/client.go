package session

import (
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/netclient"
    "github.com/retroforge/netcode-engine/internal/transport"
    "github.com/retroforge/netcode-engine/internal/wire"
)

// ClientPhase is the client connect/run state.
type ClientPhase int

const (
    ClientInit ClientPhase = iota
    ClientTransportConnecting
    ClientConnected
    ClientHelloSent
    ClientAccepted
    ClientWaitGameStart
    ClientWaitStateUpdate
    ClientRunning
    ClientFailed
)

func (p ClientPhase) String() string {
    switch p {
    case ClientInit:
        return "INIT"
    case ClientTransportConnecting:
        return "TRANSPORT_CONNECTING"
    case ClientConnected:
        return "CONNECTED"
    case ClientHelloSent:
        return "HELLO_SENT"
    case ClientAccepted:
        return "ACCEPTED"
    case ClientWaitGameStart:
        return "WAIT_GAME_START"
    case ClientWaitStateUpdate:
        return "WAIT_STATE_UPDATE"
    case ClientRunning:
        return "RUNNING"
    case ClientFailed:
        return "FAILED"
    default:
        return "UNKNOWN"
    }
}

// ConnectionCode is the explicit result enum returned by Connect instead of
// an error-typed control path: every terminal outcome, success included, is
// a named value the caller switches on.
type ConnectionCode int

const (
    CodeSuccess ConnectionCode = iota
    CodeSocketsFailed
    CodeParseError
    CodeTimeout
    CodeDenied
)

func (c ConnectionCode) String() string {
    switch c {
    case CodeSuccess:
        return "SUCCESS"
    case CodeSocketsFailed:
        return "CONN_SOCKETS_FAILED"
    case CodeParseError:
        return "CONN_PARSE_ERROR"
    case CodeTimeout:
        return "CONN_TIMEOUT"
    case CodeDenied:
        return "CONN_DENIED"
    default:
        return "UNKNOWN"
    }
}

// Client orchestrates the connect FSM and owns the transport session and
// prediction core once connected.
type Client struct {
    mu    sync.Mutex
    phase ClientPhase

    cfg   config.ClientConfig
    log   zerolog.Logger
    logic gamelogic.GameLogic

    sess *transport.Session
    core *netclient.Client

    playerID  uint16
    startedAt uint32
}

// NewClient constructs a connect-FSM orchestrator for one play session.
func NewClient(cfg config.ClientConfig, logic gamelogic.GameLogic, log zerolog.Logger) *Client {
    if cfg.ClientID == "" {
        cfg.ClientID = fmt.Sprintf("client_%d", time.Now().UnixMilli())
    }
    return &Client{cfg: cfg, log: log, logic: logic, phase: ClientInit}
}

// Phase returns the current connect/run phase.
func (c *Client) Phase() ClientPhase {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.phase
}

// Core exposes the prediction core once Connect has succeeded.
func (c *Client) Core() *netclient.Client { return c.core }

func (c *Client) setPhase(p ClientPhase) {
    c.mu.Lock()
    c.phase = p
    c.mu.Unlock()
}

// Connect drives the full connect sequence: dial, send CLIENT_HELLO, wait
// for SERVER_ACCEPT or SERVER_REJECT, then branch on whether the game had
// already started at accept time. A fresh join (GameStarted == false) waits
// for the GAME_START broadcast fired once MinPlayers is reached; a
// reconnect or mid-game join (GameStarted == true) skips straight to
// waiting for the STATE_UPDATE that seeds the prediction core, since
// GAME_START already fired for the rest of the lobby and won't be resent.
func (c *Client) Connect() ConnectionCode {
    c.setPhase(ClientTransportConnecting)
    sess, err := transport.Dial(c.cfg.ServerAddr, c.cfg.ConnectTimeout)
    if err != nil {
        c.log.Error().Err(err).Str("addr", c.cfg.ServerAddr).Msg("dial failed")
        c.setPhase(ClientFailed)
        return CodeSocketsFailed
    }
    c.sess = sess
    c.setPhase(ClientConnected)

    hello, err := wire.EncodeClientHello(wire.ClientHello{ClientID: c.cfg.ClientID})
    if err != nil {
        c.setPhase(ClientFailed)
        return CodeParseError
    }
    if err := c.sess.Send(hello); err != nil {
        c.setPhase(ClientFailed)
        return CodeSocketsFailed
    }
    c.setPhase(ClientHelloSent)

    body, err := c.sess.Recv(c.cfg.ConnectTimeout)
    if err != nil {
        c.setPhase(ClientFailed)
        return CodeTimeout
    }
    tag, err := wire.PeekType(body)
    if err != nil {
        c.setPhase(ClientFailed)
        return CodeParseError
    }
    var gameStarted bool
    switch tag {
    case wire.PacketServerReject:
        c.setPhase(ClientFailed)
        return CodeDenied
    case wire.PacketServerAccept:
        accept, err := wire.DecodeServerAccept(body)
        if err != nil {
            c.setPhase(ClientFailed)
            return CodeParseError
        }
        c.playerID = accept.AssignedPlayerID
        c.core = netclient.New(c.cfg, c.logic, c.playerID, c.log)
        gameStarted = accept.GameStarted
        c.setPhase(ClientAccepted)
    default:
        c.setPhase(ClientFailed)
        return CodeParseError
    }

    if !gameStarted {
        c.setPhase(ClientWaitGameStart)
        body, err = c.sess.Recv(c.cfg.WaitStateTimeout)
        if err != nil {
            c.setPhase(ClientFailed)
            return CodeTimeout
        }
        tag, err = wire.PeekType(body)
        if err != nil {
            c.setPhase(ClientFailed)
            return CodeParseError
        }
        if tag != wire.PacketGameStart {
            c.setPhase(ClientFailed)
            return CodeParseError
        }
        if _, _, err := wire.DecodeGameStart(body); err != nil {
            c.setPhase(ClientFailed)
            return CodeParseError
        }
    }

    c.setPhase(ClientWaitStateUpdate)
    // The tick loop may already be broadcasting INPUT_UPDATE/EVENT_UPDATE
    // packets ahead of the first STATE_UPDATE baseline by the time this
    // read fires, since those go out every tick regardless of who has
    // bootstrapped yet. Skip anything that isn't the baseline instead of
    // failing on the first non-STATE_UPDATE frame.
    deadline := time.Now().Add(c.cfg.WaitStateTimeout)
    var state wire.GameStateBlob
    for {
        remaining := time.Until(deadline)
        if remaining <= 0 {
            c.setPhase(ClientFailed)
            return CodeTimeout
        }
        body, err = c.sess.Recv(remaining)
        if err != nil {
            c.setPhase(ClientFailed)
            return CodeTimeout
        }
        tag, err = wire.PeekType(body)
        if err != nil {
            c.setPhase(ClientFailed)
            return CodeParseError
        }
        if tag != wire.PacketStateUpdate {
            continue
        }
        s, err := wire.DecodeStateUpdate(body)
        if err != nil {
            c.setPhase(ClientFailed)
            return CodeParseError
        }
        state = s
        break
    }
    c.core.Bootstrap(state)
    c.startedAt = state.Frame
    c.setPhase(ClientRunning)
    return CodeSuccess
}

// Session exposes the underlying transport session for the network thread.
func (c *Client) Session() *transport.Session { return c.sess }

// PlayerID returns the ID assigned by the server on accept.
func (c *Client) PlayerID() uint16 { return c.playerID }

// Close releases the transport session.
func (c *Client) Close() error {
    if c.sess == nil {
        return nil
    }
    return c.sess.Close()
}
