// Package netclient implements the client-side prediction core: local
// input submission, speculative simulation ahead of the server's confirmed
// frame, misprediction detection against server input/state updates, and
// resimulation (rollback) from the point of divergence back up to the
// locally-predicted frame.
//
// Mirrors the reference client (see
// original_source/netcode/client_netcode.hpp): PredictFrame copies its
// inputs out, simulates outside the lock, then stores the result back
// under the lock, exactly like the server core.
package netclient

import (
    "sync"

    "github.com/rs/zerolog"

    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/delta"
    "github.com/retroforge/netcode-engine/internal/eventqueue"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/snapshot"
    "github.com/retroforge/netcode-engine/internal/wire"
)

const stateTag = "game"

// Client is the client-side prediction core for one connected player.
type Client struct {
    mu sync.Mutex

    cfg   config.ClientConfig
    logic gamelogic.GameLogic
    log   zerolog.Logger

    ring   *snapshot.Ring
    deltas *delta.Engine
    events *eventqueue.Queue

    localPlayerID    uint16
    confirmedFrame   uint32 // last frame the server has fully confirmed
    predictedFrame   uint32 // last frame this client has locally simulated
    inputDelayFrames uint32 // how far ahead of predictedFrame local input is submitted

    mispredictions uint64
    resyncs        uint64
}

// New constructs a client prediction core bound by cfg, local to playerID.
func New(cfg config.ClientConfig, logic gamelogic.GameLogic, playerID uint16, log zerolog.Logger) *Client {
    de := delta.New()
    de.Register(stateTag, delta.XORHandler{})
    return &Client{
        cfg:              cfg,
        logic:            logic,
        log:              log,
        ring:             snapshot.NewRing(cfg.MaxRollbackFrames + 1),
        deltas:           de,
        events:           eventqueue.New(),
        localPlayerID:    playerID,
        inputDelayFrames: 1,
    }
}

// SetInputDelayFrames updates how many frames ahead of predictedFrame local
// input is submitted for, driven by the running RTT estimate. Floored at 1:
// submitting for the currently-predicted frame itself would already be in
// the past by the time the packet reaches the server.
func (c *Client) SetInputDelayFrames(n int) {
    if n < 1 {
        n = 1
    }
    c.mu.Lock()
    c.inputDelayFrames = uint32(n)
    c.mu.Unlock()
}

// NextSubmitFrame returns the frame local input should be submitted for:
// the currently-predicted frame plus the input-delay lookahead.
func (c *Client) NextSubmitFrame() uint32 {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.predictedFrame + c.inputDelayFrames
}

// Bootstrap seeds frame state.Frame with the server's state, as delivered by
// GAME_START/STATE_UPDATE before the client starts predicting.
func (c *Client) Bootstrap(state wire.GameStateBlob) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.ring.WithSnapshot(state.Frame, func(s *snapshot.Snapshot) {
        s.State = append([]byte(nil), state.Data...)
    })
    c.confirmedFrame = state.Frame
    c.predictedFrame = state.Frame
}

// SubmitLocalInput records the local player's input for frame, to be used
// the next time that frame is (re)predicted. Returns the encoded INPUT
// packet for the caller to send over the transport.
func (c *Client) SubmitLocalInput(frame uint32, in wire.InputBlob) []byte {
    c.mu.Lock()
    c.ring.WithSnapshot(frame, func(s *snapshot.Snapshot) {
        s.Inputs[c.localPlayerID] = in
    })
    c.mu.Unlock()
    return wire.EncodeInput(wire.InputEntry{PlayerID: c.localPlayerID, Frame: frame, Input: in})
}

// PredictFrame simulates exactly one frame forward from frame to frame+1
// using whatever inputs are currently recorded for frame (local input plus
// any remote input already received), storing the result in the ring.
func (c *Client) PredictFrame(frame uint32) error {
    c.mu.Lock()
    base, ok := c.ring.Get(frame)
    if !ok {
        c.mu.Unlock()
        return errMissingFrame(frame)
    }
    inputs := make(map[uint16]wire.InputBlob, len(base.Inputs))
    for k, v := range base.Inputs {
        inputs[k] = v
    }
    c.mu.Unlock()

    dueRaw := c.events.Drain(frame)
    dueEvents := make([]wire.GameEventBlob, 0, len(dueRaw))
    for _, d := range dueRaw {
        dueEvents = append(dueEvents, wire.GameEventBlob{Frame: frame, Data: d})
    }

    next, generated := c.logic.SimulateFrame(wire.GameStateBlob{Frame: frame, Data: base.State}, dueEvents, inputs)

    c.mu.Lock()
    defer c.mu.Unlock()
    for _, ev := range generated {
        c.events.Schedule(frame, ev.Data)
    }
    c.ring.WithSnapshot(frame+1, func(s *snapshot.Snapshot) {
        s.State = append([]byte(nil), next.Data...)
    })
    if frame+1 > c.predictedFrame {
        c.predictedFrame = frame + 1
    }
    return nil
}

// PredictToFrame repeatedly calls PredictFrame until predictedFrame reaches
// target, used both for normal forward ticking and for fast-forwarding
// after a resimulation.
func (c *Client) PredictToFrame(target uint32) error {
    for {
        c.mu.Lock()
        cur := c.predictedFrame
        c.mu.Unlock()
        if cur >= target {
            return nil
        }
        if err := c.PredictFrame(cur); err != nil {
            return err
        }
    }
}

// OnServerInputUpdate applies the server's confirmed inputs for frame. If
// any confirmed input differs from what this client had locally predicted
// for a remote player, every frame from here through predictedFrame is
// resimulated (a misprediction).
func (c *Client) OnServerInputUpdate(frame uint32, confirmed []wire.PlayerInput) error {
    c.mu.Lock()
    mispredicted := false
    c.ring.WithSnapshot(frame, func(s *snapshot.Snapshot) {
        for _, pi := range confirmed {
            // A player absent from the snapshot was implicitly predicted as
            // idle (the zero InputBlob) during simulation, so compare
            // against that default rather than skipping the check.
            prior := s.Inputs[pi.PlayerID]
            if prior != pi.Input {
                mispredicted = true
            }
            s.Inputs[pi.PlayerID] = pi.Input
        }
    })
    if frame > c.confirmedFrame {
        c.confirmedFrame = frame
    }
    target := c.predictedFrame
    c.mu.Unlock()

    if !mispredicted {
        return nil
    }
    c.mu.Lock()
    c.mispredictions++
    c.predictedFrame = frame
    c.mu.Unlock()

    c.log.Warn().Uint32("frame", frame).Msg("misprediction detected, resimulating")
    return c.PredictToFrame(target)
}

// OnServerEventUpdate records a server-confirmed event for local delivery at
// its wire-specified frame, so the next PredictFrame call reaching that
// frame sees the same event the server applied when it reached the same
// frame.
func (c *Client) OnServerEventUpdate(ev wire.GameEventBlob) {
    c.events.ScheduleAt(ev.Frame, ev.Data)
}

// OnServerStateUpdate compares the server's authoritative state for frame
// against this client's locally predicted state. On a mismatch (desync),
// the client adopts the authoritative state wholesale and fast-forwards
// back to its previously predicted frame, matching the reference client's
// full-state fallback (no local patching attempted).
func (c *Client) OnServerStateUpdate(state wire.GameStateBlob) error {
    c.mu.Lock()
    predicted, havePredicted := c.ring.Get(state.Frame)
    target := c.predictedFrame
    c.mu.Unlock()

    inSync := havePredicted && c.logic.CompareStates(
        wire.GameStateBlob{Frame: state.Frame, Data: predicted.State},
        state,
    )
    if inSync {
        if state.Frame > c.confirmedFrame {
            c.mu.Lock()
            c.confirmedFrame = state.Frame
            c.mu.Unlock()
        }
        return nil
    }

    c.mu.Lock()
    c.resyncs++
    c.ring.WithSnapshot(state.Frame, func(s *snapshot.Snapshot) {
        s.State = append([]byte(nil), state.Data...)
    })
    if state.Frame > c.confirmedFrame {
        c.confirmedFrame = state.Frame
    }
    c.predictedFrame = state.Frame
    c.mu.Unlock()

    c.log.Warn().Uint32("frame", state.Frame).Msg("desync detected, adopting server state")
    if target > state.Frame {
        return c.PredictToFrame(target)
    }
    return nil
}

// OnDeltaStateUpdate reconstructs a full state from a delta against
// BaseFrame and forwards it to OnServerStateUpdate.
func (c *Client) OnDeltaStateUpdate(d wire.DeltaStateBlob) error {
    c.mu.Lock()
    base, ok := c.ring.Get(d.BaseFrame)
    c.mu.Unlock()
    if !ok {
        return errMissingFrame(d.BaseFrame)
    }
    data, err := c.deltas.Apply(stateTag, base.State, d.Data)
    if err != nil {
        return err
    }
    return c.OnServerStateUpdate(wire.GameStateBlob{Frame: d.Frame, Data: data})
}

// PruneHistoryBefore discards ring frames and local bookkeeping older than
// frame, bounding memory to the configured rollback window.
func (c *Client) PruneHistoryBefore(frame uint32) {
    c.ring.PruneBefore(frame)
    c.events.PruneBefore(frame)
}

// PredictedFrame returns the highest frame this client has locally simulated.
func (c *Client) PredictedFrame() uint32 {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.predictedFrame
}

// ConfirmedFrame returns the highest frame the server has confirmed.
func (c *Client) ConfirmedFrame() uint32 {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.confirmedFrame
}

// Stats reports the running misprediction and full-resync counters.
func (c *Client) Stats() (mispredictions, resyncs uint64) {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.mispredictions, c.resyncs
}

// StateAt returns a copy of the predicted state at frame, if retained.
func (c *Client) StateAt(frame uint32) (wire.GameStateBlob, bool) {
    snap, ok := c.ring.Get(frame)
    if !ok {
        return wire.GameStateBlob{}, false
    }
    return wire.GameStateBlob{Frame: frame, Data: snap.State}, true
}

type errMissingFrame uint32

func (e errMissingFrame) Error() string {
    return "netclient: missing snapshot for frame referenced by an update"
}
