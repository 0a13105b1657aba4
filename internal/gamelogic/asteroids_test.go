package gamelogic

import (
    "testing"

    "github.com/retroforge/netcode-engine/internal/wire"
)

func TestInitProducesAliveShips(t *testing.T) {
    logic := NewAsteroidsLogic(true)
    state := logic.Init(2)
    ships := decodeShips(state.Data)
    if len(ships) != 2 {
        t.Fatalf("got %d ships, want 2", len(ships))
    }
    for i, s := range ships {
        if !s.Alive {
            t.Fatalf("ship %d should start alive", i)
        }
    }
}

func TestSimulateFrameAdvancesFrameCounter(t *testing.T) {
    logic := NewAsteroidsLogic(true)
    state := logic.Init(1)
    next, _ := logic.SimulateFrame(state, nil, nil)
    if next.Frame != state.Frame+1 {
        t.Fatalf("got frame %d, want %d", next.Frame, state.Frame+1)
    }
}

func TestSimulateFrameDeterministic(t *testing.T) {
    logic := NewAsteroidsLogic(true)
    base := logic.Init(2)
    a, _ := logic.SimulateFrame(base, nil, nil)
    b, _ := logic.SimulateFrame(base, nil, nil)
    if !logic.CompareStates(a, b) {
        t.Fatalf("expected identical results from identical (state, inputs)")
    }
}

func TestFireInputSchedulesEvent(t *testing.T) {
    logic := NewAsteroidsLogic(true)
    base := logic.Init(1)
    _, events := logic.SimulateFrame(base, nil, map[uint16]wire.InputBlob{0: {bitFire, 0, 0, 0}})
    if len(events) != 1 {
        t.Fatalf("got %d events, want 1", len(events))
    }
}

func TestIncomingEventAppliesOneFrameLate(t *testing.T) {
    logic := NewAsteroidsLogic(true)
    base := logic.Init(1)
    ev := make([]byte, 2)
    ev[1] = 0
    next, _ := logic.SimulateFrame(base, []wire.GameEventBlob{{Frame: base.Frame, Data: ev}}, nil)
    ships := decodeShips(next.Data)
    if ships[0].Score != 1 {
        t.Fatalf("got score %d, want 1 after applying a due fire event", ships[0].Score)
    }
}

func TestCompareStatesDetectsDifference(t *testing.T) {
    logic := NewAsteroidsLogic(true)
    a := logic.Init(1)
    b := logic.Init(2)
    if logic.CompareStates(a, b) {
        t.Fatalf("expected different ship counts to compare unequal")
    }
}

func TestPrintStateIncludesFrame(t *testing.T) {
    logic := NewAsteroidsLogic(true)
    state := logic.Init(1)
    s := logic.PrintState(state)
    if s == "" {
        t.Fatalf("expected non-empty summary")
    }
}

func TestEncodeDecodeShipsRoundtrip(t *testing.T) {
    ships := []Ship{{X: 1.5, Y: -2.5, VX: 0.1, VY: 0.2, Angle: 1.0, Alive: true, Score: 3}}
    data := encodeShips(ships)
    got := decodeShips(data)
    if len(got) != 1 || got[0] != ships[0] {
        t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, ships)
    }
}
