package netserver

import (
    "testing"

    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/netlog"
    "github.com/retroforge/netcode-engine/internal/wire"
)

func testServer(t *testing.T) *Server {
    t.Helper()
    cfg := config.ServerDefaults()
    cfg.RequireClientID = true
    logic := gamelogic.NewAsteroidsLogic(true)
    return New(cfg, logic, netlog.New("test", nil))
}

func TestAddPlayerAssignsSequentialIDs(t *testing.T) {
    s := testServer(t)
    id0, err := s.AddPlayer("alice", nil)
    if err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    id1, err := s.AddPlayer("bob", nil)
    if err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    if id0 == id1 {
        t.Fatalf("expected distinct player ids, got %d and %d", id0, id1)
    }
}

func TestAddPlayerRejectsInvalidClientID(t *testing.T) {
    s := testServer(t)
    if _, err := s.AddPlayer("bad id!", nil); err != ErrInvalidClientID {
        t.Fatalf("got %v, want ErrInvalidClientID", err)
    }
}

func TestAddPlayerRejectsDuplicateClientID(t *testing.T) {
    s := testServer(t)
    if _, err := s.AddPlayer("alice", nil); err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    if _, err := s.AddPlayer("alice", nil); err != ErrDuplicateClientID {
        t.Fatalf("got %v, want ErrDuplicateClientID", err)
    }
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
    s := testServer(t)
    s.cfg.MaxPlayers = 1
    if _, err := s.AddPlayer("alice", nil); err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    if _, err := s.AddPlayer("bob", nil); err != ErrServerFull {
        t.Fatalf("got %v, want ErrServerFull", err)
    }
}

func TestDisconnectAndReconnect(t *testing.T) {
    s := testServer(t)
    id, err := s.AddPlayer("alice", nil)
    if err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    s.Disconnect(id)
    if s.ConnectedCount() != 0 {
        t.Fatalf("expected 0 connected after disconnect")
    }
    got, err := s.Reconnect("alice", nil)
    if err != nil {
        t.Fatalf("Reconnect: %v", err)
    }
    if got != id {
        t.Fatalf("got player id %d, want %d (reconnect should reuse slot)", got, id)
    }
    if s.ConnectedCount() != 1 {
        t.Fatalf("expected 1 connected after reconnect")
    }
}

func TestTickAdvancesFrameAndBroadcastsInputs(t *testing.T) {
    s := testServer(t)
    id, err := s.AddPlayer("alice", nil)
    if err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    s.Start()

    s.OnClientInputReceived(id, 0, wire.InputBlob{1, 0, 0, 0})
    result, err := s.Tick()
    if err != nil {
        t.Fatalf("Tick: %v", err)
    }
    if result.Frame != 1 {
        t.Fatalf("got frame %d, want 1", result.Frame)
    }
    if len(result.ConfirmedInputs) != 1 || result.ConfirmedInputs[0].PlayerID != id {
        t.Fatalf("got confirmed inputs %+v", result.ConfirmedInputs)
    }
    if s.CurrentFrame() != 1 {
        t.Fatalf("CurrentFrame() = %d, want 1", s.CurrentFrame())
    }
}

func TestTickSendsFullStateEveryFullStateInterval(t *testing.T) {
    s := testServer(t)
    if _, err := s.AddPlayer("alice", nil); err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    s.Start()
    var last TickResult
    for i := 0; i < fullStateInterval; i++ {
        r, err := s.Tick()
        if err != nil {
            t.Fatalf("Tick: %v", err)
        }
        last = r
    }
    if !last.IsFullState {
        t.Fatalf("expected tick %d to be a full state broadcast", fullStateInterval)
    }
}

func TestTickStatsReportsAfterTicks(t *testing.T) {
    s := testServer(t)
    if _, err := s.AddPlayer("alice", nil); err != nil {
        t.Fatalf("AddPlayer: %v", err)
    }
    s.Start()
    if _, err := s.Tick(); err != nil {
        t.Fatalf("Tick: %v", err)
    }
    mean, last := s.TickStats()
    if mean == 0 && last == 0 {
        t.Fatalf("expected non-zero tick stats after at least one tick")
    }
}
