package config

import (
    "testing"
    "time"
)

func TestServerDefaults(t *testing.T) {
    d := ServerDefaults()
    if d.Port != 7777 || d.TickRate != 30 || d.MinPlayers != 2 || d.MaxPlayers != 8 {
        t.Fatalf("unexpected server defaults: %#v", d)
    }
    if d.AllowMidGameJoin {
        t.Fatalf("AllowMidGameJoin should default false")
    }
    if !d.AllowReconnection || !d.RequireClientID {
        t.Fatalf("AllowReconnection/RequireClientID should default true")
    }
    if d.FramesToKeep != 300 {
        t.Fatalf("FramesToKeep should default 300, got %d", d.FramesToKeep)
    }
}

func TestLoadServerConfigFromEnv(t *testing.T) {
    t.Setenv("RETROFORGE_PORT", "9000")
    t.Setenv("RETROFORGE_MIN_PLAYERS", "3")
    t.Setenv("RETROFORGE_MAX_PLAYERS", "6")
    t.Setenv("RETROFORGE_ALLOW_MIDGAME_JOIN", "true")
    t.Setenv("RETROFORGE_RECONNECT_TIMEOUT_SEC", "45")
    c := LoadServerConfig()
    if c.Port != 9000 || c.MinPlayers != 3 || c.MaxPlayers != 6 {
        t.Fatalf("env load failed: %#v", c)
    }
    if !c.AllowMidGameJoin {
        t.Fatalf("AllowMidGameJoin should be true from env")
    }
    if c.ReconnectionTimeout != 45*time.Second {
        t.Fatalf("ReconnectionTimeout = %v, want 45s", c.ReconnectionTimeout)
    }
}

func TestClientDefaults(t *testing.T) {
    d := ClientDefaults()
    if d.ServerAddr != "127.0.0.1:7777" || d.TickRate != 30 || d.MaxRollbackFrames != 10 {
        t.Fatalf("unexpected client defaults: %#v", d)
    }
}

func TestLoadClientConfigFromEnv(t *testing.T) {
    t.Setenv("RETROFORGE_SERVER_ADDR", "10.0.0.5:8888")
    t.Setenv("RETROFORGE_CLIENT_ID", "player1")
    c := LoadClientConfig()
    if c.ServerAddr != "10.0.0.5:8888" || c.ClientID != "player1" {
        t.Fatalf("env load failed: %#v", c)
    }
}
