// Package config holds engine-wide defaults for the netcode server and
// client, merged with environment variable overrides.
package config

import (
    "os"
    "strconv"
    "time"
)

// ServerConfig controls lobby behavior and simulation bounds for a session host.
type ServerConfig struct {
    Port                int
    TickRate            int
    MinPlayers          int
    MaxPlayers          int
    AllowMidGameJoin    bool
    StopOnBelowMin      bool
    AllowReconnection   bool
    RequireClientID     bool
    MaxFrames           uint32
    ReconnectionTimeout time.Duration
    FramesToKeep        int
}

// ServerDefaults mirrors the reference server's constructor defaults.
func ServerDefaults() ServerConfig {
    return ServerConfig{
        Port:                7777,
        TickRate:            30,
        MinPlayers:          2,
        MaxPlayers:          8,
        AllowMidGameJoin:    false,
        StopOnBelowMin:      false,
        AllowReconnection:   true,
        RequireClientID:     true,
        MaxFrames:           0,
        ReconnectionTimeout: 60 * time.Second,
        FramesToKeep:        300,
    }
}

// LoadServerConfig merges RETROFORGE_* environment variables onto ServerDefaults.
func LoadServerConfig() ServerConfig {
    c := ServerDefaults()
    if v := getenvInt("RETROFORGE_PORT"); v > 0 {
        c.Port = v
    }
    if v := getenvInt("RETROFORGE_TICK_RATE"); v > 0 {
        c.TickRate = v
    }
    if v := getenvInt("RETROFORGE_MIN_PLAYERS"); v > 0 {
        c.MinPlayers = v
    }
    if v := getenvInt("RETROFORGE_MAX_PLAYERS"); v > 0 {
        c.MaxPlayers = v
    }
    if v, ok := getenvBool("RETROFORGE_ALLOW_MIDGAME_JOIN"); ok {
        c.AllowMidGameJoin = v
    }
    if v, ok := getenvBool("RETROFORGE_STOP_BELOW_MIN"); ok {
        c.StopOnBelowMin = v
    }
    if v, ok := getenvBool("RETROFORGE_ALLOW_RECONNECT"); ok {
        c.AllowReconnection = v
    }
    if v, ok := getenvBool("RETROFORGE_REQUIRE_CLIENT_ID"); ok {
        c.RequireClientID = v
    }
    if v := getenvInt("RETROFORGE_MAX_FRAMES"); v > 0 {
        c.MaxFrames = uint32(v)
    }
    if v := getenvInt("RETROFORGE_RECONNECT_TIMEOUT_SEC"); v > 0 {
        c.ReconnectionTimeout = time.Duration(v) * time.Second
    }
    if v := getenvInt("RETROFORGE_FRAMES_TO_KEEP"); v > 0 {
        c.FramesToKeep = v
    }
    return c
}

// ClientConfig controls how a client connects and paces local simulation.
type ClientConfig struct {
    ServerAddr        string
    ClientID          string
    TickRate          int
    MaxRollbackFrames int
    ConnectTimeout    time.Duration
    WaitStateTimeout  time.Duration
}

// ClientDefaults mirrors the reference client's constructor defaults.
func ClientDefaults() ClientConfig {
    return ClientConfig{
        ServerAddr:        "127.0.0.1:7777",
        ClientID:          "",
        TickRate:          30,
        MaxRollbackFrames: 10,
        ConnectTimeout:    10 * time.Second,
        WaitStateTimeout:  10 * time.Second,
    }
}

// LoadClientConfig merges RETROFORGE_* environment variables onto ClientDefaults.
func LoadClientConfig() ClientConfig {
    c := ClientDefaults()
    if v := os.Getenv("RETROFORGE_SERVER_ADDR"); v != "" {
        c.ServerAddr = v
    }
    if v := os.Getenv("RETROFORGE_CLIENT_ID"); v != "" {
        c.ClientID = v
    }
    if v := getenvInt("RETROFORGE_TICK_RATE"); v > 0 {
        c.TickRate = v
    }
    if v := getenvInt("RETROFORGE_MAX_ROLLBACK_FRAMES"); v > 0 {
        c.MaxRollbackFrames = v
    }
    return c
}

func getenvInt(key string) int {
    s := os.Getenv(key)
    if s == "" {
        return 0
    }
    n, _ := strconv.Atoi(s)
    return n
}

func getenvBool(key string) (bool, bool) {
    s := os.Getenv(key)
    if s == "" {
        return false, false
    }
    b, err := strconv.ParseBool(s)
    if err != nil {
        return false, false
    }
    return b, true
}
