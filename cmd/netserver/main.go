// Command netserver hosts an authoritative netcode session: it accepts
// connections until MinPlayers have joined, then runs the fixed-tick
// simulation loop until MaxFrames (or forever, if unset).
package main

import (
    "flag"
    "time"

    "github.com/retroforge/netcode-engine/internal/app"
    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/netlog"
    "github.com/retroforge/netcode-engine/internal/scheduler"
    "github.com/retroforge/netcode-engine/internal/session"
)

func main() {
    cfg := config.LoadServerConfig()

    port := flag.Int("port", cfg.Port, "listen port")
    minPlayers := flag.Int("min-players", cfg.MinPlayers, "players required before the game starts")
    maxPlayers := flag.Int("max-players", cfg.MaxPlayers, "max concurrent players")
    maxFrames := flag.Uint("max-frames", uint(cfg.MaxFrames), "stop after this many frames (0 = unlimited)")
    configFile := flag.String("config-file", "", "JSON file to hot-reload MinPlayers/MaxPlayers/AllowMidGameJoin from")
    flag.Parse()

    cfg.Port = *port
    cfg.MinPlayers = *minPlayers
    cfg.MaxPlayers = *maxPlayers
    cfg.MaxFrames = uint32(*maxFrames)

    log := netlog.NewConsole("server")
    logic := gamelogic.NewAsteroidsLogic(true)
    srv := session.NewServer(cfg, logic, log)

    if *configFile != "" {
        watcher, err := config.WatchServerConfig(*configFile, func(live config.ServerConfig) {
            srv.UpdateLiveConfig(live)
            log.Info().Int("min_players", live.MinPlayers).Int("max_players", live.MaxPlayers).
                Bool("allow_mid_game_join", live.AllowMidGameJoin).Msg("config reloaded")
        }, func(err error) {
            log.Warn().Err(err).Str("path", *configFile).Msg("config watch error")
        })
        if err != nil {
            log.Error().Err(err).Str("path", *configFile).Msg("failed to watch config file")
        } else {
            defer watcher.Close()
        }
    }

    if err := srv.Listen(); err != nil {
        log.Error().Err(err).Msg("listen failed")
        panic(err)
    }
    log.Info().Str("addr", srv.Addr()).Int("min_players", cfg.MinPlayers).Msg("waiting for players")
    go srv.AcceptLoop()

    for srv.Phase() == session.ServerWaiting {
        time.Sleep(100 * time.Millisecond)
        if app.QuitRequested() {
            srv.Stop()
            return
        }
    }

    core := srv.Core()
    core.Start()
    srv.BroadcastGameStart()
    log.Info().Msg("game started")

    sched := scheduler.New(cfg.TickRate)
    var frames uint32
    for {
        if app.QuitRequested() {
            break
        }
        if cfg.MaxFrames > 0 && frames >= cfg.MaxFrames {
            break
        }
        sched.Step(func(dt time.Duration) {
            result, err := core.Tick()
            if err != nil {
                log.Error().Err(err).Msg("tick failed")
                return
            }
            frames++
            if frames%30 == 0 {
                mean, last := core.TickStats()
                log.Info().Uint32("frame", result.Frame).Dur("mean_tick", mean).Dur("last_tick", last).
                    Str("state", logic.PrintState(result.State)).Msg("tick stats")
            }
            srv.Broadcast(result)
        })
    }
    srv.Stop()
}
