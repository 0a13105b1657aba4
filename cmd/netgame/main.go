// Command netgame is the combined host/connect launcher: a single binary
// that either starts a netserver lobby or joins one, driven by a small
// top-level menu/connecting/running/error state machine sitting above the
// session FSMs in internal/session.
package main

import (
    "flag"
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/retroforge/netcode-engine/internal/app"
    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/eventbus"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/inputdelay"
    "github.com/retroforge/netcode-engine/internal/netclient"
    "github.com/retroforge/netcode-engine/internal/netlog"
    "github.com/retroforge/netcode-engine/internal/runner"
    "github.com/retroforge/netcode-engine/internal/scheduler"
    "github.com/retroforge/netcode-engine/internal/sdlrun"
    "github.com/retroforge/netcode-engine/internal/session"
    "github.com/retroforge/netcode-engine/internal/statemachine"
    "github.com/retroforge/netcode-engine/internal/wire"
)

const (
    stateMenu       = "menu"
    stateConnecting = "connecting"
    stateRunning    = "running"
    stateError      = "error"
)

func main() {
    host := flag.Bool("host", false, "host a game instead of joining one")
    addr := flag.String("addr", "", "server address to join (connect mode) or :port to listen on (host mode)")
    clientID := flag.String("id", "", "client id to present when joining")
    minPlayers := flag.Int("min-players", 0, "override min players (host mode)")
    window := flag.Bool("window", false, "open an SDL2 viewer window")
    scale := flag.Int("scale", 3, "viewer window scale (integer)")
    flag.Parse()

    log := netlog.NewConsole("netgame")
    sm := statemachine.NewStateMachine()
    bus := eventbus.New()

    sm.SetContext("host", *host)
    sm.SetContext("addr", *addr)
    sm.SetContext("client_id", *clientID)
    sm.SetContext("min_players", *minPlayers)
    sm.SetContext("log", log)
    sm.SetContext("bus", bus)
    sm.SetContext("window", *window)
    sm.SetContext("scale", *scale)

    sm.RegisterStateInstance(stateMenu, &menuState{})
    sm.RegisterStateInstance(stateConnecting, &connectingState{})
    sm.RegisterStateInstance(stateRunning, &runningState{})
    sm.RegisterStateInstance(stateError, &errorState{})

    if err := sm.ChangeState(stateMenu); err != nil {
        log.Error().Err(err).Msg("failed to enter menu state")
        return
    }

    ticker := scheduler.New(60)
    for !sm.ShouldExit() && !app.QuitRequested() {
        ticker.Step(func(dt time.Duration) {
            sm.HandleInput()
            sm.Update(dt.Seconds())
        })
    }
}

// menuState is the entry point rather than an interactive menu: it
// immediately transitions to connectingState, which reads host-vs-connect
// from the shared context.
type menuState struct {
    sm *statemachine.StateMachine
}

func (s *menuState) Initialize(sm *statemachine.StateMachine) error { return nil }
func (s *menuState) Enter(sm *statemachine.StateMachine)            { s.sm = sm }
func (s *menuState) HandleInput(sm *statemachine.StateMachine)      {}
func (s *menuState) Draw()                                          {}
func (s *menuState) Exit(sm *statemachine.StateMachine)             {}
func (s *menuState) Shutdown()                                      {}

func (s *menuState) Update(dt float64) { s.sm.ChangeState(stateConnecting) }

// connectingState dials or listens depending on mode, then hands off to
// runningState via shared context once the session is established.
type connectingState struct {
    sm        *statemachine.StateMachine
    attempted bool
}

func (s *connectingState) Initialize(sm *statemachine.StateMachine) error { return nil }
func (s *connectingState) Exit(sm *statemachine.StateMachine)             {}
func (s *connectingState) Shutdown()                                      {}
func (s *connectingState) Draw()                                          {}
func (s *connectingState) HandleInput(sm *statemachine.StateMachine)      {}

func (s *connectingState) Enter(sm *statemachine.StateMachine) {
    s.sm = sm
    s.attempted = false
}

func (s *connectingState) Update(dt float64) {
    if s.attempted {
        return
    }
    s.attempted = true
    sm := s.sm

    log, _ := getContext[zerolog.Logger](sm, "log")
    isHost, _ := sm.GetContext("host")
    addr, _ := sm.GetContext("addr")
    clientID, _ := sm.GetContext("client_id")
    minPlayers, _ := sm.GetContext("min_players")

    if isHost.(bool) {
        cfg := config.ServerDefaults()
        if a, ok := addr.(string); ok && a != "" {
            cfg.Port = parsePort(a, cfg.Port)
        }
        if mp, ok := minPlayers.(int); ok && mp > 0 {
            cfg.MinPlayers = mp
        }
        logic := gamelogic.NewAsteroidsLogic(true)
        srv := session.NewServer(cfg, logic, log)
        if err := srv.Listen(); err != nil {
            sm.SetContext("error", err)
            sm.ChangeState(stateError)
            return
        }
        log.Info().Str("addr", srv.Addr()).Msg("hosting")
        go srv.AcceptLoop()
        sm.SetContext("server", srv)
        sm.SetContext("logic", logic)
        sm.SetContext("tick_rate", cfg.TickRate)
        sm.SetContext("min_players_required", cfg.MinPlayers)
        sm.ChangeState(stateRunning)
        return
    }

    cfg := config.ClientDefaults()
    if a, ok := addr.(string); ok && a != "" {
        cfg.ServerAddr = a
    }
    if id, ok := clientID.(string); ok && id != "" {
        cfg.ClientID = id
    }
    logic := gamelogic.NewAsteroidsLogic(false)
    cli := session.NewClient(cfg, logic, log)
    code := cli.Connect()
    if code != session.CodeSuccess {
        sm.SetContext("error", fmt.Errorf("connect failed: %s", code))
        sm.ChangeState(stateError)
        return
    }
    log.Info().Uint16("player_id", cli.PlayerID()).Msg("joined")
    sm.SetContext("client", cli)
    sm.SetContext("logic", logic)
    sm.SetContext("tick_rate", cfg.TickRate)
    sm.ChangeState(stateRunning)
}

// runningState drives the simulation tick loop (host) or prediction loop
// (connect) through a runner.Runner publishing "tick" on the shared bus,
// until the top-level loop's QuitRequested check stops it.
type runningState struct {
    runner *runner.Runner
    unsub  func()

    mu        sync.Mutex
    lastState wire.GameStateBlob
    logic     *gamelogic.AsteroidsLogic
}

func (s *runningState) setState(state wire.GameStateBlob) {
    s.mu.Lock()
    s.lastState = state
    s.mu.Unlock()
}

func (s *runningState) renderPixels() []byte {
    s.mu.Lock()
    state := s.lastState
    s.mu.Unlock()
    if state.Data == nil {
        return make([]byte, gamelogic.FrameWidth*gamelogic.FrameHeight*4)
    }
    return s.logic.Render(state)
}

func (s *runningState) Initialize(sm *statemachine.StateMachine) error { return nil }
func (s *runningState) Shutdown()                                      {}
func (s *runningState) Draw()                                           {}
func (s *runningState) HandleInput(sm *statemachine.StateMachine)       {}
func (s *runningState) Update(dt float64)                               {}

func (s *runningState) Enter(sm *statemachine.StateMachine) {
    bus, _ := getContext[*eventbus.Bus](sm, "bus")
    tickRate, _ := sm.GetContext("tick_rate")
    rate, _ := tickRate.(int)
    if rate <= 0 {
        rate = 30
    }
    s.runner = runner.New(bus, scheduler.New(rate))

    log, _ := getContext[zerolog.Logger](sm, "log")
    logicVal, _ := sm.GetContext("logic")
    if logic, ok := logicVal.(*gamelogic.AsteroidsLogic); ok {
        s.logic = logic
    }

    if srvVal, ok := sm.GetContext("server"); ok {
        srv := srvVal.(*session.Server)
        minReq, _ := sm.GetContext("min_players_required")
        minPlayers, _ := minReq.(int)
        go s.runServer(sm, bus, srv, log, minPlayers)
        s.maybeOpenWindow(sm)
        return
    }

    if cliVal, ok := sm.GetContext("client"); ok {
        cli := cliVal.(*session.Client)
        core := cli.Core()
        sess := cli.Session()
        delayCalc := inputdelay.New(rate)
        sentAt := make(map[uint32]time.Time)

        incoming := make(chan []byte, 64)
        go func() {
            for {
                buf, err := sess.Recv(0)
                if err != nil {
                    close(incoming)
                    return
                }
                incoming <- buf
            }
        }()

        drain := func() {
            for {
                select {
                case buf, ok := <-incoming:
                    if !ok {
                        return
                    }
                    handleClientPacket(core, delayCalc, sentAt, buf, log)
                default:
                    return
                }
            }
        }

        s.unsub = bus.Subscribe("tick", func(any) {
            drain()
            core.SetInputDelayFrames(delayCalc.DelayFrames())
            cur := core.PredictedFrame()
            submitFrame := core.NextSubmitFrame()
            in := s.logic.GenerateLocalInput()
            pkt := core.SubmitLocalInput(submitFrame, in)
            sentAt[submitFrame] = time.Now()
            if err := sess.Send(pkt); err != nil {
                log.Error().Err(err).Msg("send failed")
                return
            }
            if err := core.PredictFrame(cur); err != nil {
                log.Error().Err(err).Msg("predict failed")
                return
            }
            if state, ok := core.StateAt(core.PredictedFrame()); ok {
                s.setState(state)
            }
        })
        go s.driveLoop(sm)
        s.maybeOpenWindow(sm)
        return
    }
}

// runServer waits for the lobby to reach minPlayers, starts the simulation
// and broadcasts GAME_START, then drives the tick loop. Run in its own
// goroutine since it blocks on the lobby wait and Enter must not.
func (s *runningState) runServer(sm *statemachine.StateMachine, bus *eventbus.Bus, srv *session.Server, log zerolog.Logger, minPlayers int) {
    for srv.Core().ConnectedCount() < minPlayers {
        if sm.ShouldExit() || app.QuitRequested() {
            return
        }
        time.Sleep(100 * time.Millisecond)
    }
    srv.Core().Start()
    srv.BroadcastGameStart()
    s.unsub = bus.Subscribe("tick", func(any) {
        result, err := srv.Core().Tick()
        if err != nil {
            log.Error().Err(err).Msg("tick failed")
            return
        }
        srv.Broadcast(result)
        s.setState(result.State)
    })
    s.driveLoop(sm)
}

// handleClientPacket dispatches one received frame to the prediction core,
// mirroring cmd/netclient's handling so both entry points reconcile and
// apply delayed events identically.
func handleClientPacket(core *netclient.Client, delayCalc *inputdelay.Controller, sentAt map[uint32]time.Time, buf []byte, log zerolog.Logger) {
    tag, err := wire.PeekType(buf)
    if err != nil {
        log.Warn().Err(err).Msg("dropped unparseable packet")
        return
    }
    switch tag {
    case wire.PacketInputUpdate:
        frame, entries, err := wire.DecodeInputUpdate(buf)
        if err != nil {
            log.Warn().Err(err).Msg("malformed INPUT_UPDATE")
            return
        }
        if sent, ok := sentAt[frame]; ok {
            delayCalc.AddSample(float64(time.Since(sent).Milliseconds()))
            delete(sentAt, frame)
        }
        if err := core.OnServerInputUpdate(frame, entries); err != nil {
            log.Warn().Err(err).Uint32("frame", frame).Msg("OnServerInputUpdate failed")
        }
    case wire.PacketStateUpdate:
        state, err := wire.DecodeStateUpdate(buf)
        if err != nil {
            log.Warn().Err(err).Msg("malformed STATE_UPDATE")
            return
        }
        if err := core.OnServerStateUpdate(state); err != nil {
            log.Warn().Err(err).Msg("OnServerStateUpdate failed")
        }
    case wire.PacketDeltaStateUpdate:
        d, err := wire.DecodeDeltaStateUpdate(buf)
        if err != nil {
            log.Warn().Err(err).Msg("malformed DELTA_STATE_UPDATE")
            return
        }
        if err := core.OnDeltaStateUpdate(d); err != nil {
            log.Warn().Err(err).Msg("OnDeltaStateUpdate failed")
        }
    case wire.PacketEventUpdate:
        ev, err := wire.DecodeEventUpdate(buf)
        if err != nil {
            log.Warn().Err(err).Msg("malformed EVENT_UPDATE")
            return
        }
        core.OnServerEventUpdate(ev)
    default:
        log.Debug().Str("tag", tag.String()).Msg("ignored packet")
    }
}

func (s *runningState) maybeOpenWindow(sm *statemachine.StateMachine) {
    wantWindow, _ := sm.GetContext("window")
    if w, ok := wantWindow.(bool); !ok || !w {
        return
    }
    scaleVal, _ := sm.GetContext("scale")
    scale, _ := scaleVal.(int)
    log, _ := getContext[zerolog.Logger](sm, "log")
    go func() {
        if err := sdlrun.RunWindow(gamelogic.FrameWidth, gamelogic.FrameHeight, scale, s.renderPixels); err != nil {
            log.Error().Err(err).Msg("viewer window failed")
            sm.RequestExit()
        }
    }()
}

func (s *runningState) driveLoop(sm *statemachine.StateMachine) {
    for !sm.ShouldExit() && !app.QuitRequested() {
        s.runner.Step()
    }
}

func (s *runningState) Exit(sm *statemachine.StateMachine) {
    if s.unsub != nil {
        s.unsub()
    }
}

// errorState logs the failure recorded in the shared context and requests
// the top-level loop exit.
type errorState struct{}

func (s *errorState) Initialize(sm *statemachine.StateMachine) error { return nil }
func (s *errorState) HandleInput(sm *statemachine.StateMachine)      {}
func (s *errorState) Update(dt float64)                              {}
func (s *errorState) Draw()                                          {}
func (s *errorState) Exit(sm *statemachine.StateMachine)             {}
func (s *errorState) Shutdown()                                      {}

func (s *errorState) Enter(sm *statemachine.StateMachine) {
    log, _ := getContext[zerolog.Logger](sm, "log")
    if errVal, ok := sm.GetContext("error"); ok {
        if err, ok := errVal.(error); ok {
            log.Error().Err(err).Msg("fatal error")
        }
    }
    sm.RequestExit()
}

func getContext[T any](sm *statemachine.StateMachine, key string) (T, bool) {
    var zero T
    v, ok := sm.GetContext(key)
    if !ok {
        return zero, false
    }
    t, ok := v.(T)
    return t, ok
}

func parsePort(addr string, fallback int) int {
    var port int
    if _, err := fmt.Sscanf(addr, ":%d", &port); err == nil {
        return port
    }
    return fallback
}
