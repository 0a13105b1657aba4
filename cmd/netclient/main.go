// Command netclient connects to a netserver host, predicts locally ahead
// of the server's confirmed frame, and reconciles against server updates
// as they arrive.
package main

import (
    "flag"
    "os"
    "time"

    "github.com/rs/zerolog"

    "github.com/retroforge/netcode-engine/internal/app"
    "github.com/retroforge/netcode-engine/internal/config"
    "github.com/retroforge/netcode-engine/internal/gamelogic"
    "github.com/retroforge/netcode-engine/internal/inputdelay"
    "github.com/retroforge/netcode-engine/internal/netclient"
    "github.com/retroforge/netcode-engine/internal/netlog"
    "github.com/retroforge/netcode-engine/internal/scheduler"
    "github.com/retroforge/netcode-engine/internal/session"
    "github.com/retroforge/netcode-engine/internal/wire"
)

func main() {
    cfg := config.LoadClientConfig()

    addr := flag.String("addr", cfg.ServerAddr, "server address to connect to")
    clientID := flag.String("id", cfg.ClientID, "client id (letters, digits, _ and -, max 63 chars)")
    flag.Parse()

    cfg.ServerAddr = *addr
    cfg.ClientID = *clientID

    log := netlog.NewConsole("client")
    logic := gamelogic.NewAsteroidsLogic(false)
    cli := session.NewClient(cfg, logic, log)

    code := cli.Connect()
    if code != session.CodeSuccess {
        log.Error().Str("code", code.String()).Msg("connect failed")
        os.Exit(1)
    }
    log.Info().Uint16("player_id", cli.PlayerID()).Msg("connected")

    core := cli.Core()
    sess := cli.Session()
    delayCalc := inputdelay.New(cfg.TickRate)
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
                handlePacket(core, delayCalc, sentAt, buf, log)
            default:
                return
            }
        }
    }

    sched := scheduler.New(cfg.TickRate)
    var tick uint32
    for {
        if app.QuitRequested() {
            break
        }
        drain()

        sched.Step(func(dt time.Duration) {
            core.SetInputDelayFrames(delayCalc.DelayFrames())
            cur := core.PredictedFrame()
            submitFrame := core.NextSubmitFrame()
            in := logic.GenerateLocalInput()
            pkt := core.SubmitLocalInput(submitFrame, in)
            sentAt[submitFrame] = time.Now()
            if err := sess.Send(pkt); err != nil {
                log.Error().Err(err).Msg("failed to send INPUT")
                return
            }
            if err := core.PredictFrame(cur); err != nil {
                log.Error().Err(err).Msg("predict failed")
                return
            }
            core.PruneHistoryBefore(core.ConfirmedFrame())

            tick++
            if tick%30 == 0 {
                mis, resyncs := core.Stats()
                log.Info().Uint32("predicted", core.PredictedFrame()).Uint32("confirmed", core.ConfirmedFrame()).
                    Uint64("mispredictions", mis).Uint64("resyncs", resyncs).
                    Float64("latency_ms", delayCalc.LatencyMillis()).Int("delay_frames", delayCalc.DelayFrames()).
                    Msg("client stats")
                _ = sess.Send(wire.EncodeInputDelay(uint8(delayCalc.DelayFrames())))
            }
        })
    }

    cli.Close()
}

// handlePacket dispatches one received frame to the prediction core and
// feeds the input-delay RTT estimator from the round trip of the matching
// local submission, if still tracked.
func handlePacket(core *netclient.Client, delayCalc *inputdelay.Controller, sentAt map[uint32]time.Time, buf []byte, log zerolog.Logger) {
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
        delta, err := wire.DecodeDeltaStateUpdate(buf)
        if err != nil {
            log.Warn().Err(err).Msg("malformed DELTA_STATE_UPDATE")
            return
        }
        if err := core.OnDeltaStateUpdate(delta); err != nil {
            log.Warn().Err(err).Msg("OnDeltaStateUpdate failed")
        }
    case wire.PacketEventUpdate:
        ev, err := wire.DecodeEventUpdate(buf)
        if err != nil {
            log.Warn().Err(err).Msg("malformed EVENT_UPDATE")
            return
        }
        core.OnServerEventUpdate(ev)
        log.Debug().Uint32("frame", ev.Frame).Int("bytes", len(ev.Data)).Msg("event scheduled")
    default:
        log.Debug().Str("tag", tag.String()).Msg("ignored packet")
    }
}
