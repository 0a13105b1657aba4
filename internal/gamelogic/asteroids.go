// Reference GameLogic: a small asteroid-field ship combat demo. Grounded on
// the original engine's asteroids game (see original_source index) and
// wired to the kept physics/input packages so both teacher dependencies
// land in a concrete component rather than sitting unused.
package gamelogic

import (
    "encoding/binary"
    "fmt"
    "math"

    "github.com/retroforge/netcode-engine/internal/input"
    "github.com/retroforge/netcode-engine/internal/physics"
    "github.com/retroforge/netcode-engine/internal/wire"
)

const (
    shipRecordBytes = 24 // x,y,vx,vy,angle float32 (20) + alive byte + score byte + 2 pad
    maxShips        = 8
    worldBounds     = 100.0
    thrustForce     = 12.0
    rotationSpeed   = 0.12 // radians per tick
)

// FrameWidth and FrameHeight are the logical pixel dimensions Render draws
// into, mapping worldBounds onto a square framebuffer.
const (
    FrameWidth  = 160
    FrameHeight = 160
)

var shipColors = [maxShips][3]byte{
    {226, 60, 60}, {60, 140, 226}, {60, 226, 110}, {226, 200, 60},
    {200, 60, 226}, {60, 226, 200}, {226, 140, 60}, {160, 160, 160},
}

// Ship is the decoded, in-memory form of one player's entity. Entities are
// addressed by slice index (player ID), never by pointer — there is no
// owning parent/child graph to express here.
type Ship struct {
    X, Y, VX, VY, Angle float32
    Alive               bool
    Score               byte
}

// AsteroidsLogic is a reference GameLogic implementation driving a fixed
// number of ships through a box2d world rebuilt from the wire state every
// frame, so SimulateFrame stays a pure function of (state, inputs).
type AsteroidsLogic struct {
    isServer bool
}

// NewAsteroidsLogic constructs the demo logic for either role.
func NewAsteroidsLogic(isServer bool) *AsteroidsLogic {
    return &AsteroidsLogic{isServer: isServer}
}

func (a *AsteroidsLogic) IsServer() bool { return a.isServer }

func (a *AsteroidsLogic) Init(numPlayers int) wire.GameStateBlob {
    if numPlayers > maxShips {
        numPlayers = maxShips
    }
    ships := make([]Ship, numPlayers)
    for i := range ships {
        angle := float32(i) * (2 * math.Pi / float32(numPlayers))
        ships[i] = Ship{
            X:     20 * float32(math.Cos(float64(angle))),
            Y:     20 * float32(math.Sin(float64(angle))),
            Angle: angle + math.Pi,
            Alive: true,
        }
    }
    return wire.GameStateBlob{Frame: 0, Data: encodeShips(ships)}
}

// GenerateLocalInput packs the Pico-8-style button state into the wire's
// fixed 4-byte InputBlob: byte 0 is a button bitmask, bytes 1-3 are reserved.
func (a *AsteroidsLogic) GenerateLocalInput() wire.InputBlob {
    var mask byte
    if input.Btn(input.BtnLeft) {
        mask |= 1 << 0
    }
    if input.Btn(input.BtnRight) {
        mask |= 1 << 1
    }
    if input.Btn(input.BtnUp) {
        mask |= 1 << 2
    }
    if input.Btn(input.BtnDown) {
        mask |= 1 << 3
    }
    if input.Btn(input.BtnO) {
        mask |= 1 << 4
    }
    if input.Btn(input.BtnX) {
        mask |= 1 << 5
    }
    return wire.InputBlob{mask, 0, 0, 0}
}

const (
    bitLeft = 1 << 0
    bitRight = 1 << 1
    bitThrust = 1 << 2
    bitBrake = 1 << 3
    bitFire = 1 << 4
)

func (a *AsteroidsLogic) SimulateFrame(state wire.GameStateBlob, events []wire.GameEventBlob, inputs map[uint16]wire.InputBlob) (wire.GameStateBlob, []wire.GameEventBlob) {
    ships := decodeShips(state.Data)

    // Fire events generated last frame resolve here, one tick late, so every
    // peer applies them against the same state regardless of network jitter.
    for _, ev := range events {
        if len(ev.Data) < 2 {
            continue
        }
        shooter := binary.BigEndian.Uint16(ev.Data)
        if int(shooter) < len(ships) && ships[shooter].Alive {
            ships[shooter].Score++
        }
    }

    world := physics.NewWorld(0, 0)
    bodies := make([]*physics.Body, len(ships))
    for i, s := range ships {
        b := world.CreateDynamicBody(float64(s.X), float64(s.Y))
        b.CreateCircleFixture(1.0, 1.0)
        b.SetVelocity(float64(s.VX), float64(s.VY))
        b.SetAngle(float64(s.Angle))
        bodies[i] = b
    }

    var generated []wire.GameEventBlob
    for i := range ships {
        if !ships[i].Alive {
            continue
        }
        in := inputs[uint16(i)]
        mask := in[0]
        angle := float64(ships[i].Angle)
        if mask&bitLeft != 0 {
            angle -= rotationSpeed
        }
        if mask&bitRight != 0 {
            angle += rotationSpeed
        }
        bodies[i].SetAngle(angle)
        if mask&bitThrust != 0 {
            fx := math.Cos(angle) * thrustForce
            fy := math.Sin(angle) * thrustForce
            px, py := bodies[i].GetPosition()
            bodies[i].ApplyForce(fx, fy, px, py)
        }
        if mask&bitBrake != 0 {
            vx, vy := bodies[i].GetVelocity()
            bodies[i].SetVelocity(vx*0.9, vy*0.9)
        }
        if mask&bitFire != 0 {
            ev := make([]byte, 2)
            binary.BigEndian.PutUint16(ev, uint16(i))
            generated = append(generated, wire.GameEventBlob{Frame: state.Frame, Data: ev})
        }
    }

    world.Step()

    for i := range ships {
        x, y := bodies[i].GetPosition()
        vx, vy := bodies[i].GetVelocity()
        ships[i].X = wrap(float32(x))
        ships[i].Y = wrap(float32(y))
        ships[i].VX = float32(vx)
        ships[i].VY = float32(vy)
        ships[i].Angle = float32(bodies[i].GetAngle())
    }

    return wire.GameStateBlob{Frame: state.Frame + 1, Data: encodeShips(ships)}, generated
}

func wrap(v float32) float32 {
    if v > worldBounds {
        return -worldBounds
    }
    if v < -worldBounds {
        return worldBounds
    }
    return v
}

func (a *AsteroidsLogic) CompareStates(x, y wire.GameStateBlob) bool {
    if len(x.Data) != len(y.Data) {
        return false
    }
    for i := range x.Data {
        if x.Data[i] != y.Data[i] {
            return false
        }
    }
    return true
}

func (a *AsteroidsLogic) PrintState(state wire.GameStateBlob) string {
    ships := decodeShips(state.Data)
    out := fmt.Sprintf("frame=%d ships=%d", state.Frame, len(ships))
    for i, s := range ships {
        out += fmt.Sprintf(" [%d x=%.1f y=%.1f alive=%v]", i, s.X, s.Y, s.Alive)
    }
    return out
}

// Render draws state into an RGBA framebuffer (FrameWidth*FrameHeight*4
// bytes), each ship plotted as a small filled square in its player color.
// Pure function of the decoded state, so a viewer can call it from any
// goroutine without touching the simulation core.
func (a *AsteroidsLogic) Render(state wire.GameStateBlob) []byte {
    pix := make([]byte, FrameWidth*FrameHeight*4)
    ships := decodeShips(state.Data)
    const scale = FrameWidth / (2 * worldBounds)
    for i, s := range ships {
        if !s.Alive {
            continue
        }
        cx := int(FrameWidth/2 + s.X*scale)
        cy := int(FrameHeight/2 + s.Y*scale)
        col := shipColors[i%len(shipColors)]
        plotSquare(pix, cx, cy, 3, col)
    }
    return pix
}

func plotSquare(pix []byte, cx, cy, half int, col [3]byte) {
    for y := cy - half; y <= cy+half; y++ {
        if y < 0 || y >= FrameHeight {
            continue
        }
        for x := cx - half; x <= cx+half; x++ {
            if x < 0 || x >= FrameWidth {
                continue
            }
            off := (y*FrameWidth + x) * 4
            pix[off] = col[0]
            pix[off+1] = col[1]
            pix[off+2] = col[2]
            pix[off+3] = 255
        }
    }
}

func encodeShips(ships []Ship) []byte {
    buf := make([]byte, 1+len(ships)*shipRecordBytes)
    buf[0] = byte(len(ships))
    for i, s := range ships {
        off := 1 + i*shipRecordBytes
        binary.BigEndian.PutUint32(buf[off:], math.Float32bits(s.X))
        binary.BigEndian.PutUint32(buf[off+4:], math.Float32bits(s.Y))
        binary.BigEndian.PutUint32(buf[off+8:], math.Float32bits(s.VX))
        binary.BigEndian.PutUint32(buf[off+12:], math.Float32bits(s.VY))
        binary.BigEndian.PutUint32(buf[off+16:], math.Float32bits(s.Angle))
        if s.Alive {
            buf[off+20] = 1
        }
        buf[off+21] = s.Score
    }
    return buf
}

func decodeShips(data []byte) []Ship {
    if len(data) == 0 {
        return nil
    }
    n := int(data[0])
    ships := make([]Ship, n)
    for i := 0; i < n; i++ {
        off := 1 + i*shipRecordBytes
        if off+shipRecordBytes > len(data) {
            break
        }
        ships[i] = Ship{
            X:     math.Float32frombits(binary.BigEndian.Uint32(data[off:])),
            Y:     math.Float32frombits(binary.BigEndian.Uint32(data[off+4:])),
            VX:    math.Float32frombits(binary.BigEndian.Uint32(data[off+8:])),
            VY:    math.Float32frombits(binary.BigEndian.Uint32(data[off+12:])),
            Angle: math.Float32frombits(binary.BigEndian.Uint32(data[off+16:])),
            Alive: data[off+20] == 1,
            Score: data[off+21],
        }
    }
    return ships
}
