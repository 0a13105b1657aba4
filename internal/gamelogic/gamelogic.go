// Package gamelogic defines the GameLogic capability the netcode cores
// depend on, plus a reference implementation so the engine is exercisable
// end to end without a concrete game bolted on top of it. Everything the
// server and client cores touch goes through this interface: they never
// know what a "ship" or an "asteroid" is.
package gamelogic

import "github.com/retroforge/netcode-engine/internal/wire"

// GameLogic is the opaque simulation capability the netcode cores drive.
// Every method must be a pure function of its explicit inputs: no hidden
// global state, no wall-clock reads, so that replaying the same input
// history from the same base state always reaches the same result.
type GameLogic interface {
    // Init resets the logic to its starting state for numPlayers players and
    // returns the initial GameStateBlob.
    Init(numPlayers int) wire.GameStateBlob

    // GenerateLocalInput samples whatever local input source the logic
    // reads (e.g. keyboard) and packs it into the wire's 4-byte InputBlob.
    GenerateLocalInput() wire.InputBlob

    // SimulateFrame advances state by exactly one tick given the events due
    // for delivery this frame (generated during the previous frame) and the
    // inputs for every player that frame (indexed by player ID). It returns
    // the resulting state plus any events generated during this frame,
    // which the caller schedules for delivery at frame+1, never immediately.
    SimulateFrame(state wire.GameStateBlob, events []wire.GameEventBlob, inputs map[uint16]wire.InputBlob) (next wire.GameStateBlob, generated []wire.GameEventBlob)

    // CompareStates reports whether two state blobs are equivalent for
    // desync-detection purposes (exact byte equality is the conservative
    // default; a real game may want to ignore cosmetic-only fields).
    CompareStates(a, b wire.GameStateBlob) bool

    // PrintState renders a short human-readable summary for logging/debug.
    PrintState(state wire.GameStateBlob) string

    // IsServer reports whether this instance is running in the
    // authoritative server role (some logic, like spawning, may only take
    // effect server-side).
    IsServer() bool
}
