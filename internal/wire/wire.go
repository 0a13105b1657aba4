// Package wire implements the binary packet codec for the netcode protocol:
// fixed packet tags, big-endian fields, no I/O of its own.
package wire

import (
    "encoding/binary"
    "errors"
    "fmt"
)

// ErrMalformed is returned when a buffer is too short or internally
// inconsistent for the packet type being decoded.
var ErrMalformed = errors.New("wire: malformed packet")

// ErrUnknownType is returned when the leading tag byte doesn't match any
// known PacketType.
var ErrUnknownType = errors.New("wire: unknown packet type")

// MaxStateBytes bounds a GameStateBlob's payload.
const MaxStateBytes = 4096

// MaxClientIDLen bounds a client identifier's length.
const MaxClientIDLen = 63

// PacketType tags every frame on the wire.
type PacketType byte

const (
    PacketInput            PacketType = 0x01
    PacketStateUpdate      PacketType = 0x02
    PacketInputUpdate      PacketType = 0x03
    PacketGameStart        PacketType = 0x04
    PacketInputAck         PacketType = 0x05 // reserved, not emitted
    PacketDeltaStateUpdate PacketType = 0x06
    PacketEventUpdate      PacketType = 0x07
    PacketInputDelay       PacketType = 0x08
    PacketHash             PacketType = 0x09 // optional desync check
    PacketClientHello      PacketType = 0x0A
    PacketServerAccept     PacketType = 0x0B
    PacketServerReject     PacketType = 0x0C
)

func (t PacketType) String() string {
    switch t {
    case PacketInput:
        return "INPUT"
    case PacketStateUpdate:
        return "STATE_UPDATE"
    case PacketInputUpdate:
        return "INPUT_UPDATE"
    case PacketGameStart:
        return "GAME_START"
    case PacketInputAck:
        return "INPUT_ACK"
    case PacketDeltaStateUpdate:
        return "DELTA_STATE_UPDATE"
    case PacketEventUpdate:
        return "EVENT_UPDATE"
    case PacketInputDelay:
        return "INPUT_DELAY"
    case PacketHash:
        return "HASH"
    case PacketClientHello:
        return "CLIENT_HELLO"
    case PacketServerAccept:
        return "SERVER_ACCEPT"
    case PacketServerReject:
        return "SERVER_REJECT"
    default:
        return fmt.Sprintf("UNKNOWN(0x%02X)", byte(t))
    }
}

// InputBlob is the fixed 4-byte per-frame input payload (a button bitmask
// plus three reserved bytes of analog/extra data).
type InputBlob [4]byte

// InputEntry pairs a player, a frame number, and the input submitted for
// it. PlayerID rides on the wire (rather than being inferred purely from
// the originating connection) so the server can validate it against the
// session that sent it.
type InputEntry struct {
    PlayerID uint16
    Frame    uint32
    Input    InputBlob
}

// GameStateBlob is an opaque, length-prefixed simulation state snapshot.
type GameStateBlob struct {
    Frame uint32
    Data  []byte
}

// GameEventBlob is an opaque, length-prefixed game event payload scheduled
// for delivery one frame after it was generated.
type GameEventBlob struct {
    Frame uint32
    Data  []byte
}

// DeltaStateBlob is an opaque, length-prefixed binary diff against a base frame.
type DeltaStateBlob struct {
    Frame     uint32
    BaseFrame uint32
    Data      []byte
}

func putU32(buf []byte, off int, v uint32) {
    binary.BigEndian.PutUint32(buf[off:off+4], v)
}

func getU32(buf []byte, off int) (uint32, error) {
    if off+4 > len(buf) {
        return 0, ErrMalformed
    }
    return binary.BigEndian.Uint32(buf[off : off+4]), nil
}

func putU16(buf []byte, off int, v uint16) {
    binary.BigEndian.PutUint16(buf[off:off+2], v)
}

func getU16(buf []byte, off int) (uint16, error) {
    if off+2 > len(buf) {
        return 0, ErrMalformed
    }
    return binary.BigEndian.Uint16(buf[off : off+2]), nil
}

// EncodeInput encodes an INPUT packet: tag, playerId, frame, 4-byte input.
func EncodeInput(e InputEntry) []byte {
    buf := make([]byte, 1+2+4+4)
    buf[0] = byte(PacketInput)
    putU16(buf, 1, e.PlayerID)
    putU32(buf, 3, e.Frame)
    copy(buf[7:11], e.Input[:])
    return buf
}

// DecodeInput decodes a full INPUT frame, including its leading tag byte.
func DecodeInput(buf []byte) (InputEntry, error) {
    if len(buf) < 11 || PacketType(buf[0]) != PacketInput {
        return InputEntry{}, ErrMalformed
    }
    playerID, err := getU16(buf, 1)
    if err != nil {
        return InputEntry{}, err
    }
    frame, err := getU32(buf, 3)
    if err != nil {
        return InputEntry{}, err
    }
    var e InputEntry
    e.PlayerID = playerID
    e.Frame = frame
    copy(e.Input[:], buf[7:11])
    return e, nil
}

// EncodeStateUpdate encodes a STATE_UPDATE packet: tag, frame, len, data.
func EncodeStateUpdate(s GameStateBlob) ([]byte, error) {
    if len(s.Data) > MaxStateBytes {
        return nil, fmt.Errorf("%w: state too large (%d > %d)", ErrMalformed, len(s.Data), MaxStateBytes)
    }
    buf := make([]byte, 1+4+2+len(s.Data))
    buf[0] = byte(PacketStateUpdate)
    putU32(buf, 1, s.Frame)
    putU16(buf, 5, uint16(len(s.Data)))
    copy(buf[7:], s.Data)
    return buf, nil
}

// DecodeStateUpdate decodes a STATE_UPDATE packet.
func DecodeStateUpdate(buf []byte) (GameStateBlob, error) {
    if len(buf) < 7 || PacketType(buf[0]) != PacketStateUpdate {
        return GameStateBlob{}, ErrMalformed
    }
    frame, err := getU32(buf, 1)
    if err != nil {
        return GameStateBlob{}, err
    }
    n, err := getU16(buf, 5)
    if err != nil {
        return GameStateBlob{}, err
    }
    if len(buf) < 7+int(n) {
        return GameStateBlob{}, ErrMalformed
    }
    data := make([]byte, n)
    copy(data, buf[7:7+int(n)])
    return GameStateBlob{Frame: frame, Data: data}, nil
}

// PlayerInput pairs a player ID with the input confirmed for it, used by
// the INPUT_UPDATE broadcast (as opposed to InputEntry, which pairs a
// frame with a single peer's submitted input on the INPUT packet).
type PlayerInput struct {
    PlayerID uint16
    Input    InputBlob
}

// EncodeInputUpdate encodes an INPUT_UPDATE packet broadcasting the
// confirmed inputs of every connected player for a frame: tag, frame,
// count, then count*(playerID+input) entries.
func EncodeInputUpdate(frame uint32, confirmed []PlayerInput) []byte {
    buf := make([]byte, 1+4+2+len(confirmed)*6)
    buf[0] = byte(PacketInputUpdate)
    putU32(buf, 1, frame)
    putU16(buf, 5, uint16(len(confirmed)))
    off := 7
    for _, e := range confirmed {
        putU16(buf, off, e.PlayerID)
        copy(buf[off+2:off+6], e.Input[:])
        off += 6
    }
    return buf
}

// DecodeInputUpdate decodes an INPUT_UPDATE packet.
func DecodeInputUpdate(buf []byte) (frame uint32, entries []PlayerInput, err error) {
    if len(buf) < 7 || PacketType(buf[0]) != PacketInputUpdate {
        return 0, nil, ErrMalformed
    }
    frame, err = getU32(buf, 1)
    if err != nil {
        return 0, nil, err
    }
    count, err := getU16(buf, 5)
    if err != nil {
        return 0, nil, err
    }
    off := 7
    entries = make([]PlayerInput, 0, count)
    for i := 0; i < int(count); i++ {
        if off+6 > len(buf) {
            return 0, nil, ErrMalformed
        }
        pid, _ := getU16(buf, off)
        var e PlayerInput
        e.PlayerID = pid
        copy(e.Input[:], buf[off+2:off+6])
        entries = append(entries, e)
        off += 6
    }
    return frame, entries, nil
}

// EncodeGameStart encodes a GAME_START packet: tag, start frame, player count.
func EncodeGameStart(startFrame uint32, playerCount uint16) []byte {
    buf := make([]byte, 1+4+2)
    buf[0] = byte(PacketGameStart)
    putU32(buf, 1, startFrame)
    putU16(buf, 5, playerCount)
    return buf
}

// DecodeGameStart decodes a GAME_START packet.
func DecodeGameStart(buf []byte) (startFrame uint32, playerCount uint16, err error) {
    if len(buf) < 7 || PacketType(buf[0]) != PacketGameStart {
        return 0, 0, ErrMalformed
    }
    startFrame, err = getU32(buf, 1)
    if err != nil {
        return 0, 0, err
    }
    playerCount, err = getU16(buf, 5)
    return startFrame, playerCount, err
}

// EncodeDeltaStateUpdate encodes a DELTA_STATE_UPDATE packet: tag, frame,
// base frame, len, data.
func EncodeDeltaStateUpdate(d DeltaStateBlob) ([]byte, error) {
    if len(d.Data) > MaxStateBytes {
        return nil, fmt.Errorf("%w: delta too large", ErrMalformed)
    }
    buf := make([]byte, 1+4+4+2+len(d.Data))
    buf[0] = byte(PacketDeltaStateUpdate)
    putU32(buf, 1, d.Frame)
    putU32(buf, 5, d.BaseFrame)
    putU16(buf, 9, uint16(len(d.Data)))
    copy(buf[11:], d.Data)
    return buf, nil
}

// DecodeDeltaStateUpdate decodes a DELTA_STATE_UPDATE packet.
func DecodeDeltaStateUpdate(buf []byte) (DeltaStateBlob, error) {
    if len(buf) < 11 || PacketType(buf[0]) != PacketDeltaStateUpdate {
        return DeltaStateBlob{}, ErrMalformed
    }
    frame, err := getU32(buf, 1)
    if err != nil {
        return DeltaStateBlob{}, err
    }
    base, err := getU32(buf, 5)
    if err != nil {
        return DeltaStateBlob{}, err
    }
    n, err := getU16(buf, 9)
    if err != nil {
        return DeltaStateBlob{}, err
    }
    if len(buf) < 11+int(n) {
        return DeltaStateBlob{}, ErrMalformed
    }
    data := make([]byte, n)
    copy(data, buf[11:11+int(n)])
    return DeltaStateBlob{Frame: frame, BaseFrame: base, Data: data}, nil
}

// EncodeEventUpdate encodes an EVENT_UPDATE packet: tag, delivery frame, len, data.
func EncodeEventUpdate(e GameEventBlob) ([]byte, error) {
    if len(e.Data) > MaxStateBytes {
        return nil, fmt.Errorf("%w: event too large", ErrMalformed)
    }
    buf := make([]byte, 1+4+2+len(e.Data))
    buf[0] = byte(PacketEventUpdate)
    putU32(buf, 1, e.Frame)
    putU16(buf, 5, uint16(len(e.Data)))
    copy(buf[7:], e.Data)
    return buf, nil
}

// DecodeEventUpdate decodes an EVENT_UPDATE packet.
func DecodeEventUpdate(buf []byte) (GameEventBlob, error) {
    if len(buf) < 7 || PacketType(buf[0]) != PacketEventUpdate {
        return GameEventBlob{}, ErrMalformed
    }
    frame, err := getU32(buf, 1)
    if err != nil {
        return GameEventBlob{}, err
    }
    n, err := getU16(buf, 5)
    if err != nil {
        return GameEventBlob{}, err
    }
    if len(buf) < 7+int(n) {
        return GameEventBlob{}, ErrMalformed
    }
    data := make([]byte, n)
    copy(data, buf[7:7+int(n)])
    return GameEventBlob{Frame: frame, Data: data}, nil
}

// EncodeInputDelay encodes an INPUT_DELAY packet: tag, delay frames (1 byte).
func EncodeInputDelay(delayFrames uint8) []byte {
    return []byte{byte(PacketInputDelay), delayFrames}
}

// DecodeInputDelay decodes an INPUT_DELAY packet.
func DecodeInputDelay(buf []byte) (uint8, error) {
    if len(buf) < 2 || PacketType(buf[0]) != PacketInputDelay {
        return 0, ErrMalformed
    }
    return buf[1], nil
}

// EncodeHash encodes a HASH packet used for optional desync detection: tag,
// frame, 8-byte hash.
func EncodeHash(frame uint32, hash uint64) []byte {
    buf := make([]byte, 1+4+8)
    buf[0] = byte(PacketHash)
    putU32(buf, 1, frame)
    binary.BigEndian.PutUint64(buf[5:13], hash)
    return buf
}

// DecodeHash decodes a HASH packet.
func DecodeHash(buf []byte) (frame uint32, hash uint64, err error) {
    if len(buf) < 13 || PacketType(buf[0]) != PacketHash {
        return 0, 0, ErrMalformed
    }
    frame, err = getU32(buf, 1)
    if err != nil {
        return 0, 0, err
    }
    hash = binary.BigEndian.Uint64(buf[5:13])
    return frame, hash, nil
}

// ClientHello is sent by a connecting client to identify itself.
type ClientHello struct {
    ClientID string
}

// EncodeClientHello encodes a CLIENT_HELLO packet: tag, id len (1 byte), id bytes.
func EncodeClientHello(h ClientHello) ([]byte, error) {
    if len(h.ClientID) == 0 || len(h.ClientID) > MaxClientIDLen {
        return nil, fmt.Errorf("%w: client id length %d out of range", ErrMalformed, len(h.ClientID))
    }
    buf := make([]byte, 1+1+len(h.ClientID))
    buf[0] = byte(PacketClientHello)
    buf[1] = byte(len(h.ClientID))
    copy(buf[2:], h.ClientID)
    return buf, nil
}

// DecodeClientHello decodes a CLIENT_HELLO packet.
func DecodeClientHello(buf []byte) (ClientHello, error) {
    if len(buf) < 2 || PacketType(buf[0]) != PacketClientHello {
        return ClientHello{}, ErrMalformed
    }
    n := int(buf[1])
    if len(buf) < 2+n {
        return ClientHello{}, ErrMalformed
    }
    return ClientHello{ClientID: string(buf[2 : 2+n])}, nil
}

// ServerAccept confirms a connection and tells the client where the
// simulation currently stands. GameStarted distinguishes a fresh join
// before the game has begun (the client must then wait for a GAME_START
// broadcast) from a reconnect or mid-game join (GAME_START already fired
// for the rest of the lobby and won't be resent).
type ServerAccept struct {
    AssignedPlayerID uint16
    CurrentFrame     uint32
    TickRate         uint16
    GameStarted      bool
}

// EncodeServerAccept encodes a SERVER_ACCEPT packet.
func EncodeServerAccept(a ServerAccept) []byte {
    buf := make([]byte, 1+2+4+2+1)
    buf[0] = byte(PacketServerAccept)
    putU16(buf, 1, a.AssignedPlayerID)
    putU32(buf, 3, a.CurrentFrame)
    putU16(buf, 7, a.TickRate)
    if a.GameStarted {
        buf[9] = 1
    }
    return buf
}

// DecodeServerAccept decodes a SERVER_ACCEPT packet.
func DecodeServerAccept(buf []byte) (ServerAccept, error) {
    if len(buf) < 10 || PacketType(buf[0]) != PacketServerAccept {
        return ServerAccept{}, ErrMalformed
    }
    id, err := getU16(buf, 1)
    if err != nil {
        return ServerAccept{}, err
    }
    frame, err := getU32(buf, 3)
    if err != nil {
        return ServerAccept{}, err
    }
    tick, err := getU16(buf, 7)
    if err != nil {
        return ServerAccept{}, err
    }
    return ServerAccept{AssignedPlayerID: id, CurrentFrame: frame, TickRate: tick, GameStarted: buf[9] != 0}, nil
}

// RejectReason enumerates why a server refused a connection.
type RejectReason byte

const (
    RejectServerFull RejectReason = iota + 1
    RejectInvalidClientID
    RejectGameInProgress
    RejectDuplicateClientID
)

// EncodeServerReject encodes a SERVER_REJECT packet: tag, reason.
func EncodeServerReject(reason RejectReason) []byte {
    return []byte{byte(PacketServerReject), byte(reason)}
}

// DecodeServerReject decodes a SERVER_REJECT packet.
func DecodeServerReject(buf []byte) (RejectReason, error) {
    if len(buf) < 2 || PacketType(buf[0]) != PacketServerReject {
        return 0, ErrMalformed
    }
    return RejectReason(buf[1]), nil
}

// PeekType returns the packet tag of an encoded frame without otherwise
// decoding it.
func PeekType(buf []byte) (PacketType, error) {
    if len(buf) < 1 {
        return 0, ErrMalformed
    }
    return PacketType(buf[0]), nil
}

// IsValidClientID enforces the reference implementation's identifier rule:
// non-empty, at most MaxClientIDLen bytes, and limited to [0-9A-Za-z_-].
func IsValidClientID(id string) bool {
    if len(id) == 0 || len(id) > MaxClientIDLen {
        return false
    }
    for _, r := range id {
        switch {
        case r >= '0' && r <= '9':
        case r >= 'A' && r <= 'Z':
        case r >= 'a' && r <= 'z':
        case r == '_' || r == '-':
        default:
            return false
        }
    }
    return true
}
