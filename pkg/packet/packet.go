// Package packet defines the nine Cable packet kinds, their framing
// header, and the rules for encoding them to (and decoding them from)
// self-delimiting binary frames.
//
// Every frame on the wire is a header followed by a payload. The header's
// first byte carries the packet type in its high nibble; the remaining
// bits carry the payload length (see frame.go). Payload layouts are
// defined per kind in the other files of this package, on top of the
// primitives in [github.com/tzrikka/cable/pkg/codec].
package packet

import (
	"errors"
	"strconv"

	"github.com/tzrikka/cable/pkg/codec"
)

// Packet-level failures.
var (
	// ErrInvalidReadLen is returned when a frame is shorter than its
	// header's claimed payload, or than the header itself.
	ErrInvalidReadLen = errors.New("cable: invalid read length")
	// ErrUnknownPacketType is returned when a frame's type nibble
	// doesn't match any known packet kind.
	ErrUnknownPacketType = errors.New("cable: unknown packet type")
	// ErrPacketSizeTooLarge is returned when a payload exceeds [MaxLen].
	ErrPacketSizeTooLarge = errors.New("cable: packet size too large")
	// ErrMessageKindTooLarge is returned when a message kind
	// doesn't fit in its 6 flag bits.
	ErrMessageKindTooLarge = errors.New("cable: message kind too large")
	// ErrTooManyProperties is returned when a property map exceeds
	// its one-byte entry count.
	ErrTooManyProperties = errors.New("cable: too many properties")
)

// Type denotes the kind of a Cable packet,
// carried in the high nibble of a frame's first byte.
type Type uint8

const (
	TypeConnect Type = iota + 1
	TypeConnack
	TypeMessage
	TypeMessack
	TypeRequest
	TypeResponse
	TypePing
	TypePong
	TypeClose
)

// String returns the type's name, or its number if it's unrecognized.
func (t Type) String() string {
	switch t {
	case TypeConnect:
		return "connect"
	case TypeConnack:
		return "connack"
	case TypeMessage:
		return "message"
	case TypeMessack:
		return "messack"
	case TypeRequest:
		return "request"
	case TypeResponse:
		return "response"
	case TypePing:
		return "ping"
	case TypePong:
		return "pong"
	case TypeClose:
		return "close"
	default:
		return strconv.Itoa(int(t))
	}
}

// Packet is implemented by all nine Cable packet kinds.
type Packet interface {
	// Type reports the packet's wire type.
	Type() Type

	encode(b *codec.Buffer) error
	decode(b *codec.Buffer) error
}

// Encode serializes a packet into a single self-delimiting frame.
func Encode(p Packet) ([]byte, error) {
	body := codec.NewBuffer()
	if err := p.encode(body); err != nil {
		return nil, err
	}

	frame, err := encodeFrameHeader(p.Type(), len(body.Bytes()))
	if err != nil {
		return nil, err
	}
	return append(frame, body.Bytes()...), nil
}

// Decode parses a single frame into a typed packet value.
func Decode(frame []byte) (Packet, error) {
	t, payload, err := decodeFrameHeader(frame)
	if err != nil {
		return nil, err
	}

	var p Packet
	switch t {
	case TypeConnect:
		p = &Connect{}
	case TypeConnack:
		p = &Connack{}
	case TypeMessage:
		p = &Message{}
	case TypeMessack:
		p = &Messack{}
	case TypeRequest:
		p = &Request{}
	case TypeResponse:
		p = &Response{}
	case TypePing:
		p = &Ping{}
	case TypePong:
		p = &Pong{}
	case TypeClose:
		p = &Close{}
	default:
		return nil, ErrUnknownPacketType
	}

	if err := p.decode(codec.NewReader(payload)); err != nil {
		return nil, err
	}
	return p, nil
}
