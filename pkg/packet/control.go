package packet

import (
	"strconv"

	"github.com/tzrikka/cable/pkg/codec"
)

// Ping is a client liveness probe. The peer must answer with a [Pong].
type Ping struct {
	Props Properties
}

func (p *Ping) Type() Type {
	return TypePing
}

func (p *Ping) encode(b *codec.Buffer) error {
	return p.Props.encode(b)
}

func (p *Ping) decode(b *codec.Buffer) error {
	var err error
	p.Props, err = decodeProperties(b)
	return err
}

// Pong answers a [Ping].
type Pong struct {
	Props Properties
}

func (p *Pong) Type() Type {
	return TypePong
}

func (p *Pong) encode(b *codec.Buffer) error {
	return p.Props.encode(b)
}

func (p *Pong) decode(b *codec.Buffer) error {
	var err error
	p.Props, err = decodeProperties(b)
	return err
}

// CloseCode is the reason carried by a terminal [Close] frame.
type CloseCode uint8

const (
	CloseNormal CloseCode = iota
	CloseGoingAway
	CloseProtocolError
	CloseUnsupported
	CloseAuthFailure
	CloseServerError
)

// String returns the close code's name, or its number if it's unrecognized.
func (c CloseCode) String() string {
	switch c {
	case CloseNormal:
		return "normal"
	case CloseGoingAway:
		return "going away"
	case CloseProtocolError:
		return "protocol error"
	case CloseUnsupported:
		return "unsupported"
	case CloseAuthFailure:
		return "auth failure"
	case CloseServerError:
		return "server error"
	default:
		return strconv.Itoa(int(c))
	}
}

// Close is the terminal frame of a session. Unlike every
// other packet kind it carries no property map.
type Close struct {
	Code CloseCode
}

func (p *Close) Type() Type {
	return TypeClose
}

func (p *Close) encode(b *codec.Buffer) error {
	b.WriteUint8(uint8(p.Code))
	return nil
}

func (p *Close) decode(b *codec.Buffer) error {
	code, err := b.ReadUint8()
	if err != nil {
		return err
	}
	p.Code = CloseCode(code)
	return nil
}
