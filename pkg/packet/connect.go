package packet

import (
	"strconv"

	"github.com/tzrikka/cable/pkg/codec"
)

// Version is the Cable protocol version sent in every [Connect] packet.
const Version = 1

// Connect initiates a session handshake. It is the first
// frame a client writes after the transport opens.
type Connect struct {
	Version  uint8
	Identity Identity
	Props    Properties
}

// NewConnect returns a handshake packet for the
// given identity, at the current protocol version.
func NewConnect(id Identity) *Connect {
	return &Connect{Version: Version, Identity: id}
}

func (p *Connect) Type() Type {
	return TypeConnect
}

func (p *Connect) encode(b *codec.Buffer) error {
	b.WriteUint8(p.Version)
	b.WriteString(p.Identity.UserID)
	b.WriteString(p.Identity.ClientID)
	b.WriteString(p.Identity.Password)
	return p.Props.encode(b)
}

func (p *Connect) decode(b *codec.Buffer) error {
	var err error
	if p.Version, err = b.ReadUint8(); err != nil {
		return err
	}
	if p.Identity.UserID, err = b.ReadString(); err != nil {
		return err
	}
	if p.Identity.ClientID, err = b.ReadString(); err != nil {
		return err
	}
	if p.Identity.Password, err = b.ReadString(); err != nil {
		return err
	}
	p.Props, err = decodeProperties(b)
	return err
}

// ConnackCode is a server's verdict on a [Connect] handshake.
type ConnackCode uint8

const (
	// Accepted means the session is established.
	Accepted ConnackCode = iota
	// Rejected means the server refused the identity.
	Rejected
	// Duplicate means another live session holds the same client ID.
	Duplicate
)

// String returns the code's name, or its number if it's unrecognized.
func (c ConnackCode) String() string {
	switch c {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Duplicate:
		return "duplicate"
	default:
		return strconv.Itoa(int(c))
	}
}

// Connack is the server's reply to a [Connect] handshake.
type Connack struct {
	Code  ConnackCode
	Props Properties
}

func (p *Connack) Type() Type {
	return TypeConnack
}

func (p *Connack) encode(b *codec.Buffer) error {
	b.WriteUint8(uint8(p.Code))
	return p.Props.encode(b)
}

func (p *Connack) decode(b *codec.Buffer) error {
	code, err := b.ReadUint8()
	if err != nil {
		return err
	}
	p.Code = ConnackCode(code)
	p.Props, err = decodeProperties(b)
	return err
}
