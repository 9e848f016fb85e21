package packet

import (
	"github.com/tzrikka/cable/pkg/codec"
)

// QoS is a message's delivery guarantee.
type QoS uint8

const (
	// QoS0 is fire-and-forget: the message is
	// considered delivered once written.
	QoS0 QoS = iota
	// QoS1 is at-least-once: the message is retransmitted
	// (with the dup flag) until a matching [Messack] arrives
	// or the session's retransmission limit is reached.
	QoS1
)

// Message flag bits: QoS in bit 7, dup in bit 6,
// application kind in bits 0-5.
const (
	flagQoS = 0x80
	flagDup = 0x40
	// MaxKind is the largest application-defined message subtype.
	MaxKind = 0x3F
)

// Message carries an application payload. The payload is not
// length-prefixed: it consumes all bytes remaining in the frame
// after the property map, so the property map must come first.
type Message struct {
	ID      uint16
	QoS     QoS
	Dup     bool
	Kind    uint8
	Payload []byte
	Props   Properties
}

// NewMessage returns a QoS-0 message with the given kind and payload.
// The session engine assigns IDs; a QoS-0 message always has ID 0.
func NewMessage(kind uint8, payload []byte) *Message {
	return &Message{Kind: kind, Payload: payload}
}

func (p *Message) Type() Type {
	return TypeMessage
}

// Ack returns the acknowledgment for a QoS-1 message.
func (p *Message) Ack() *Messack {
	return &Messack{ID: p.ID}
}

func (p *Message) encode(b *codec.Buffer) error {
	if p.Kind > MaxKind {
		return ErrMessageKindTooLarge
	}

	flags := p.Kind
	if p.QoS == QoS1 {
		flags |= flagQoS
	}
	if p.Dup {
		flags |= flagDup
	}

	b.WriteUint8(flags)
	b.WriteUint16(p.ID)
	if err := p.Props.encode(b); err != nil {
		return err
	}
	b.WriteRaw(p.Payload)
	return nil
}

func (p *Message) decode(b *codec.Buffer) error {
	flags, err := b.ReadUint8()
	if err != nil {
		return err
	}
	if flags&flagQoS != 0 {
		p.QoS = QoS1
	}
	p.Dup = flags&flagDup != 0
	p.Kind = flags & MaxKind

	if p.ID, err = b.ReadUint16(); err != nil {
		return err
	}
	if p.Props, err = decodeProperties(b); err != nil {
		return err
	}
	p.Payload = b.ReadRemaining()
	return nil
}

// Messack acknowledges a QoS-1 [Message], correlated by ID.
type Messack struct {
	ID    uint16
	Props Properties
}

func (p *Messack) Type() Type {
	return TypeMessack
}

func (p *Messack) encode(b *codec.Buffer) error {
	b.WriteUint16(p.ID)
	return p.Props.encode(b)
}

func (p *Messack) decode(b *codec.Buffer) error {
	var err error
	if p.ID, err = b.ReadUint16(); err != nil {
		return err
	}
	p.Props, err = decodeProperties(b)
	return err
}
