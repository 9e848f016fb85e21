package packet

import (
	"math"
	"strconv"

	"github.com/tzrikka/cable/pkg/codec"
)

// Property is a well-known key in a packet's property map.
type Property uint8

const (
	PropConnID Property = iota + 1
	PropUserID
	PropChannel
	PropClientID
	PropPassword
)

// String returns the property's name, or its number if it's unrecognized.
func (p Property) String() string {
	switch p {
	case PropConnID:
		return "conn_id"
	case PropUserID:
		return "user_id"
	case PropChannel:
		return "channel"
	case PropClientID:
		return "client_id"
	case PropPassword:
		return "password"
	default:
		return strconv.Itoa(int(p))
	}
}

// Properties maps property keys to UTF-8 string values. Every packet
// kind except [Close] carries one; a nil map encodes as an empty one.
// Serialized with a one-byte entry count, so at most 255 entries.
type Properties map[Property]string

func (ps Properties) encode(b *codec.Buffer) error {
	if len(ps) > math.MaxUint8 {
		return ErrTooManyProperties
	}
	b.WriteUint8(uint8(len(ps)))
	for k, v := range ps {
		b.WriteUint8(uint8(k))
		b.WriteString(v)
	}
	return nil
}

func decodeProperties(b *codec.Buffer) (Properties, error) {
	m, err := b.ReadByteMap()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	ps := make(Properties, len(m))
	for k, v := range m {
		ps[Property(k)] = v
	}
	return ps, nil
}

// Identity authenticates a client to a Cable server.
// Any of its fields may be empty. Immutable once passed to Connect.
type Identity struct {
	UserID   string
	ClientID string
	Password string
}
