package packet

import (
	"strconv"

	"github.com/tzrikka/cable/pkg/codec"
)

// Request invokes a named method on the peer. Like [Message],
// its body consumes the frame tail after the property map.
type Request struct {
	ID     uint16
	Method string
	Body   []byte
	Props  Properties
}

// NewRequest returns a request for the given method.
// The session engine assigns IDs.
func NewRequest(method string, body []byte) *Request {
	return &Request{Method: method, Body: body}
}

func (p *Request) Type() Type {
	return TypeRequest
}

// Response returns a reply to this request, correlated by ID.
func (p *Request) Response(code StatusCode, body []byte) *Response {
	return &Response{ID: p.ID, Code: code, Body: body}
}

func (p *Request) encode(b *codec.Buffer) error {
	b.WriteUint16(p.ID)
	b.WriteString(p.Method)
	if err := p.Props.encode(b); err != nil {
		return err
	}
	b.WriteRaw(p.Body)
	return nil
}

func (p *Request) decode(b *codec.Buffer) error {
	var err error
	if p.ID, err = b.ReadUint16(); err != nil {
		return err
	}
	if p.Method, err = b.ReadString(); err != nil {
		return err
	}
	if p.Props, err = decodeProperties(b); err != nil {
		return err
	}
	p.Body = b.ReadRemaining()
	return nil
}

// StatusCode is the result of a [Request], carried in its [Response].
type StatusCode uint8

const (
	StatusOK StatusCode = iota
	StatusBadRequest
	StatusUnauthorized
	StatusForbidden
	StatusNotFound
	StatusTimeout
	StatusServerError
	StatusUnavailable
)

// String returns the status code's name, or its number if it's unrecognized.
func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadRequest:
		return "bad request"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusForbidden:
		return "forbidden"
	case StatusNotFound:
		return "not found"
	case StatusTimeout:
		return "timeout"
	case StatusServerError:
		return "server error"
	case StatusUnavailable:
		return "unavailable"
	default:
		return strconv.Itoa(int(s))
	}
}

// Response answers a [Request], correlated by ID. Its body
// consumes the frame tail after the property map.
type Response struct {
	ID    uint16
	Code  StatusCode
	Body  []byte
	Props Properties
}

func (p *Response) Type() Type {
	return TypeResponse
}

func (p *Response) encode(b *codec.Buffer) error {
	b.WriteUint16(p.ID)
	b.WriteUint8(uint8(p.Code))
	if err := p.Props.encode(b); err != nil {
		return err
	}
	b.WriteRaw(p.Body)
	return nil
}

func (p *Response) decode(b *codec.Buffer) error {
	var err error
	if p.ID, err = b.ReadUint16(); err != nil {
		return err
	}
	code, err := b.ReadUint8()
	if err != nil {
		return err
	}
	p.Code = StatusCode(code)
	if p.Props, err = decodeProperties(b); err != nil {
		return err
	}
	p.Body = b.ReadRemaining()
	return nil
}
