package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func roundTrip(t *testing.T, p Packet) Packet {
	t.Helper()

	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(p, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	return got
}

func TestConnectRoundTrip(t *testing.T) {
	p := NewConnect(Identity{UserID: "u", ClientID: "c", Password: "p"})
	p.Props = Properties{PropConnID: "x"}

	got := roundTrip(t, p).(*Connect)
	if got.Version != Version {
		t.Errorf("Version = %d, want %d", got.Version, Version)
	}
	if got.Identity.UserID != "u" || got.Identity.ClientID != "c" || got.Identity.Password != "p" {
		t.Errorf("Identity = %+v", got.Identity)
	}
	if got.Props[PropConnID] != "x" {
		t.Errorf("Props[PropConnID] = %q, want %q", got.Props[PropConnID], "x")
	}
}

func TestConnectEmptyIdentity(t *testing.T) {
	roundTrip(t, NewConnect(Identity{}))
}

func TestConnackRoundTrip(t *testing.T) {
	for _, code := range []ConnackCode{Accepted, Rejected, Duplicate} {
		roundTrip(t, &Connack{Code: code, Props: Properties{PropConnID: "123"}})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	p := &Message{ID: 456, QoS: QoS1, Dup: true, Kind: 60, Payload: []byte("QoS1")}
	roundTrip(t, p)

	// The flags byte is bit-exact: QoS 1, dup, kind 60.
	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if frame[2] != 0b11111100 {
		t.Errorf("flags byte = %#08b, want %#08b", frame[2], 0b11111100)
	}
}

func TestMessageKindTooLarge(t *testing.T) {
	_, err := Encode(&Message{Kind: 64})
	if !errors.Is(err, ErrMessageKindTooLarge) {
		t.Errorf("Encode() error = %v, want %v", err, ErrMessageKindTooLarge)
	}
}

func TestMessageLongFrame(t *testing.T) {
	p := &Message{ID: 65535, Payload: bytes.Repeat([]byte{'a'}, 10000)}

	frame, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// 10000 bytes of payload don't fit the 2-byte header's 10 length bits.
	if extra := frame[0] >> 2 & 0x03; extra == 0 {
		t.Error("expected a long-length header")
	}

	got := roundTrip(t, p).(*Message)
	if got.ID != 65535 {
		t.Errorf("ID = %d, want %d", got.ID, 65535)
	}
	if len(got.Payload) != 10000 {
		t.Errorf("payload length = %d, want %d", len(got.Payload), 10000)
	}
}

func TestMessageWithProps(t *testing.T) {
	roundTrip(t, &Message{
		ID:      7,
		QoS:     QoS1,
		Kind:    1,
		Payload: []byte{0x00, 0x01, 0x02},
		Props:   Properties{PropChannel: "news", PropUserID: "u1"},
	})
}

func TestMessackRoundTrip(t *testing.T) {
	roundTrip(t, &Messack{ID: 456})
	roundTrip(t, &Messack{ID: 0, Props: Properties{PropChannel: "news"}})
}

func TestMessageAck(t *testing.T) {
	ack := (&Message{ID: 42, QoS: QoS1}).Ack()
	if ack.ID != 42 {
		t.Errorf("Ack().ID = %d, want %d", ack.ID, 42)
	}
}

func TestRequestResponseRoundTrip(t *testing.T) {
	r := NewRequest("m", nil)
	r.ID = 1
	roundTrip(t, r)

	frame, err := Encode(r.Response(StatusOK, []byte("ok")))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	p, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	resp, ok := p.(*Response)
	if !ok {
		t.Fatalf("Decode() = %T, want *Response", p)
	}
	if resp.ID != 1 {
		t.Errorf("ID = %d, want 1", resp.ID)
	}
	if resp.Code != StatusOK {
		t.Errorf("Code = %v, want %v", resp.Code, StatusOK)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Body = %q, want %q", resp.Body, "ok")
	}
}

func TestRequestWithBodyAndProps(t *testing.T) {
	roundTrip(t, &Request{
		ID:     9,
		Method: "channels.join",
		Body:   []byte(`{"name":"news"}`),
		Props:  Properties{PropChannel: "news"},
	})
}

func TestResponseStatusRoundTrip(t *testing.T) {
	for _, code := range []StatusCode{StatusOK, StatusBadRequest, StatusNotFound, StatusServerError} {
		roundTrip(t, &Response{ID: 3, Code: code, Body: []byte("b")})
	}
}

func TestPingPongRoundTrip(t *testing.T) {
	roundTrip(t, &Ping{})
	roundTrip(t, &Pong{})
	roundTrip(t, &Ping{Props: Properties{PropConnID: "c1"}})
}

// A Close frame carries no property map: it
// encodes to exactly 3 bytes.
func TestCloseEncoding(t *testing.T) {
	frame, err := Encode(&Close{Code: CloseAuthFailure})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []byte{byte(TypeClose) << 4, 0x01, 0x04}
	if !bytes.Equal(frame, want) {
		t.Errorf("Encode() = %#v, want %#v", frame, want)
	}

	roundTrip(t, &Close{Code: CloseAuthFailure})
}

func TestTooManyProperties(t *testing.T) {
	props := Properties{}
	for i := range 256 {
		props[Property(i)] = "v"
	}

	if _, err := Encode(&Ping{Props: props}); !errors.Is(err, ErrTooManyProperties) {
		t.Errorf("Encode() error = %v, want %v", err, ErrTooManyProperties)
	}
}

func TestTruncatedPayloads(t *testing.T) {
	// A Connack frame whose payload ends mid-property-map.
	frame := []byte{byte(TypeConnack) << 4, 0x02, 0x00, 0x01}
	if _, err := Decode(frame); err == nil {
		t.Error("Decode() expected an error for a truncated property map")
	}
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{t: TypeConnect, want: "connect"},
		{t: TypeClose, want: "close"},
		{t: Type(12), want: "12"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("Type(%d).String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}
