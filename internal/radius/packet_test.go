package radius_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/dantte-lp/goradius/internal/radius"
)

// buildPacket assembles a RADIUS datagram from code, id, vector and an
// attribute region.
func buildPacket(code radius.Code, id uint8, vector [16]byte, attrs []byte) []byte {
	buf := make([]byte, radius.HeaderSize+len(attrs))
	buf[0] = byte(code)
	buf[1] = id
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(buf)))
	copy(buf[4:20], vector[:])
	copy(buf[radius.HeaderSize:], attrs)
	return buf
}

func TestParsePacket(t *testing.T) {
	t.Parallel()

	attrs := []byte{
		0x01, 0x06, 'a', 'l', 'i', 'c', // User-Name "alic"
		0x05, 0x06, 0x00, 0x00, 0x00, 0x07, // NAS-Port 7
	}
	buf := buildPacket(radius.CodeAccessRequest, 42, testVector, attrs)

	pkt, err := radius.ParsePacket(buf)
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}

	if pkt.Code != radius.CodeAccessRequest {
		t.Errorf("code = %v, want Access-Request", pkt.Code)
	}
	if pkt.ID != 42 {
		t.Errorf("id = %d, want 42", pkt.ID)
	}
	if pkt.Authenticator != testVector {
		t.Errorf("authenticator = %x, want %x", pkt.Authenticator, testVector)
	}
	if len(pkt.Attrs) != len(attrs) {
		t.Errorf("attrs length = %d, want %d", len(pkt.Attrs), len(attrs))
	}
}

func TestParsePacketErrors(t *testing.T) {
	t.Parallel()

	valid := buildPacket(radius.CodeAccessRequest, 1, testVector, []byte{0x01, 0x03, 'x'})

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{
			name:    "shorter than header",
			mutate:  func(b []byte) []byte { return b[:10] },
			wantErr: radius.ErrPacketTooShort,
		},
		{
			name: "length below header size",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint16(b[2:4], 10)
				return b
			},
			wantErr: radius.ErrPacketLength,
		},
		{
			name: "length exceeds datagram",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint16(b[2:4], uint16(len(b)+4))
				return b
			},
			wantErr: radius.ErrPacketLength,
		},
		{
			name: "attribute length below minimum",
			mutate: func(b []byte) []byte {
				b[radius.HeaderSize+1] = 1
				return b
			},
			wantErr: radius.ErrAttrUnderflow,
		},
		{
			name: "attribute overflows region",
			mutate: func(b []byte) []byte {
				b[radius.HeaderSize+1] = 200
				return b
			},
			wantErr: radius.ErrAttrOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := append([]byte(nil), valid...)
			_, err := radius.ParsePacket(tt.mutate(buf))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParsePacket error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCodeString(t *testing.T) {
	t.Parallel()

	if got := radius.CodeAccessAccept.String(); got != "Access-Accept" {
		t.Errorf("String() = %q, want Access-Accept", got)
	}
	if got := radius.Code(200).String(); got != "Unknown(200)" {
		t.Errorf("String() = %q, want Unknown(200)", got)
	}
}
