package radius

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// -------------------------------------------------------------------------
// Packet Framing — RFC 2865 Section 3
// -------------------------------------------------------------------------

const (
	// HeaderSize is the fixed RADIUS header: code(1), id(1), length(2),
	// authenticator(16).
	HeaderSize = 20

	// MaxPacketSize is the RFC 2865 Section 3 packet length ceiling.
	MaxPacketSize = 4096

	// attrHeaderSize is the per-attribute header: type(1), length(1).
	attrHeaderSize = 2
)

// Code is the RADIUS packet code (RFC 2865 Section 3, RFC 2866, RFC 5176).
type Code uint8

const (
	// CodeAccessRequest is Access-Request (RFC 2865 Section 4.1).
	CodeAccessRequest Code = 1

	// CodeAccessAccept is Access-Accept (RFC 2865 Section 4.2).
	CodeAccessAccept Code = 2

	// CodeAccessReject is Access-Reject (RFC 2865 Section 4.3).
	CodeAccessReject Code = 3

	// CodeAccountingRequest is Accounting-Request (RFC 2866 Section 4.1).
	CodeAccountingRequest Code = 4

	// CodeAccountingResponse is Accounting-Response (RFC 2866 Section 4.2).
	CodeAccountingResponse Code = 5

	// CodeAccessChallenge is Access-Challenge (RFC 2865 Section 4.4).
	CodeAccessChallenge Code = 11

	// CodeDisconnectRequest is Disconnect-Request (RFC 5176 Section 2.1).
	CodeDisconnectRequest Code = 40

	// CodeDisconnectACK is Disconnect-ACK (RFC 5176 Section 2.1).
	CodeDisconnectACK Code = 41

	// CodeDisconnectNAK is Disconnect-NAK (RFC 5176 Section 2.1).
	CodeDisconnectNAK Code = 42

	// CodeCoARequest is CoA-Request (RFC 5176 Section 2.2).
	CodeCoARequest Code = 43

	// CodeCoAACK is CoA-ACK (RFC 5176 Section 2.2).
	CodeCoAACK Code = 44

	// CodeCoANAK is CoA-NAK (RFC 5176 Section 2.2).
	CodeCoANAK Code = 45
)

// codeNames maps packet codes to RFC names.
var codeNames = map[Code]string{
	CodeAccessRequest:      "Access-Request",
	CodeAccessAccept:       "Access-Accept",
	CodeAccessReject:       "Access-Reject",
	CodeAccountingRequest:  "Accounting-Request",
	CodeAccountingResponse: "Accounting-Response",
	CodeAccessChallenge:    "Access-Challenge",
	CodeDisconnectRequest:  "Disconnect-Request",
	CodeDisconnectACK:      "Disconnect-ACK",
	CodeDisconnectNAK:      "Disconnect-NAK",
	CodeCoARequest:         "CoA-Request",
	CodeCoAACK:             "CoA-ACK",
	CodeCoANAK:             "CoA-NAK",
}

// String returns the RFC name for the packet code.
func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", uint8(c))
}

// Packet is a parsed RADIUS packet header plus its attribute region.
type Packet struct {
	// Code is the packet code.
	Code Code

	// ID is the identifier matching requests to replies.
	ID uint8

	// Authenticator is the 16-byte request or response authenticator.
	Authenticator [VectorLen]byte

	// Attrs is the raw attribute region. It aliases the receive buffer;
	// decode pairs before the buffer is reused.
	Attrs []byte
}

// Sentinel errors for packet framing.
var (
	// ErrPacketTooShort indicates fewer than HeaderSize bytes.
	ErrPacketTooShort = errors.New("packet shorter than RADIUS header")

	// ErrPacketLength indicates a length field outside [20, 4096] or
	// exceeding the datagram.
	ErrPacketLength = errors.New("invalid packet length field")

	// ErrAttrOverflow indicates an attribute running past the end of
	// the packet.
	ErrAttrOverflow = errors.New("attribute overflows packet")

	// ErrAttrUnderflow indicates an attribute length below the 2-byte
	// minimum.
	ErrAttrUnderflow = errors.New("attribute length below minimum")
)

// ParsePacket validates the RADIUS framing of one datagram and returns
// the parsed header with the attribute region. The attribute region is
// walked once so the pair decoder can rely on intact type/length chains.
func ParsePacket(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("parse packet: %d bytes: %w", len(buf), ErrPacketTooShort)
	}

	length := int(binary.BigEndian.Uint16(buf[2:4]))
	if length < HeaderSize || length > MaxPacketSize {
		return nil, fmt.Errorf("parse packet: length field %d: %w", length, ErrPacketLength)
	}
	if length > len(buf) {
		return nil, fmt.Errorf("parse packet: length field %d exceeds datagram %d: %w",
			length, len(buf), ErrPacketLength)
	}

	pkt := &Packet{
		Code:  Code(buf[0]),
		ID:    buf[1],
		Attrs: buf[HeaderSize:length],
	}
	copy(pkt.Authenticator[:], buf[4:20])

	if err := attrsOK(pkt.Attrs); err != nil {
		return nil, fmt.Errorf("parse packet: %w", err)
	}

	return pkt, nil
}

// attrsOK verifies the top-level attribute chain: every attribute header
// fits, every declared length is at least the header size and within the
// region. Value contents are not inspected here.
func attrsOK(region []byte) error {
	for off := 0; off < len(region); {
		if off+attrHeaderSize > len(region) {
			return fmt.Errorf("attribute at offset %d: %w", off, ErrAttrOverflow)
		}

		alen := int(region[off+1])
		if alen < attrHeaderSize {
			return fmt.Errorf("attribute %d at offset %d: %w", region[off], off, ErrAttrUnderflow)
		}
		if off+alen > len(region) {
			return fmt.Errorf("attribute %d at offset %d: %w", region[off], off, ErrAttrOverflow)
		}

		off += alen
	}

	return nil
}
