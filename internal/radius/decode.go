package radius

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/dantte-lp/goradius/internal/dict"
)

// -------------------------------------------------------------------------
// Decoder Errors
// -------------------------------------------------------------------------
//
// Shape errors (bad widths, bad prefixes, unknown children) never surface:
// the offending attribute is demoted to a raw octets pair. The sentinels
// below are the errors that do surface and abort the packet.

var (
	// ErrInsufficientData indicates a top-level attribute header that
	// does not fit the remaining packet bytes.
	ErrInsufficientData = errors.New("insufficient data for attribute")

	// ErrInvalidArgument indicates a call that violates the decoder's
	// own contract (nil parent, window shorter than the attribute).
	ErrInvalidArgument = errors.New("invalid decoder arguments")

	// ErrInternal indicates an internal sanity check failure, e.g. a
	// VSA container whose descriptor is not typed VSA. The caller
	// should drop the packet.
	ErrInternal = errors.New("internal sanity check failed")
)

// maxAttrLen is the largest value a one-byte attribute length can carry
// after the two header bytes. Only reassembled buffers may be longer.
const maxAttrLen = 253

// reassemblyCeiling bounds reassembled fragment buffers.
const reassemblyCeiling = 128 * 1024

// -------------------------------------------------------------------------
// Decoder
// -------------------------------------------------------------------------

// Decoder decodes the attribute region of one RADIUS packet. It is
// single-threaded per packet; the dictionary it references may be shared.
type Decoder struct {
	// Dict resolves attribute and vendor descriptors and registers
	// unknowns discovered on the wire.
	Dict *dict.Dictionary

	// Secret is the shared secret for the client. When empty, encrypted
	// attributes are left as raw bytes.
	Secret []byte

	// Vector is the authenticator of the packet being decoded.
	Vector [VectorLen]byte

	// Original is the authenticator of the original request when
	// decoding a reply, or nil. Tunnel-Password and Ascend-Send-Secret
	// in replies are keyed from it.
	Original *[VectorLen]byte

	// Stats, when non-nil, accumulates decode counters for the host's
	// telemetry.
	Stats *DecodeStats
}

// DecodeStats counts decoder events the output alone cannot distinguish.
type DecodeStats struct {
	// RawFallbacks counts attributes demoted to raw octets.
	RawFallbacks uint64

	// DecryptFailures counts encrypted values kept as octets because
	// decryption failed (bad declared length, missing request vector).
	DecryptFailures uint64
}

// DecodePairs decodes a whole attribute region into an ordered pair list.
func (d *Decoder) DecodePairs(region []byte) (*Pair, error) {
	list := newPairList()

	for len(region) > 0 {
		pair, consumed, err := d.DecodePair(d.Dict.Root(), region)
		if err != nil {
			return nil, err
		}
		list.append(pair)
		region = region[consumed:]
	}

	return list.head, nil
}

// DecodePair decodes one top-level attribute starting at a 2-byte RADIUS
// header. data extends to the end of the packet so that concatenation and
// fragment reassembly can see successor attributes. Returns the decoded
// pair (nil for a legal zero-length attribute) and the total wire bytes
// consumed, which spans multiple attributes for concat and fragmented
// forms.
func (d *Decoder) DecodePair(parent *dict.Attribute, data []byte) (*Pair, int, error) {
	if len(data) < 2 || data[1] < 2 || int(data[1]) > len(data) {
		return nil, 0, fmt.Errorf("decode pair: %w", ErrInsufficientData)
	}

	da := d.Dict.ChildByNum(parent, uint32(data[0]))
	if da == nil {
		da = d.Dict.Unknown(parent, 0, uint32(data[0]))
	}

	// Concatenable attributes consume the whole run of same-typed
	// neighbours (RFC 2865 Section 2.3).
	if da.Flags.Concat {
		return d.decodeConcat(da, data)
	}

	// Pass the window through to the value decoder: extended and WiMAX
	// attributes with the continuation bit set span successors.
	pair, consumed, err := d.decodeValue(da, data[2:], int(data[1])-2)
	if err != nil {
		return nil, 0, err
	}

	return pair, 2 + consumed, nil
}

// -------------------------------------------------------------------------
// decodeValue — structural dispatcher
// -------------------------------------------------------------------------

// decodeValue decodes one attribute value. data starts at the value (the
// 2-byte header is already stripped) and extends to the end of the
// enclosing packet window; attrLen is this attribute's own value length.
//
// On success the consumed count equals attrLen, or more when fragments
// from successor attributes were absorbed.
func (d *Decoder) decodeValue(parent *dict.Attribute, data []byte, attrLen int) (*Pair, int, error) {
	if parent == nil || attrLen > len(data) ||
		(attrLen > maxAttrLen && attrLen != len(data)) ||
		attrLen > reassemblyCeiling {
		return nil, 0, fmt.Errorf("decode value: %w", ErrInvalidArgument)
	}

	tag := TagNone
	datalen := attrLen
	val := data[:attrLen]
	var scratch [256]byte

	// Zero-length values produce no pair. The sole exception is
	// Chargeable-User-Identity, which the WiMAX forum allows to be
	// empty against the RADIUS grammar.
	if attrLen == 0 {
		if !(parent.Vendor == 0 && parent.Number == dict.AttrChargeableUserIdentity) {
			return nil, 0, nil
		}
		if parent.Type != dict.TypeOctets {
			return nil, 0, fmt.Errorf("zero-length %s: %w", parent.Name, ErrInternal)
		}
		return &Pair{Attr: parent, Value: Value{Kind: dict.TypeOctets, Bytes: []byte{}}}, 0, nil
	}

	// Tagged attributes (RFC 2868 Section 3.5): consume the tag byte if
	// there is room and the byte is in tag range — or unconditionally
	// for Tunnel-Password, whose salt's high bit would otherwise make
	// the tag test misfire.
	if parent.Flags.HasTag && datalen > 1 &&
		(data[0] < 0x20 || parent.Flags.Encrypt == dict.EncryptTunnelPassword) {
		// Only short attributes can carry tags.
		if datalen >= len(scratch) {
			return nil, 0, fmt.Errorf("tagged %s too long: %w", parent.Name, ErrInvalidArgument)
		}

		switch parent.Type {
		case dict.TypeString:
			copy(scratch[:], data[1:attrLen])
			tag = data[0]
			datalen--
			val = scratch[:datalen]

		case dict.TypeInteger:
			copy(scratch[:], data[:attrLen])
			tag = scratch[0]
			scratch[0] = 0
			val = scratch[:datalen]

		default:
			// Only string and integer attributes may be tagged.
			return nil, 0, fmt.Errorf("tagged %s of type %s: %w",
				parent.Name, parent.Type, ErrInternal)
		}
	}

	// Decrypt before shape dispatch. Extended attributes cannot be
	// encrypted: the flag combination is a dictionary bug.
	if len(d.Secret) > 0 && parent.Flags.Encrypt != dict.EncryptNone {
		switch parent.Type {
		case dict.TypeExtended, dict.TypeLongExtended, dict.TypeEVS:
			return nil, 0, fmt.Errorf("encrypted extended attribute %s: %w",
				parent.Name, ErrInternal)
		}
		if attrLen > maxAttrLen {
			return nil, 0, fmt.Errorf("encrypted %s spans %d bytes: %w",
				parent.Name, attrLen, ErrInvalidArgument)
		}

		// Work on a scratch copy: the input window is read-only.
		if &val[0] == &data[0] {
			copy(scratch[:], data[:attrLen])
			val = scratch[:datalen]
		}

		switch parent.Flags.Encrypt {
		case dict.EncryptUserPassword:
			vector := d.Vector
			if d.Original != nil {
				vector = *d.Original
			}
			plain := DecryptUserPassword(val, d.Secret, vector)

			// Fixed-length hints (MS-CHAP-MPPE-Keys) supersede
			// NUL stripping: the value is binary.
			if parent.Flags.Length != 0 {
				if datalen > int(parent.Flags.Length) {
					datalen = int(parent.Flags.Length)
				}
			} else {
				datalen = plain
			}
			val = val[:datalen]

		case dict.EncryptTunnelPassword:
			var vector [VectorLen]byte
			if d.Original != nil {
				vector = *d.Original
			}
			plain, err := DecryptTunnelPassword(val, d.Secret, vector)
			if err != nil {
				if d.Stats != nil {
					d.Stats.DecryptFailures++
				}
				return d.raw(parent, val[:datalen]), attrLen, nil
			}
			datalen = plain
			val = val[:datalen]

		case dict.EncryptAscendSecret:
			if d.Original == nil {
				if d.Stats != nil {
					d.Stats.DecryptFailures++
				}
				return d.raw(parent, val[:datalen]), attrLen, nil
			}
			digest := MakeSecret(*d.Original, d.Secret, val)
			n := copy(scratch[:], digest[:])
			// The result is a NUL-terminated string by convention.
			datalen = bytes.IndexByte(scratch[:n], 0)
			if datalen < 0 {
				datalen = n
			}
			val = scratch[:datalen]
		}
	}

	// Shape dispatch. Leaf widths are verified here so the materialiser
	// can assume well-formed input; any failure demotes to raw.
	switch parent.Type {
	case dict.TypeString, dict.TypeOctets:
		// Any length is valid.

	case dict.TypeABinary:
		if datalen > AscendFilterSize {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeInteger, dict.TypeIPv4Addr, dict.TypeDate, dict.TypeSigned:
		if datalen != 4 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeInteger64, dict.TypeIFID:
		if datalen != 8 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeIPv6Addr:
		if datalen != 16 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeIPv6Prefix:
		if datalen < 2 || datalen > 18 || val[1] > 128 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeByte:
		if datalen != 1 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeShort:
		if datalen != 2 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeEthernet:
		if datalen != 6 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeIPv4Prefix:
		if datalen != 6 || val[1]&0x3f > 32 {
			return d.raw(parent, val), attrLen, nil
		}

	case dict.TypeComboIP:
		// Rewrite the descriptor to the concrete address type now
		// that the width is known.
		var concrete dict.AttrType
		switch datalen {
		case 4:
			concrete = dict.TypeIPv4Addr
		case 16:
			concrete = dict.TypeIPv6Addr
		default:
			return d.raw(parent, val), attrLen, nil
		}
		child := d.Dict.AttrByType(parent, concrete)
		if child == nil {
			return d.raw(parent, val), attrLen, nil
		}
		parent = child

	case dict.TypeExtended:
		return d.decodeExtended(parent, data, attrLen)

	case dict.TypeLongExtended:
		return d.decodeLongExtended(parent, data, attrLen)

	case dict.TypeEVS:
		return d.decodeEVS(parent, data, attrLen)

	case dict.TypeTLV:
		pair, err := d.decodeTLV(parent, data[:attrLen])
		if err != nil {
			return d.raw(parent, val), attrLen, nil
		}
		return pair, attrLen, nil

	case dict.TypeVSA:
		pair, consumed, err := d.decodeVSA(parent, data, attrLen)
		if err != nil {
			if errors.Is(err, ErrInternal) {
				return nil, 0, err
			}
			return d.raw(parent, val), attrLen, nil
		}
		return pair, consumed, nil

	default:
		return d.raw(parent, val), attrLen, nil
	}

	pair, err := materialize(parent, tag, val)
	if err != nil {
		return nil, 0, err
	}

	return pair, attrLen, nil
}

// raw demotes a malformed attribute to an octets pair bound to the
// registered unknown descriptor for its (parent, vendor, number). This is
// the convergence point for every failed shape, width and child lookup:
// no malformed attribute is ever fatal to the packet. The tag, if any,
// is discarded. The caller reports its own attrLen as consumed: the raw
// value may be shorter when a tag byte was stripped before the failure.
func (d *Decoder) raw(attr *dict.Attribute, val []byte) *Pair {
	if d.Stats != nil {
		d.Stats.RawFallbacks++
	}
	unknown := d.Dict.Unknown(attr.Parent, attr.Vendor, attr.Number)

	return &Pair{
		Attr:  unknown,
		Value: Value{Kind: dict.TypeOctets, Bytes: append([]byte(nil), val...)},
	}
}

// -------------------------------------------------------------------------
// Extended Attributes — RFC 6929
// -------------------------------------------------------------------------

// decodeExtended decodes an RFC 6929 Section 2.1 extended attribute: one
// extended-type byte selecting the child, then the value. Only the
// current attribute is decoded; trailing window bytes are ignored.
func (d *Decoder) decodeExtended(parent *dict.Attribute, data []byte, attrLen int) (*Pair, int, error) {
	if attrLen < 2 {
		return d.raw(parent, data[:attrLen]), attrLen, nil
	}

	child := d.Dict.ChildByNum(parent, uint32(data[0]))
	if child == nil {
		return d.raw(parent, data[:attrLen]), attrLen, nil
	}

	pair, consumed, err := d.decodeValue(child, data[1:attrLen], attrLen-1)
	if err != nil {
		return d.raw(parent, data[:attrLen]), attrLen, nil
	}

	return pair, 1 + consumed, nil
}

// decodeLongExtended decodes an RFC 6929 Section 2.2 long-extended
// attribute: extended-type byte, flags byte, then the value. A set top
// bit in the flags byte chains the value into successor attributes of the
// same type and extended-type.
func (d *Decoder) decodeLongExtended(parent *dict.Attribute, data []byte, attrLen int) (*Pair, int, error) {
	if attrLen < 3 {
		return d.raw(parent, data[:attrLen]), attrLen, nil
	}

	child := d.Dict.ChildByNum(parent, uint32(data[0]))
	if child == nil {
		// Register an unknown child so the payload still decodes as
		// octets under a stable descriptor. A long-extended VSA gets
		// its vendor parsed for a more useful registration.
		if data[0] != dict.AttrVendorSpecific || attrLen < 3+4+1 {
			child = d.Dict.Unknown(parent, 0, uint32(data[0]))
		} else {
			vendor := binary.BigEndian.Uint32(data[2:6])
			if vendor == 0 {
				return d.raw(parent, data[:attrLen]), attrLen, nil
			}
			child = d.Dict.Unknown(parent, vendor, uint32(data[6]))
		}
	}

	// No continuation: decode the single-fragment value directly.
	if data[1]&0x80 == 0 {
		pair, consumed, err := d.decodeValue(child, data[2:attrLen], attrLen-2)
		if err != nil {
			return d.raw(parent, data[:attrLen]), attrLen, nil
		}
		return pair, 2 + consumed, nil
	}

	return d.reassembleLongExtended(parent, child, data, attrLen)
}

// reassembleLongExtended concatenates the payloads of contiguous
// long-extended fragments and decodes the joined buffer as the child's
// value. The chain ends at the first fragment with a clear "more" bit, at
// end of window, or at any fragment whose header disagrees (wrong type,
// wrong extended-type, short, or overflowing).
//
// Returns the total wire consumption: from the first fragment's value
// start through the end of the last accepted fragment.
func (d *Decoder) reassembleLongExtended(parent, child *dict.Attribute, data []byte, attrLen int) (*Pair, int, error) {
	attrType := byte(parent.Number)
	extType := data[0]

	// First pass: find the end of the contiguous fragment chain and the
	// reassembled size. Successor fragments carry the full 2-byte
	// RADIUS header plus extended-type and flags, so their payload is
	// length - 4.
	fragLen := attrLen - 2
	end := len(data)
	off := attrLen
	lastFrag := false

	for off < end {
		frag := data[off:]
		if lastFrag ||
			len(frag) < 4 || // header truncated
			frag[0] != attrType ||
			frag[1] < 4 || // too short for long-extended
			frag[2] != extType ||
			off+int(frag[1]) > end { // overflow
			end = off
			break
		}

		lastFrag = frag[3]&0x80 == 0

		fragLen += int(frag[1]) - 4
		off += int(frag[1])
	}
	end = off

	// Second pass: concatenate payloads in wire order.
	buf := make([]byte, 0, fragLen)
	buf = append(buf, data[2:attrLen]...)
	for o := attrLen; o < end; {
		flen := int(data[o+1])
		buf = append(buf, data[o+4:o+flen]...)
		o += flen
	}

	pair, _, err := d.decodeValue(child, buf, len(buf))
	if err != nil {
		return nil, 0, err
	}

	return pair, end, nil
}

// decodeEVS decodes an RFC 6929 Section 2.4 Extended-Vendor-Specific
// value: a 4-byte vendor ID (high byte zero), a vendor-type byte, then
// the child's value.
func (d *Decoder) decodeEVS(parent *dict.Attribute, data []byte, attrLen int) (*Pair, int, error) {
	if attrLen < 6 {
		return d.raw(parent, data[:attrLen]), attrLen, nil
	}
	if data[0] != 0 {
		// 32-bit vendor IDs do not exist: RFC 6929 Section 2.4.
		return d.raw(parent, data[:attrLen]), attrLen, nil
	}

	vendor := binary.BigEndian.Uint32(data[0:4])

	vendorRoot := d.Dict.VendorRoot(parent, vendor)
	if vendorRoot == nil {
		// Unknown vendor: register the attribute and keep its payload
		// as octets under the stable unknown descriptor.
		unknown := d.Dict.Unknown(parent, vendor, uint32(data[4]))
		pair, err := materialize(unknown, TagNone, data[5:attrLen])
		if err != nil {
			return nil, 0, err
		}
		return pair, attrLen, nil
	}

	child := d.Dict.ChildByNum(vendorRoot, uint32(data[4]))
	if child == nil {
		// Vendor known, child not: same octets treatment.
		unknown := d.Dict.Unknown(vendorRoot, vendor, uint32(data[4]))
		pair, err := materialize(unknown, TagNone, data[5:attrLen])
		if err != nil {
			return nil, 0, err
		}
		return pair, attrLen, nil
	}

	pair, consumed, err := d.decodeValue(child, data[5:attrLen], attrLen-5)
	if err != nil {
		return d.raw(parent, data[:attrLen]), attrLen, nil
	}

	return pair, 5 + consumed, nil
}

// -------------------------------------------------------------------------
// TLV Containers
// -------------------------------------------------------------------------

// decodeTLV decodes a sequence of 1-byte-type, 1-byte-length
// sub-attributes into a sibling pair group. Children absent from the
// dictionary are registered as unknowns and decoded as octets.
func (d *Decoder) decodeTLV(parent *dict.Attribute, data []byte) (*Pair, error) {
	if len(data) < 3 { // type, length, at least one value byte
		return nil, fmt.Errorf("tlv of %d bytes: %w", len(data), ErrBadAttrLength)
	}
	if err := TLVShapeOK(data, 1, 1); err != nil {
		return nil, err
	}

	list := newPairList()

	for len(data) > 0 {
		child := d.Dict.ChildByNum(parent, uint32(data[0]))
		if child == nil {
			child = d.Dict.Unknown(parent, parent.Vendor, uint32(data[0]))
		}

		sublen := int(data[1])
		pair, _, err := d.decodeValue(child, data[2:sublen], sublen-2)
		if err != nil {
			return nil, err
		}
		list.append(pair)

		data = data[sublen:]
	}

	return list.head, nil
}

// -------------------------------------------------------------------------
// Vendor-Specific Attributes — RFC 2865 Section 5.26
// -------------------------------------------------------------------------

// decodeVSA decodes a Vendor-Specific value: a 4-byte vendor ID followed
// by sub-attributes in the vendor's own header format. Unknown vendors
// are assumed to use the RFC 1-byte-type, 1-byte-length format and are
// registered. WiMAX vendors delegate to the continuation reassembler.
func (d *Decoder) decodeVSA(parent *dict.Attribute, data []byte, attrLen int) (*Pair, int, error) {
	if parent.Type != dict.TypeVSA {
		return nil, 0, fmt.Errorf("VSA container %s typed %s: %w",
			parent.Name, parent.Type, ErrInternal)
	}

	if attrLen > len(data) || attrLen < 5 {
		return nil, 0, fmt.Errorf("vsa of %d bytes: %w", attrLen, ErrBadAttrLength)
	}
	if data[0] != 0 {
		// Vendor IDs are 24-bit: RFC 2865 Section 5.26.
		return nil, 0, fmt.Errorf("vsa vendor id: %w", ErrAttrTooWide)
	}

	vendor := binary.BigEndian.Uint32(data[0:4])

	var (
		v          *dict.Vendor
		vendorRoot = d.Dict.VendorRoot(parent, vendor)
	)
	if vendorRoot == nil {
		// Unknown vendor. Vendor attributes still have a standard
		// format, so validate and decode anyway.
		if err := TLVShapeOK(data[4:attrLen], 1, 1); err != nil {
			return nil, 0, err
		}
		v = d.Dict.UnknownVendor(vendor)
		vendorRoot = d.Dict.UnknownVendorRoot(parent, vendor)
	} else {
		v = d.Dict.VendorByNum(vendor)
		if v == nil {
			return nil, 0, fmt.Errorf("vendor %d has root but no descriptor: %w",
				vendor, ErrInternal)
		}

		if v.Continuation {
			return d.decodeWiMAX(v, vendorRoot, data, attrLen)
		}

		if err := TLVShapeOK(data[4:attrLen], int(v.TypeWidth), int(v.LengthWidth)); err != nil {
			return nil, 0, err
		}
	}

	// A single Vendor-Specific may hold several sub-attributes.
	list := newPairList()
	rest := data[4:attrLen]
	total := 4

	for len(rest) > 0 {
		pair, consumed, err := d.decodeSubVSA(v, vendorRoot, rest)
		if err != nil {
			return nil, 0, err
		}

		// Zero-length sub-VSAs are legal and produce no pair.
		list.append(pair)

		rest = rest[consumed:]
		total += consumed
	}

	return list.head, total, nil
}

// decodeSubVSA decodes one vendor sub-attribute using the vendor's header
// widths. Shape has been validated by the caller.
func (d *Decoder) decodeSubVSA(v *dict.Vendor, vendorRoot *dict.Attribute, data []byte) (*Pair, int, error) {
	if vendorRoot.Type != dict.TypeVendor {
		return nil, 0, fmt.Errorf("vendor root %s typed %s: %w",
			vendorRoot.Name, vendorRoot.Type, ErrInternal)
	}

	header := v.HeaderSize()
	if len(data) < header {
		return nil, 0, fmt.Errorf("sub-vsa header: %w", ErrHeaderOverflow)
	}

	var number uint32
	switch v.TypeWidth {
	case 4:
		// High byte is zero, verified by TLVShapeOK.
		number = uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	case 2:
		number = uint32(data[0])<<8 | uint32(data[1])
	case 1:
		number = uint32(data[0])
	default:
		return nil, 0, fmt.Errorf("vendor type width %d: %w", v.TypeWidth, ErrInternal)
	}

	var attrLen int
	switch v.LengthWidth {
	case 2:
		// data[TypeWidth] is zero, verified by TLVShapeOK.
		attrLen = int(data[int(v.TypeWidth)+1])
	case 1:
		attrLen = int(data[v.TypeWidth])
	case 0:
		attrLen = len(data)
	default:
		return nil, 0, fmt.Errorf("vendor length width %d: %w", v.LengthWidth, ErrInternal)
	}

	child := d.Dict.ChildByNum(vendorRoot, number)
	if child == nil {
		child = d.Dict.Unknown(vendorRoot, v.ID, number)
	}

	pair, _, err := d.decodeValue(child, data[header:attrLen], attrLen-header)
	if err != nil {
		return nil, 0, err
	}

	return pair, attrLen, nil
}

// -------------------------------------------------------------------------
// WiMAX Continuation Reassembly
// -------------------------------------------------------------------------

// decodeWiMAX decodes a WiMAX sub-VSA, whose header carries a
// continuation byte after the length: vendor-id(4), attr(1), len(1),
// continuation(1), payload. A set top bit chains the payload into
// successor Vendor-Specific attributes carrying the same vendor ID and
// WiMAX attribute number.
func (d *Decoder) decodeWiMAX(v *dict.Vendor, vendorRoot *dict.Attribute, data []byte, attrLen int) (*Pair, int, error) {
	// vendor-id(4) + attr(1) + len(1) + continuation(1) + >=1 payload.
	if attrLen < 8 {
		return nil, 0, fmt.Errorf("wimax vsa of %d bytes: %w", attrLen, ErrBadAttrLength)
	}

	// The single sub-attribute must fill the enclosing VSA exactly.
	if int(data[5])+4 != attrLen {
		return nil, 0, fmt.Errorf("wimax length %d in vsa %d: %w", data[5], attrLen, ErrBadAttrLength)
	}

	child := d.Dict.ChildByNum(vendorRoot, uint32(data[4]))
	if child == nil {
		child = d.Dict.Unknown(vendorRoot, v.ID, uint32(data[4]))
	}

	// No continuation: single-fragment decode.
	if data[6]&0x80 == 0 {
		pair, consumed, err := d.decodeValue(child, data[7:attrLen], int(data[5])-3)
		if err != nil {
			return nil, 0, err
		}
		return pair, 7 + consumed, nil
	}

	// First pass: walk successor Vendor-Specific attributes that
	// continue this value. Each carries the RADIUS header (2), the
	// vendor ID (4) and the WiMAX sub-header (3) before its payload.
	fragLen := int(data[5]) - 3
	end := len(data)
	off := attrLen
	lastFrag := false

	for off < end {
		frag := data[off:]
		if lastFrag ||
			len(frag) < 9 || // header truncated
			frag[0] != dict.AttrVendorSpecific ||
			frag[1] < 9 || // too short for wimax
			off+int(frag[1]) > end || // overflow
			!bytes.Equal(frag[2:6], data[0:4]) || // different vendor
			frag[6] != data[4] || // different wimax attr
			int(frag[7])+6 != int(frag[1]) { // doesn't fill the attr
			break
		}

		lastFrag = frag[8]&0x80 == 0

		fragLen += int(frag[7]) - 3
		off += int(frag[1])
	}
	end = off

	// Second pass: concatenate payloads, dropping each fragment's
	// 3-byte wimax sub-header (and, for successors, the RADIUS header
	// and vendor ID as well).
	buf := make([]byte, 0, fragLen)
	buf = append(buf, data[7:4+int(data[5])]...)
	for o := attrLen; o < end; {
		flen := int(data[o+1])
		buf = append(buf, data[o+9:o+flen]...)
		o += flen
	}

	pair, _, err := d.decodeValue(child, buf, len(buf))
	if err != nil {
		return nil, 0, err
	}

	return pair, end, nil
}

// -------------------------------------------------------------------------
// Concatenation — RFC 2865 Section 2.3
// -------------------------------------------------------------------------

// decodeConcat joins a run of consecutive attributes of the same type
// into one octets pair. data starts at the first attribute's header; the
// run ends at the first neighbour of a different type or end of window.
func (d *Decoder) decodeConcat(attr *dict.Attribute, data []byte) (*Pair, int, error) {
	attrType := data[0]

	total := 0
	ptr := 0
	for ptr+1 < len(data) && data[ptr] == attrType {
		alen := int(data[ptr+1])
		if alen < 2 || ptr+alen > len(data) {
			break
		}
		total += alen - 2
		ptr += alen
	}

	buf := make([]byte, 0, total)
	for o := 0; o < ptr; {
		alen := int(data[o+1])
		buf = append(buf, data[o+2:o+alen]...)
		o += alen
	}

	pair := &Pair{
		Attr:  attr,
		Value: Value{Kind: dict.TypeOctets, Bytes: buf},
	}

	return pair, ptr, nil
}

// -------------------------------------------------------------------------
// Leaf Materialiser
// -------------------------------------------------------------------------

// materialize constructs a pair from a shape-validated value slice. The
// value bytes are copied: a pair never aliases the packet buffer.
func materialize(attr *dict.Attribute, tag uint8, val []byte) (*Pair, error) {
	pair := &Pair{Attr: attr, Tag: tag}
	pair.Value.Kind = attr.Type

	switch attr.Type {
	case dict.TypeString, dict.TypeOctets, dict.TypeABinary:
		pair.Value.Bytes = append([]byte(nil), val...)

	case dict.TypeByte:
		pair.Value.Uint = uint64(val[0])

	case dict.TypeShort:
		pair.Value.Uint = uint64(binary.BigEndian.Uint16(val))

	case dict.TypeInteger, dict.TypeDate:
		pair.Value.Uint = uint64(binary.BigEndian.Uint32(val))

	case dict.TypeInteger64:
		pair.Value.Uint = binary.BigEndian.Uint64(val)

	case dict.TypeSigned:
		pair.Value.Int = int32(binary.BigEndian.Uint32(val))

	case dict.TypeIPv4Addr:
		pair.Value.Addr = netip.AddrFrom4([4]byte(val[:4]))

	case dict.TypeIPv6Addr:
		pair.Value.Addr = netip.AddrFrom16([16]byte(val[:16]))

	case dict.TypeEthernet:
		copy(pair.Value.Ether[:], val[:6])

	case dict.TypeIFID:
		copy(pair.Value.IFID[:], val[:8])

	case dict.TypeIPv4Prefix:
		// val: reserved(1), prefix-length(1), address(4). Address bytes
		// are kept verbatim, host bits included, like the IPv6 case:
		// re-encoding a decoded prefix must reproduce the wire bytes.
		bits := int(val[1] & 0x3f)
		addr := netip.AddrFrom4([4]byte(val[2:6]))
		pair.Value.Prefix = netip.PrefixFrom(addr, bits)

	case dict.TypeIPv6Prefix:
		// val: reserved(1), prefix-length(1), address truncated to
		// the bytes the prefix needs; pad back to 16.
		var addr16 [16]byte
		copy(addr16[:], val[2:])
		bits := int(val[1])
		pair.Value.Prefix = netip.PrefixFrom(netip.AddrFrom16(addr16), bits)

	default:
		return nil, fmt.Errorf("materialise %s typed %s: %w", attr.Name, attr.Type, ErrInternal)
	}

	return pair, nil
}
