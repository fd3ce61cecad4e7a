// Package radius implements the RADIUS attribute decoder: the wire-format
// side of RFC 2865, the tunnel attributes of RFC 2868, and the extended
// attribute space of RFC 6929, including long-extended and WiMAX fragment
// reassembly and the in-protocol encryption modes.
//
// The decoder consumes the attribute region of a packet plus a dictionary
// and produces an ordered list of typed attribute/value pairs. Malformed
// attributes never fail the packet: they are demoted to opaque octets
// bound to a registered unknown descriptor.
package radius

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/dantte-lp/goradius/internal/dict"
)

// -------------------------------------------------------------------------
// Value — decoded leaf value
// -------------------------------------------------------------------------

// AscendFilterSize is the fixed size of an Ascend binary filter blob.
// Longer abinary values are demoted to raw.
const AscendFilterSize = 32

// Value is the decoded leaf value of a pair. Kind selects which field is
// meaningful; the remaining fields are zero.
type Value struct {
	// Kind is the leaf data type the value was decoded as. It matches
	// the pair's descriptor type except for combo-ip attributes, where
	// the descriptor is rewritten to the concrete address type.
	Kind dict.AttrType

	// Uint holds TypeByte, TypeShort, TypeInteger, TypeInteger64 and
	// TypeDate values (date as UNIX seconds).
	Uint uint64

	// Int holds TypeSigned values.
	Int int32

	// Addr holds TypeIPv4Addr and TypeIPv6Addr values.
	Addr netip.Addr

	// Prefix holds TypeIPv4Prefix and TypeIPv6Prefix values. Address
	// bytes are carried verbatim, host bits included.
	Prefix netip.Prefix

	// Ether holds TypeEthernet values.
	Ether [6]byte

	// IFID holds TypeIFID values.
	IFID [8]byte

	// Bytes holds TypeString, TypeOctets and TypeABinary values. The
	// slice is owned by the pair: it never aliases the input packet.
	Bytes []byte
}

// String renders the value for logs and the dump CLI.
func (v Value) String() string {
	switch v.Kind {
	case dict.TypeString:
		return fmt.Sprintf("%q", v.Bytes)
	case dict.TypeOctets, dict.TypeABinary:
		return "0x" + hexString(v.Bytes)
	case dict.TypeByte, dict.TypeShort, dict.TypeInteger, dict.TypeInteger64:
		return fmt.Sprintf("%d", v.Uint)
	case dict.TypeDate:
		return fmt.Sprintf("%d", v.Uint)
	case dict.TypeSigned:
		return fmt.Sprintf("%d", v.Int)
	case dict.TypeIPv4Addr, dict.TypeIPv6Addr:
		return v.Addr.String()
	case dict.TypeIPv4Prefix, dict.TypeIPv6Prefix:
		return v.Prefix.String()
	case dict.TypeEthernet:
		return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			v.Ether[0], v.Ether[1], v.Ether[2], v.Ether[3], v.Ether[4], v.Ether[5])
	case dict.TypeIFID:
		return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x:%02x%02x",
			v.IFID[0], v.IFID[1], v.IFID[2], v.IFID[3], v.IFID[4], v.IFID[5], v.IFID[6], v.IFID[7])
	default:
		return "?"
	}
}

// hexString formats b as lowercase hex without separators.
func hexString(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}

// -------------------------------------------------------------------------
// Pair — decoder output unit
// -------------------------------------------------------------------------

// TagNone marks a pair without an RFC 2868 tunnel group tag.
const TagNone uint8 = 0

// Pair binds an attribute descriptor to a decoded value. Pairs form a
// singly linked list preserving wire order; fragments reassembled into
// one pair sit at the position of their first fragment.
type Pair struct {
	// Attr is the dictionary descriptor the value was decoded against.
	// For raw demotions this is the registered unknown descriptor.
	Attr *dict.Attribute

	// Tag is the RFC 2868 Section 3.5 tunnel group tag, or TagNone.
	Tag uint8

	// Value is the decoded leaf value.
	Value Value

	// Next is the following pair in wire order, or nil.
	Next *Pair
}

// String renders "Name = value" with the tag suffix where present.
func (p *Pair) String() string {
	name := p.Attr.Name
	if p.Tag != TagNone {
		name = fmt.Sprintf("%s:%d", name, p.Tag)
	}
	return name + " = " + p.Value.String()
}

// Len returns the number of pairs in the list starting at p.
func (p *Pair) Len() int {
	n := 0
	for ; p != nil; p = p.Next {
		n++
	}
	return n
}

// pairList accumulates pairs in wire order. The zero value is ready to use.
type pairList struct {
	head *Pair
	tail **Pair
}

// newPairList returns an empty accumulator.
func newPairList() pairList {
	l := pairList{}
	l.tail = &l.head
	return l
}

// append adds a pair chain to the end of the list. A nil chain (a
// zero-length sub-attribute) is a no-op.
func (l *pairList) append(p *Pair) {
	if p == nil {
		return
	}
	if l.head == nil {
		l.head = p
	} else {
		*l.tail = p
	}
	for p.Next != nil {
		p = p.Next
	}
	l.tail = &p.Next
}
