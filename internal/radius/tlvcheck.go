package radius

import (
	"errors"
	"fmt"
)

// -------------------------------------------------------------------------
// TLV Shape Validation
// -------------------------------------------------------------------------

// Sentinel errors for TLV shape validation. Shape errors are never
// surfaced past the decoder: the offending attribute is demoted to raw.
var (
	// ErrBadVendorWidths indicates type/length widths outside the
	// supported {1,2,4} x {0,1,2} grid.
	ErrBadVendorWidths = errors.New("invalid vendor header widths")

	// ErrHeaderOverflow indicates a sub-attribute header that runs past
	// the end of the container.
	ErrHeaderOverflow = errors.New("attribute header overflow")

	// ErrZeroAttribute indicates a reserved all-zero type field.
	ErrZeroAttribute = errors.New("invalid attribute 0")

	// ErrAttrTooWide indicates a 4-byte type field above 2^24: all
	// registered attribute numbers fit in 24 bits.
	ErrAttrTooWide = errors.New("invalid attribute > 2^24")

	// ErrBadAttrLength indicates a declared sub-attribute length that is
	// shorter than its own header or longer than the container.
	ErrBadAttrLength = errors.New("attribute has invalid length")
)

// TLVShapeOK verifies that data parses as a contiguous sequence of
// well-formed sub-attributes with the given type and length field widths.
//
// The TLV and VSA decoders run this before constructing pairs, so the
// recursive descent can assume well-formed input and skip mid-descent
// error plumbing. With a zero length width the container holds exactly
// one sub-attribute spanning the remaining bytes, so validation ends at
// the first header.
//
// A type width of 1 admits a zero type byte: at least one vendor ships
// sub-attribute zero on the wire.
func TLVShapeOK(data []byte, typeWidth, lengthWidth int) error {
	switch typeWidth {
	case 1, 2, 4:
	default:
		return fmt.Errorf("type width %d: %w", typeWidth, ErrBadVendorWidths)
	}
	switch lengthWidth {
	case 0, 1, 2:
	default:
		return fmt.Errorf("length width %d: %w", lengthWidth, ErrBadVendorWidths)
	}

	header := typeWidth + lengthWidth

	for len(data) > 0 {
		if len(data) < header {
			return ErrHeaderOverflow
		}

		switch typeWidth {
		case 4:
			if data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 0 {
				return ErrZeroAttribute
			}
			if data[0] != 0 {
				return ErrAttrTooWide
			}
		case 2:
			if data[0] == 0 && data[1] == 0 {
				return ErrZeroAttribute
			}
		}

		var attrLen int
		switch lengthWidth {
		case 0:
			// No length field: the sub-attribute is the remainder.
			return nil
		case 2:
			if data[typeWidth] != 0 {
				return fmt.Errorf("%w: longer than 256 octets", ErrBadAttrLength)
			}
			attrLen = int(data[typeWidth+1])
		case 1:
			attrLen = int(data[typeWidth])
		}

		if attrLen < header {
			return fmt.Errorf("%w: shorter than its header", ErrBadAttrLength)
		}
		if attrLen > len(data) {
			return fmt.Errorf("%w: overflows container", ErrBadAttrLength)
		}

		data = data[attrLen:]
	}

	return nil
}
