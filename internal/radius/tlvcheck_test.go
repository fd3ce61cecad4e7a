package radius_test

import (
	"errors"
	"testing"

	"github.com/dantte-lp/goradius/internal/radius"
)

// -------------------------------------------------------------------------
// TestTLVShapeOK — shape validator
// -------------------------------------------------------------------------

func TestTLVShapeOK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        []byte
		typeWidth   int
		lengthWidth int
		wantErr     error
	}{
		{
			name:      "single sub-attribute",
			data:      []byte{0x01, 0x06, 0x00, 0x00, 0x00, 0x05},
			typeWidth: 1, lengthWidth: 1,
		},
		{
			name:      "two sub-attributes",
			data:      []byte{0x01, 0x03, 0xaa, 0x02, 0x04, 0xbb, 0xcc},
			typeWidth: 1, lengthWidth: 1,
		},
		{
			name:      "zero type allowed at width one",
			data:      []byte{0x00, 0x03, 0xaa},
			typeWidth: 1, lengthWidth: 1,
		},
		{
			name:      "length shorter than header",
			data:      []byte{0x01, 0x01},
			typeWidth: 1, lengthWidth: 1,
			wantErr: radius.ErrBadAttrLength,
		},
		{
			name:      "length overflows container",
			data:      []byte{0x01, 0x0a, 0xaa},
			typeWidth: 1, lengthWidth: 1,
			wantErr: radius.ErrBadAttrLength,
		},
		{
			name:      "header overhang",
			data:      []byte{0x01},
			typeWidth: 1, lengthWidth: 1,
			wantErr: radius.ErrHeaderOverflow,
		},
		{
			name:      "zero type rejected at width two",
			data:      []byte{0x00, 0x00, 0x04, 0xaa},
			typeWidth: 2, lengthWidth: 1,
			wantErr: radius.ErrZeroAttribute,
		},
		{
			name:      "width two type accepted",
			data:      []byte{0x00, 0x01, 0x04, 0xaa},
			typeWidth: 2, lengthWidth: 1,
		},
		{
			name:      "width four top byte must be zero",
			data:      []byte{0x01, 0x00, 0x00, 0x01, 0x06, 0xaa},
			typeWidth: 4, lengthWidth: 1,
			wantErr: radius.ErrAttrTooWide,
		},
		{
			name:      "width four all zero rejected",
			data:      []byte{0x00, 0x00, 0x00, 0x00, 0x06, 0xaa},
			typeWidth: 4, lengthWidth: 1,
			wantErr: radius.ErrZeroAttribute,
		},
		{
			name:      "width four accepted",
			data:      []byte{0x00, 0x00, 0x00, 0x01, 0x06, 0xaa},
			typeWidth: 4, lengthWidth: 1,
		},
		{
			name:      "length width two high byte set",
			data:      []byte{0x01, 0x01, 0x05, 0xaa, 0xbb},
			typeWidth: 1, lengthWidth: 2,
			wantErr: radius.ErrBadAttrLength,
		},
		{
			name:      "length width two accepted",
			data:      []byte{0x01, 0x00, 0x05, 0xaa, 0xbb},
			typeWidth: 1, lengthWidth: 2,
		},
		{
			name:      "length width zero stops at first header",
			data:      []byte{0x01, 0xaa, 0xbb, 0xcc},
			typeWidth: 1, lengthWidth: 0,
		},
		{
			name:      "bad type width",
			data:      []byte{0x01, 0x03, 0xaa},
			typeWidth: 3, lengthWidth: 1,
			wantErr: radius.ErrBadVendorWidths,
		},
		{
			name:      "bad length width",
			data:      []byte{0x01, 0x03, 0xaa},
			typeWidth: 1, lengthWidth: 3,
			wantErr: radius.ErrBadVendorWidths,
		},
		{
			name:      "empty is valid",
			data:      nil,
			typeWidth: 1, lengthWidth: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := radius.TLVShapeOK(tt.data, tt.typeWidth, tt.lengthWidth)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("TLVShapeOK: %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TLVShapeOK: %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestTLVShapeOKReadsExactly checks the completeness property: accepted
// input iterates to exactly its own length.
func TestTLVShapeOKReadsExactly(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x01, 0x04, 0xaa, 0xbb,
		0x02, 0x02,
		0x03, 0x05, 0x01, 0x02, 0x03,
	}
	if err := radius.TLVShapeOK(data, 1, 1); err != nil {
		t.Fatalf("TLVShapeOK: %v", err)
	}

	walked := 0
	for off := 0; off < len(data); {
		alen := int(data[off+1])
		walked += alen
		off += alen
	}
	if walked != len(data) {
		t.Fatalf("walked %d bytes of %d", walked, len(data))
	}
}
