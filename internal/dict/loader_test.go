package dict_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dantte-lp/goradius/internal/dict"
)

// writeFile creates a file under dir with the given content.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "dictionary.test", `
# test dictionary
ATTRIBUTE   My-String     3000   string
ATTRIBUTE   My-Tagged     3001   integer   has_tag
ATTRIBUTE   My-Secret     3002   string    encrypt=2,has_tag
ATTRIBUTE   My-Keys       3003   octets    encrypt=1,length=24

VENDOR      Acme          4491
BEGIN-VENDOR Acme
ATTRIBUTE   Acme-Setting  1      integer
END-VENDOR  Acme

VENDOR      Frag          4492   format=1,1,c

VALUE       My-Tagged     Blue   1
`)

	d := dict.Builtin()
	if err := d.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	tests := []struct {
		name string
		typ  dict.AttrType
	}{
		{"My-String", dict.TypeString},
		{"My-Tagged", dict.TypeInteger},
		{"My-Secret", dict.TypeString},
		{"My-Keys", dict.TypeOctets},
	}
	for _, tt := range tests {
		attr := d.AttrByName(tt.name)
		if attr == nil {
			t.Fatalf("%s not loaded", tt.name)
		}
		if attr.Type != tt.typ {
			t.Errorf("%s type = %v, want %v", tt.name, attr.Type, tt.typ)
		}
	}

	if !d.AttrByName("My-Tagged").Flags.HasTag {
		t.Error("My-Tagged has_tag flag lost")
	}
	if got := d.AttrByName("My-Secret").Flags.Encrypt; got != dict.EncryptTunnelPassword {
		t.Errorf("My-Secret encrypt = %v", got)
	}
	if got := d.AttrByName("My-Keys").Flags.Length; got != 24 {
		t.Errorf("My-Keys length hint = %d", got)
	}

	acme := d.VendorByNum(4491)
	if acme == nil || acme.TypeWidth != 1 || acme.LengthWidth != 1 {
		t.Fatalf("Acme vendor = %+v", acme)
	}

	setting := d.AttrByName("Acme-Setting")
	if setting == nil || setting.Vendor != 4491 {
		t.Fatalf("Acme-Setting = %+v", setting)
	}

	frag := d.VendorByNum(4492)
	if frag == nil || !frag.Continuation {
		t.Fatalf("Frag vendor = %+v", frag)
	}
}

func TestLoadFileInclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "dictionary.extra", "ATTRIBUTE Extra-Attr 3100 string\n")
	main := writeFile(t, dir, "dictionary", "$INCLUDE dictionary.extra\nATTRIBUTE Main-Attr 3101 integer\n")

	d := dict.Builtin()
	if err := d.LoadFile(main); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if d.AttrByName("Extra-Attr") == nil {
		t.Error("included attribute not loaded")
	}
	if d.AttrByName("Main-Attr") == nil {
		t.Error("attribute after $INCLUDE not loaded")
	}
}

func TestLoadFileIncludeCycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a", "$INCLUDE b\n")
	writeFile(t, dir, "b", "$INCLUDE a\n")

	d := dict.Builtin()
	err := d.LoadFile(filepath.Join(dir, "a"))
	if !errors.Is(err, dict.ErrIncludeDepth) {
		t.Fatalf("error = %v, want ErrIncludeDepth", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown keyword", "FROBNICATE x y\n"},
		{"bad number", "ATTRIBUTE X notanumber string\n"},
		{"bad type", "ATTRIBUTE X 3000 quux\n"},
		{"bad flag", "ATTRIBUTE X 3000 string sparkly\n"},
		{"bad vendor format", "VENDOR V 4000 format=9,9\n"},
		{"begin undefined vendor", "BEGIN-VENDOR Nobody\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := writeFile(t, dir, "dictionary.bad", tt.content)

			d := dict.Builtin()
			err := d.LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile succeeded, want error")
			}

			var perr *dict.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error %v is not a ParseError", err)
			}
			if perr.Line != 1 {
				t.Errorf("line = %d, want 1", perr.Line)
			}
		})
	}
}
