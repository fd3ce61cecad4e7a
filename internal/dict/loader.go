package dict

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// -------------------------------------------------------------------------
// Dictionary File Loader
// -------------------------------------------------------------------------
//
// Parses the conventional RADIUS dictionary text format:
//
//	VENDOR      Cisco   9
//	VENDOR      WiMAX   24757   format=1,1,c
//	BEGIN-VENDOR Cisco
//	ATTRIBUTE   Cisco-AVPair    1   string
//	END-VENDOR  Cisco
//	ATTRIBUTE   My-Attribute    3000    integer  has_tag,encrypt=1
//	$INCLUDE    dictionary.vendor

// maxIncludeDepth bounds $INCLUDE nesting in dictionary files.
const maxIncludeDepth = 16

// Sentinel errors for dictionary file parsing.
var (
	// ErrIncludeDepth indicates $INCLUDE nesting deeper than
	// maxIncludeDepth, which almost always means an include cycle.
	ErrIncludeDepth = errors.New("dictionary include depth exceeded")

	// ErrSyntax indicates a malformed dictionary line.
	ErrSyntax = errors.New("dictionary syntax error")
)

// ParseError describes a dictionary file error with its location.
type ParseError struct {
	File string
	Line int
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.File, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// LoadFile reads a dictionary text file into d. Attributes defined inside
// BEGIN-VENDOR/END-VENDOR blocks are attached to that vendor's tree under
// Vendor-Specific.
func (d *Dictionary) LoadFile(path string) error {
	return d.loadFile(path, 0)
}

// loader tracks the per-file parse state.
type loader struct {
	dict   *Dictionary
	file   string
	depth  int
	vendor *Attribute // current BEGIN-VENDOR node, nil outside a block
}

func (d *Dictionary) loadFile(path string, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("%s: %w", path, ErrIncludeDepth)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	l := &loader{dict: d, file: path, depth: depth}

	sc := bufio.NewScanner(f)
	lineno := 0
	for sc.Scan() {
		lineno++
		if err := l.line(sc.Text(), lineno); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read dictionary %s: %w", path, err)
	}

	return nil
}

// line parses one dictionary line.
func (l *loader) line(raw string, lineno int) error {
	text := strings.TrimSpace(raw)
	if text == "" || strings.HasPrefix(text, "#") {
		return nil
	}
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}

	fields := strings.Fields(text)
	switch fields[0] {
	case "ATTRIBUTE":
		return l.attribute(fields, lineno)
	case "VENDOR":
		return l.vendorDef(fields, lineno)
	case "BEGIN-VENDOR":
		return l.beginVendor(fields, lineno)
	case "END-VENDOR":
		l.vendor = nil
		return nil
	case "VALUE":
		// Named enum values are accepted and skipped: the decoder
		// works on numbers, pretty-printing is the caller's concern.
		return nil
	case "$INCLUDE":
		return l.include(fields, lineno)
	default:
		return l.errf(lineno, "unknown keyword %q", fields[0])
	}
}

// attribute parses an ATTRIBUTE line: name, number, type, optional flags.
func (l *loader) attribute(fields []string, lineno int) error {
	if len(fields) < 4 {
		return l.errf(lineno, "ATTRIBUTE needs name, number, type")
	}

	number, err := strconv.ParseUint(fields[2], 0, 32)
	if err != nil {
		return l.errf(lineno, "bad attribute number %q", fields[2])
	}

	typ, ok := typeByKeyword(fields[3])
	if !ok {
		return l.errf(lineno, "unknown attribute type %q", fields[3])
	}

	attr := &Attribute{
		Name:   fields[1],
		Number: uint32(number),
		Type:   typ,
	}
	if l.vendor != nil {
		attr.Parent = l.vendor
		attr.Vendor = l.vendor.Vendor
	}

	if len(fields) >= 5 {
		if err := parseAttrFlags(fields[4], &attr.Flags); err != nil {
			return l.errf(lineno, "%v", err)
		}
	}

	if err := l.dict.Add(attr); err != nil {
		return l.errf(lineno, "%v", err)
	}

	return nil
}

// vendorDef parses a VENDOR line: name, number, optional format=t,l[,c].
func (l *loader) vendorDef(fields []string, lineno int) error {
	if len(fields) < 3 {
		return l.errf(lineno, "VENDOR needs name and number")
	}

	id, err := strconv.ParseUint(fields[2], 0, 32)
	if err != nil {
		return l.errf(lineno, "bad vendor number %q", fields[2])
	}

	v := &Vendor{
		ID:          uint32(id),
		Name:        fields[1],
		TypeWidth:   1,
		LengthWidth: 1,
	}

	if len(fields) >= 4 {
		if err := parseVendorFormat(fields[3], v); err != nil {
			return l.errf(lineno, "%v", err)
		}
	}

	vsa := l.dict.AttrByName("Vendor-Specific")
	if vsa == nil {
		return l.errf(lineno, "no Vendor-Specific container in dictionary")
	}
	if _, err := l.dict.AddVendor(vsa, v); err != nil {
		return l.errf(lineno, "%v", err)
	}

	return nil
}

// beginVendor enters a BEGIN-VENDOR block.
func (l *loader) beginVendor(fields []string, lineno int) error {
	if len(fields) < 2 {
		return l.errf(lineno, "BEGIN-VENDOR needs a vendor name")
	}

	vsa := l.dict.AttrByName("Vendor-Specific")
	l.dict.mu.RLock()
	var node *Attribute
	for key, root := range l.dict.vendorRoots {
		if key.parent == vsa && root.Name == fields[1] {
			node = root
			break
		}
	}
	l.dict.mu.RUnlock()

	if node == nil {
		return l.errf(lineno, "BEGIN-VENDOR for undefined vendor %q", fields[1])
	}
	l.vendor = node

	return nil
}

// include resolves a $INCLUDE line relative to the including file.
func (l *loader) include(fields []string, lineno int) error {
	if len(fields) < 2 {
		return l.errf(lineno, "$INCLUDE needs a filename")
	}

	name := fields[1]
	if !filepath.IsAbs(name) {
		name = filepath.Join(filepath.Dir(l.file), name)
	}

	if err := l.dict.loadFile(name, l.depth+1); err != nil {
		return &ParseError{File: l.file, Line: lineno, Err: err}
	}

	return nil
}

// errf builds a ParseError for the current file.
func (l *loader) errf(lineno int, format string, args ...any) error {
	return &ParseError{
		File: l.file,
		Line: lineno,
		Err:  fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...)),
	}
}

// typeByKeyword resolves a dictionary type keyword.
func typeByKeyword(kw string) (AttrType, bool) {
	for t, name := range typeNames {
		if name == kw {
			return t, true
		}
	}
	// Accepted aliases from the conventional dictionary grammar.
	switch kw {
	case "text":
		return TypeString, true
	case "ipv4addr":
		return TypeIPv4Addr, true
	}

	return TypeInvalid, false
}

// parseAttrFlags parses the comma-separated ATTRIBUTE flags field, e.g.
// "has_tag,encrypt=2" or "concat".
func parseAttrFlags(field string, flags *Flags) error {
	for _, part := range strings.Split(field, ",") {
		switch {
		case part == "has_tag":
			flags.HasTag = true
		case part == "concat":
			flags.Concat = true
		case strings.HasPrefix(part, "encrypt="):
			n, err := strconv.ParseUint(strings.TrimPrefix(part, "encrypt="), 10, 8)
			if err != nil || n > uint64(EncryptAscendSecret) {
				return fmt.Errorf("bad encrypt flag %q", part)
			}
			flags.Encrypt = Encrypt(n)
		case strings.HasPrefix(part, "length="):
			n, err := strconv.ParseUint(strings.TrimPrefix(part, "length="), 10, 8)
			if err != nil {
				return fmt.Errorf("bad length flag %q", part)
			}
			flags.Length = uint8(n)
		default:
			return fmt.Errorf("unknown attribute flag %q", part)
		}
	}

	return nil
}

// parseVendorFormat parses "format=t,l" or "format=t,l,c".
func parseVendorFormat(field string, v *Vendor) error {
	spec, ok := strings.CutPrefix(field, "format=")
	if !ok {
		return fmt.Errorf("unknown vendor option %q", field)
	}

	parts := strings.Split(spec, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("bad vendor format %q", field)
	}

	t, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return fmt.Errorf("bad vendor type width %q", parts[0])
	}
	lw, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return fmt.Errorf("bad vendor length width %q", parts[1])
	}
	v.TypeWidth = uint8(t)
	v.LengthWidth = uint8(lw)

	if len(parts) == 3 {
		if parts[2] != "c" {
			return fmt.Errorf("bad vendor continuation flag %q", parts[2])
		}
		v.Continuation = true
	}

	return checkVendorFormat(v)
}
