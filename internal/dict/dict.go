// Package dict implements the RADIUS attribute dictionary.
//
// The dictionary maps (parent, attribute number) pairs to attribute
// descriptors and vendor IDs to vendor descriptors. It is shared across
// packets: lookups are concurrent, registration of attributes discovered
// on the wire is serialised and monotonic.
package dict

import (
	"errors"
	"fmt"
	"sync"
)

// -------------------------------------------------------------------------
// Attribute Data Types
// -------------------------------------------------------------------------

// AttrType is the data type of a dictionary attribute. Leaf types describe
// the shape of the value bytes; structural types (TLV, VSA, EVS, Extended,
// LongExtended, Vendor) describe containers that the decoder recurses into.
type AttrType uint8

const (
	// TypeInvalid is the zero value. No registered attribute carries it.
	TypeInvalid AttrType = iota

	// TypeString is printable text (RFC 2865 Section 5: "text").
	TypeString

	// TypeOctets is opaque binary data (RFC 2865 Section 5: "string").
	TypeOctets

	// TypeByte is an 8-bit unsigned integer.
	TypeByte

	// TypeShort is a 16-bit unsigned integer, big-endian on the wire.
	TypeShort

	// TypeInteger is a 32-bit unsigned integer, big-endian on the wire.
	TypeInteger

	// TypeInteger64 is a 64-bit unsigned integer, big-endian on the wire.
	TypeInteger64

	// TypeDate is a 32-bit UNIX timestamp, big-endian on the wire.
	TypeDate

	// TypeSigned is a 32-bit signed integer, big-endian on the wire.
	TypeSigned

	// TypeIPv4Addr is a 4-byte IPv4 address.
	TypeIPv4Addr

	// TypeIPv6Addr is a 16-byte IPv6 address.
	TypeIPv6Addr

	// TypeIPv4Prefix is a 6-byte IPv4 prefix: reserved, prefix length,
	// 4 address bytes (RFC 6572).
	TypeIPv4Prefix

	// TypeIPv6Prefix is a 2 to 18 byte IPv6 prefix: reserved, prefix
	// length, up to 16 address bytes (RFC 3162 Section 2.3).
	TypeIPv6Prefix

	// TypeEthernet is a 6-byte MAC address.
	TypeEthernet

	// TypeIFID is an 8-byte IPv6 interface identifier (RFC 3162).
	TypeIFID

	// TypeABinary is an Ascend binary filter blob.
	TypeABinary

	// TypeComboIP is either a 4-byte IPv4 or a 16-byte IPv6 address.
	// The decoder rewrites the descriptor to the concrete address type
	// once the value length is known.
	TypeComboIP

	// TypeTLV is a sequence of 1-byte-type, 1-byte-length sub-attributes.
	TypeTLV

	// TypeVSA is the RFC 2865 Vendor-Specific container (attribute 26).
	TypeVSA

	// TypeEVS is the RFC 6929 Section 2.4 Extended-Vendor-Specific
	// container.
	TypeEVS

	// TypeExtended is an RFC 6929 Section 2.1 extended attribute: one
	// extended-type byte followed by the value.
	TypeExtended

	// TypeLongExtended is an RFC 6929 Section 2.2 extended attribute
	// with a flags byte whose top bit marks fragment continuation.
	TypeLongExtended

	// TypeVendor is the synthetic node between a VSA container and the
	// vendor's attributes in the dictionary tree.
	TypeVendor
)

// typeNames maps attribute data types to dictionary keywords.
var typeNames = map[AttrType]string{
	TypeString:       "string",
	TypeOctets:       "octets",
	TypeByte:         "byte",
	TypeShort:        "short",
	TypeInteger:      "integer",
	TypeInteger64:    "integer64",
	TypeDate:         "date",
	TypeSigned:       "signed",
	TypeIPv4Addr:     "ipaddr",
	TypeIPv6Addr:     "ipv6addr",
	TypeIPv4Prefix:   "ipv4prefix",
	TypeIPv6Prefix:   "ipv6prefix",
	TypeEthernet:     "ether",
	TypeIFID:         "ifid",
	TypeABinary:      "abinary",
	TypeComboIP:      "combo-ip",
	TypeTLV:          "tlv",
	TypeVSA:          "vsa",
	TypeEVS:          "evs",
	TypeExtended:     "extended",
	TypeLongExtended: "long-extended",
	TypeVendor:       "vendor",
}

// String returns the dictionary keyword for the data type.
func (t AttrType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// IsStructural reports whether the type is a container the decoder
// recurses into rather than a leaf value.
func (t AttrType) IsStructural() bool {
	switch t {
	case TypeTLV, TypeVSA, TypeEVS, TypeExtended, TypeLongExtended, TypeVendor:
		return true
	default:
		return false
	}
}

// -------------------------------------------------------------------------
// Encryption Modes — RFC 2865 Section 5.2, RFC 2868 Section 3.5
// -------------------------------------------------------------------------

// Encrypt identifies the in-protocol encryption applied to an attribute's
// value bytes.
type Encrypt uint8

const (
	// EncryptNone means the value is carried in the clear.
	EncryptNone Encrypt = 0

	// EncryptUserPassword is the RFC 2865 Section 5.2 User-Password
	// MD5 keystream scheme.
	EncryptUserPassword Encrypt = 1

	// EncryptTunnelPassword is the RFC 2868 Section 3.5 salted MD5
	// keystream scheme.
	EncryptTunnelPassword Encrypt = 2

	// EncryptAscendSecret is the Ascend-Send-Secret scheme:
	// MD5(vector + secret) XOR value.
	EncryptAscendSecret Encrypt = 3
)

// encryptNames maps encryption modes to human-readable strings.
var encryptNames = [4]string{"none", "user-password", "tunnel-password", "ascend-secret"}

// String returns the human-readable name of the encryption mode.
func (e Encrypt) String() string {
	if int(e) < len(encryptNames) {
		return encryptNames[e]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(e))
}

// -------------------------------------------------------------------------
// Attribute Flags
// -------------------------------------------------------------------------

// Flags carries the per-attribute behaviour switches from the dictionary.
type Flags struct {
	// HasTag marks RFC 2868 Section 3.5 tagged attributes: the first
	// value byte may carry a tunnel group tag.
	HasTag bool

	// Encrypt selects the in-protocol encryption mode.
	Encrypt Encrypt

	// Concat marks RFC 2865 Section 2.3 concatenable attributes:
	// consecutive attributes of the same type form one logical value.
	Concat bool

	// Length is a fixed decrypted-length hint. For encrypted binary
	// values (MS-CHAP-MPPE-Keys) it supersedes trailing-NUL stripping.
	// Zero means no hint.
	Length uint8

	// Unknown marks descriptors synthesised for attributes that were
	// not in the dictionary when first seen on the wire. Unknown
	// attributes always decode as octets.
	Unknown bool
}

// -------------------------------------------------------------------------
// Attribute and Vendor Descriptors
// -------------------------------------------------------------------------

// Attribute describes one dictionary attribute. Attributes form a tree:
// top-level attributes hang off the dictionary root, vendor attributes
// hang off a TypeVendor node under the Vendor-Specific container, TLV
// children hang off their TLV parent.
type Attribute struct {
	// Name is the dictionary name, e.g. "User-Password".
	Name string

	// Vendor is the private enterprise number, or zero for IETF space.
	Vendor uint32

	// Number is the attribute number within its parent's space.
	Number uint32

	// Type is the data type.
	Type AttrType

	// Parent is the enclosing attribute, or nil for the root.
	Parent *Attribute

	// Flags are the behaviour switches.
	Flags Flags
}

// Vendor describes a Vendor-Specific attribute space.
type Vendor struct {
	// ID is the private enterprise number.
	ID uint32

	// Name is the dictionary name, e.g. "Cisco".
	Name string

	// TypeWidth is the sub-attribute type field width: 1, 2 or 4 bytes.
	TypeWidth uint8

	// LengthWidth is the sub-attribute length field width: 0, 1 or 2 bytes.
	LengthWidth uint8

	// Continuation marks the WiMAX fragmentation scheme: each
	// sub-attribute carries a continuation byte after its length.
	Continuation bool
}

// HeaderSize returns the per-sub-attribute header width for the vendor.
func (v *Vendor) HeaderSize() int {
	return int(v.TypeWidth) + int(v.LengthWidth)
}

// -------------------------------------------------------------------------
// Dictionary
// -------------------------------------------------------------------------

// Sentinel errors for dictionary operations.
var (
	// ErrDuplicateAttribute indicates a name or number collision on Add.
	ErrDuplicateAttribute = errors.New("duplicate attribute")

	// ErrDuplicateVendor indicates a vendor ID collision on AddVendor.
	ErrDuplicateVendor = errors.New("duplicate vendor")

	// ErrBadVendorFormat indicates unsupported type/length field widths.
	ErrBadVendorFormat = errors.New("invalid vendor format")
)

// childKey identifies an attribute within its parent's number space.
type childKey struct {
	parent *Attribute
	number uint32
}

// unknownKey identifies an unknown attribute. Unlike childKey it carries
// the vendor: the long-extended-VSA and EVS decoders register unknown
// vendors' attributes under a shared container node, so two vendors may
// legitimately use the same number under the same parent.
type unknownKey struct {
	parent *Attribute
	vendor uint32
	number uint32
}

// Dictionary is the shared attribute dictionary. Lookups take the read
// lock; registration of unknown attributes takes the write lock and is
// insert-if-absent, so a registered (vendor, number) pair is stable for
// the dictionary's lifetime.
type Dictionary struct {
	mu sync.RWMutex

	root *Attribute

	byName   map[string]*Attribute
	children map[childKey]*Attribute
	vendors  map[uint32]*Vendor

	// vendorRoots holds the synthetic TypeVendor node for each vendor,
	// keyed by (VSA or EVS container, vendor ID).
	vendorRoots map[childKey]*Attribute

	// unknowns holds descriptors synthesised for attributes seen on the
	// wire but absent from the dictionary, including raw demotions of
	// known attributes whose values failed shape validation. Kept apart
	// from children so a malformed instance never shadows a known
	// definition.
	unknowns       map[unknownKey]*Attribute
	unknownVendors map[uint32]*Vendor
}

// New returns an empty dictionary containing only the root node.
func New() *Dictionary {
	d := &Dictionary{
		byName:         make(map[string]*Attribute),
		children:       make(map[childKey]*Attribute),
		vendors:        make(map[uint32]*Vendor),
		vendorRoots:    make(map[childKey]*Attribute),
		unknowns:       make(map[unknownKey]*Attribute),
		unknownVendors: make(map[uint32]*Vendor),
	}
	d.root = &Attribute{Name: "root", Type: TypeTLV}

	return d
}

// Root returns the packet-level parent attribute. Top-level RADIUS
// attributes are children of the root.
func (d *Dictionary) Root() *Attribute {
	return d.root
}

// ChildByNum returns the child of parent with the given number, or nil.
// Unknown registrations are not visible here; see Unknown.
func (d *Dictionary) ChildByNum(parent *Attribute, number uint32) *Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.children[childKey{parent, number}]
}

// AttrByName returns the attribute with the given dictionary name, or nil.
func (d *Dictionary) AttrByName(name string) *Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.byName[name]
}

// VendorByNum returns the vendor descriptor for the given enterprise
// number, checking registered unknown vendors as well. Returns nil if the
// vendor has never been seen.
func (d *Dictionary) VendorByNum(id uint32) *Vendor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if v := d.vendors[id]; v != nil {
		return v
	}
	return d.unknownVendors[id]
}

// VendorRoot returns the synthetic TypeVendor node for the vendor under
// the given container (VSA or EVS) attribute, or nil.
func (d *Dictionary) VendorRoot(container *Attribute, id uint32) *Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.vendorRoots[childKey{container, id}]
}

// AttrByType returns a sibling definition of attr with the requested data
// type, used to resolve combo-ip attributes once the value width is known.
// The convention is a dictionary entry under the same parent whose number
// matches and whose type is the concrete address type.
func (d *Dictionary) AttrByType(attr *Attribute, t AttrType) *Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, a := range d.byName {
		if a.Vendor == attr.Vendor && a.Number == attr.Number && a.Parent == attr.Parent && a.Type == t {
			return a
		}
	}
	return nil
}

// Add registers a new attribute. The parent may be nil for top-level
// attributes, in which case the root is used.
func (d *Dictionary) Add(attr *Attribute) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attr.Parent == nil {
		attr.Parent = d.root
	}

	key := childKey{attr.Parent, attr.Number}
	if _, dup := d.children[key]; dup {
		return fmt.Errorf("attribute %d under %s: %w", attr.Number, attr.Parent.Name, ErrDuplicateAttribute)
	}
	if existing, dup := d.byName[attr.Name]; dup {
		// Combo-ip resolution entries share a name space slot by
		// design: same number, different concrete type.
		if existing.Number != attr.Number || existing.Parent != attr.Parent {
			return fmt.Errorf("attribute name %q: %w", attr.Name, ErrDuplicateAttribute)
		}
	}

	d.children[key] = attr
	if _, shadow := d.byName[attr.Name]; !shadow {
		d.byName[attr.Name] = attr
	}

	return nil
}

// AddTypedVariant registers a type-variant entry for combo-ip resolution
// without claiming the (parent, number) child slot: the entry shares the
// combo attribute's number and parent but carries a concrete address type.
func (d *Dictionary) AddTypedVariant(attr *Attribute) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attr.Parent == nil {
		attr.Parent = d.root
	}
	d.byName[attr.Name+"."+attr.Type.String()] = attr
}

// AddVendor registers a vendor and creates its TypeVendor node under the
// given container attribute (normally Vendor-Specific).
func (d *Dictionary) AddVendor(container *Attribute, v *Vendor) (*Attribute, error) {
	if err := checkVendorFormat(v); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.vendors[v.ID]; dup {
		return nil, fmt.Errorf("vendor %d: %w", v.ID, ErrDuplicateVendor)
	}
	d.vendors[v.ID] = v

	node := &Attribute{
		Name:   v.Name,
		Vendor: v.ID,
		Number: v.ID,
		Type:   TypeVendor,
		Parent: container,
	}
	d.vendorRoots[childKey{container, v.ID}] = node

	return node, nil
}

// checkVendorFormat validates the sub-attribute header widths.
func checkVendorFormat(v *Vendor) error {
	switch v.TypeWidth {
	case 1, 2, 4:
	default:
		return fmt.Errorf("vendor %d type width %d: %w", v.ID, v.TypeWidth, ErrBadVendorFormat)
	}
	switch v.LengthWidth {
	case 0, 1, 2:
	default:
		return fmt.Errorf("vendor %d length width %d: %w", v.ID, v.LengthWidth, ErrBadVendorFormat)
	}

	return nil
}

// -------------------------------------------------------------------------
// Unknown Registration
// -------------------------------------------------------------------------

// Unknown returns the stable unknown-attribute descriptor for (parent,
// vendor, number), registering it on first use. The descriptor decodes as
// octets. Used both for attributes absent from the dictionary and for
// raw demotions of known attributes whose values failed validation.
func (d *Dictionary) Unknown(parent *Attribute, vendor uint32, number uint32) *Attribute {
	if parent == nil {
		parent = d.root
	}
	key := unknownKey{parent, vendor, number}

	d.mu.RLock()
	attr := d.unknowns[key]
	d.mu.RUnlock()
	if attr != nil {
		return attr
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Lost the race: another packet registered it first.
	if attr = d.unknowns[key]; attr != nil {
		return attr
	}

	attr = &Attribute{
		Name:   unknownName(vendor, number),
		Vendor: vendor,
		Number: number,
		Type:   TypeOctets,
		Parent: parent,
		Flags:  Flags{Unknown: true},
	}
	d.unknowns[key] = attr

	return attr
}

// UnknownVendor returns the stable descriptor for a vendor seen on the
// wire but absent from the dictionary, registering it on first use.
// Unknown vendors use the RFC format: 1-byte type, 1-byte length.
func (d *Dictionary) UnknownVendor(id uint32) *Vendor {
	d.mu.RLock()
	v := d.unknownVendors[id]
	d.mu.RUnlock()
	if v != nil {
		return v
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if v = d.unknownVendors[id]; v != nil {
		return v
	}

	v = &Vendor{
		ID:          id,
		Name:        fmt.Sprintf("Vendor-%d", id),
		TypeWidth:   1,
		LengthWidth: 1,
	}
	d.unknownVendors[id] = v

	return v
}

// UnknownVendorRoot returns a TypeVendor node for an unregistered vendor
// under the given container, registering it on first use.
func (d *Dictionary) UnknownVendorRoot(container *Attribute, id uint32) *Attribute {
	key := childKey{container, id}

	d.mu.RLock()
	node := d.vendorRoots[key]
	d.mu.RUnlock()
	if node != nil {
		return node
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if node = d.vendorRoots[key]; node != nil {
		return node
	}

	node = &Attribute{
		Name:   fmt.Sprintf("Vendor-%d", id),
		Vendor: id,
		Number: id,
		Type:   TypeVendor,
		Parent: container,
		Flags:  Flags{Unknown: true},
	}
	d.vendorRoots[key] = node

	return node
}

// UnknownAttrCount returns the number of unknown attributes registered
// from the wire.
func (d *Dictionary) UnknownAttrCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.unknowns)
}

// UnknownVendorCount returns the number of unknown vendors registered
// from the wire.
func (d *Dictionary) UnknownVendorCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.unknownVendors)
}

// unknownName builds the dictionary name for an unknown attribute.
func unknownName(vendor uint32, number uint32) string {
	if vendor == 0 {
		return fmt.Sprintf("Attr-%d", number)
	}
	return fmt.Sprintf("Vendor-%d-Attr-%d", vendor, number)
}
