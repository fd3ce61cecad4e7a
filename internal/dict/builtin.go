package dict

// Well-known attribute and vendor numbers used across the decoder.
const (
	// AttrUserPassword is User-Password (RFC 2865 Section 5.2).
	AttrUserPassword = 2

	// AttrVendorSpecific is Vendor-Specific (RFC 2865 Section 5.26).
	AttrVendorSpecific = 26

	// AttrTunnelPassword is Tunnel-Password (RFC 2868 Section 3.5).
	AttrTunnelPassword = 69

	// AttrEAPMessage is EAP-Message (RFC 2869 Section 5.13), concat.
	AttrEAPMessage = 79

	// AttrChargeableUserIdentity is CUI (RFC 4372). The WiMAX forum
	// allows it to be zero length, against the RADIUS grammar.
	AttrChargeableUserIdentity = 89

	// VendorCisco is the Cisco private enterprise number.
	VendorCisco = 9

	// VendorWiMAX is the WiMAX forum private enterprise number. WiMAX
	// VSAs carry a continuation byte for fragmentation.
	VendorWiMAX = 24757
)

// builtinAttr is one row of the base dictionary table.
type builtinAttr struct {
	number uint32
	name   string
	typ    AttrType
	flags  Flags
}

// builtinTopLevel is the RFC 2865/2866/2868/2869/3162/6929 base set.
// Extended-Attribute-1 carries the long-extended "more" flag handling;
// Extended-Attribute-2 is the plain one-byte extended form.
var builtinTopLevel = []builtinAttr{
	{1, "User-Name", TypeString, Flags{}},
	{2, "User-Password", TypeString, Flags{Encrypt: EncryptUserPassword}},
	{3, "CHAP-Password", TypeOctets, Flags{}},
	{4, "NAS-IP-Address", TypeIPv4Addr, Flags{}},
	{5, "NAS-Port", TypeInteger, Flags{}},
	{6, "Service-Type", TypeInteger, Flags{}},
	{7, "Framed-Protocol", TypeInteger, Flags{}},
	{8, "Framed-IP-Address", TypeIPv4Addr, Flags{}},
	{9, "Framed-IP-Netmask", TypeIPv4Addr, Flags{}},
	{10, "Framed-Routing", TypeInteger, Flags{}},
	{11, "Filter-Id", TypeString, Flags{}},
	{12, "Framed-MTU", TypeInteger, Flags{}},
	{13, "Framed-Compression", TypeInteger, Flags{}},
	{14, "Login-IP-Host", TypeIPv4Addr, Flags{}},
	{15, "Login-Service", TypeInteger, Flags{}},
	{16, "Login-TCP-Port", TypeInteger, Flags{}},
	{18, "Reply-Message", TypeString, Flags{}},
	{19, "Callback-Number", TypeString, Flags{}},
	{22, "Framed-Route", TypeString, Flags{}},
	{23, "Framed-IPX-Network", TypeIPv4Addr, Flags{}},
	{24, "State", TypeOctets, Flags{}},
	{25, "Class", TypeOctets, Flags{}},
	{26, "Vendor-Specific", TypeVSA, Flags{}},
	{27, "Session-Timeout", TypeInteger, Flags{}},
	{28, "Idle-Timeout", TypeInteger, Flags{}},
	{29, "Termination-Action", TypeInteger, Flags{}},
	{30, "Called-Station-Id", TypeString, Flags{}},
	{31, "Calling-Station-Id", TypeString, Flags{}},
	{32, "NAS-Identifier", TypeString, Flags{}},
	{33, "Proxy-State", TypeOctets, Flags{}},
	{40, "Acct-Status-Type", TypeInteger, Flags{}},
	{41, "Acct-Delay-Time", TypeInteger, Flags{}},
	{42, "Acct-Input-Octets", TypeInteger, Flags{}},
	{43, "Acct-Output-Octets", TypeInteger, Flags{}},
	{44, "Acct-Session-Id", TypeString, Flags{}},
	{45, "Acct-Authentic", TypeInteger, Flags{}},
	{46, "Acct-Session-Time", TypeInteger, Flags{}},
	{55, "Event-Timestamp", TypeDate, Flags{}},
	{56, "Egress-VLANID", TypeInteger, Flags{}},
	{60, "CHAP-Challenge", TypeOctets, Flags{}},
	{61, "NAS-Port-Type", TypeInteger, Flags{}},
	{62, "Port-Limit", TypeInteger, Flags{}},
	{64, "Tunnel-Type", TypeInteger, Flags{HasTag: true}},
	{65, "Tunnel-Medium-Type", TypeInteger, Flags{HasTag: true}},
	{66, "Tunnel-Client-Endpoint", TypeString, Flags{HasTag: true}},
	{67, "Tunnel-Server-Endpoint", TypeString, Flags{HasTag: true}},
	{69, "Tunnel-Password", TypeString, Flags{HasTag: true, Encrypt: EncryptTunnelPassword}},
	{79, "EAP-Message", TypeOctets, Flags{Concat: true}},
	{80, "Message-Authenticator", TypeOctets, Flags{}},
	{81, "Tunnel-Private-Group-Id", TypeString, Flags{HasTag: true}},
	{82, "Tunnel-Assignment-Id", TypeString, Flags{HasTag: true}},
	{83, "Tunnel-Preference", TypeInteger, Flags{HasTag: true}},
	{87, "NAS-Port-Id", TypeString, Flags{}},
	{89, "Chargeable-User-Identity", TypeOctets, Flags{}},
	{95, "NAS-IPv6-Address", TypeIPv6Addr, Flags{}},
	{96, "Framed-Interface-Id", TypeIFID, Flags{}},
	{97, "Framed-IPv6-Prefix", TypeIPv6Prefix, Flags{}},
	{98, "Login-IPv6-Host", TypeIPv6Addr, Flags{}},
	{100, "Framed-IPv6-Pool", TypeString, Flags{}},
	{123, "Delegated-IPv6-Prefix", TypeIPv6Prefix, Flags{}},
	{241, "Extended-Attribute-1", TypeLongExtended, Flags{}},
	{242, "Extended-Attribute-2", TypeExtended, Flags{}},
	{245, "Extended-Attribute-5", TypeLongExtended, Flags{}},
}

// Builtin returns a dictionary populated with the base attribute set,
// the Cisco and WiMAX vendor spaces, and the extended-attribute tree.
func Builtin() *Dictionary {
	d := New()

	for _, row := range builtinTopLevel {
		// The table is static; collisions cannot happen.
		_ = d.Add(&Attribute{
			Name:   row.name,
			Number: row.number,
			Type:   row.typ,
			Flags:  row.flags,
		})
	}

	vsa := d.AttrByName("Vendor-Specific")

	cisco, _ := d.AddVendor(vsa, &Vendor{
		ID:          VendorCisco,
		Name:        "Cisco",
		TypeWidth:   1,
		LengthWidth: 1,
	})
	_ = d.Add(&Attribute{Name: "Cisco-AVPair", Vendor: VendorCisco, Number: 1, Type: TypeString, Parent: cisco})
	_ = d.Add(&Attribute{Name: "Cisco-NAS-Port", Vendor: VendorCisco, Number: 2, Type: TypeString, Parent: cisco})

	wimax, _ := d.AddVendor(vsa, &Vendor{
		ID:           VendorWiMAX,
		Name:         "WiMAX",
		TypeWidth:    1,
		LengthWidth:  1,
		Continuation: true,
	})
	_ = d.Add(&Attribute{Name: "WiMAX-Capability", Vendor: VendorWiMAX, Number: 1, Type: TypeTLV, Parent: wimax})
	capability := d.AttrByName("WiMAX-Capability")
	_ = d.Add(&Attribute{Name: "WiMAX-Release", Vendor: VendorWiMAX, Number: 1, Type: TypeString, Parent: capability})
	_ = d.Add(&Attribute{Name: "WiMAX-Accounting-Capabilities", Vendor: VendorWiMAX, Number: 2, Type: TypeByte, Parent: capability})
	_ = d.Add(&Attribute{Name: "WiMAX-Device-Authentication-Indicator", Vendor: VendorWiMAX, Number: 3, Type: TypeByte, Parent: wimax})

	// RFC 6929 extended tree: child 1 of Extended-Attribute-1 is the
	// Frag-Status-style octets carrier; child 26 of Extended-Attribute-2
	// is Extended-Vendor-Specific.
	ext1 := d.AttrByName("Extended-Attribute-1")
	_ = d.Add(&Attribute{Name: "Extended-Attribute-1-Data", Number: 1, Type: TypeOctets, Parent: ext1})
	ext2 := d.AttrByName("Extended-Attribute-2")
	_ = d.Add(&Attribute{Name: "Extended-Vendor-Specific-2", Number: 26, Type: TypeEVS, Parent: ext2})

	return d
}
