package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/goradius/internal/dict"
)

// errAttrNotFound indicates a dictionary lookup miss.
var errAttrNotFound = errors.New("attribute not found")

// attrJSON is the JSON view of one dictionary attribute.
type attrJSON struct {
	Name    string `json:"name"`
	Vendor  uint32 `json:"vendor,omitempty"`
	Number  uint32 `json:"number"`
	Type    string `json:"type"`
	HasTag  bool   `json:"has_tag,omitempty"`
	Encrypt string `json:"encrypt,omitempty"`
	Concat  bool   `json:"concat,omitempty"`
}

func dictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dict <name>",
		Short: "Look up an attribute in the dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			attr := dictionary.AttrByName(args[0])
			if attr == nil {
				return fmt.Errorf("%q: %w", args[0], errAttrNotFound)
			}

			if outputFormat == "json" {
				return printJSON(attrView(attr))
			}

			fmt.Printf("%s\n  vendor:  %d\n  number:  %d\n  type:    %s\n",
				attr.Name, attr.Vendor, attr.Number, attr.Type)
			if attr.Flags.HasTag {
				fmt.Println("  has_tag: true")
			}
			if attr.Flags.Encrypt != dict.EncryptNone {
				fmt.Printf("  encrypt: %s\n", attr.Flags.Encrypt)
			}
			if attr.Flags.Concat {
				fmt.Println("  concat:  true")
			}
			return nil
		},
	}
}

// attrView builds the JSON view of an attribute.
func attrView(attr *dict.Attribute) attrJSON {
	v := attrJSON{
		Name:   attr.Name,
		Vendor: attr.Vendor,
		Number: attr.Number,
		Type:   attr.Type.String(),
		HasTag: attr.Flags.HasTag,
		Concat: attr.Flags.Concat,
	}
	if attr.Flags.Encrypt != dict.EncryptNone {
		v.Encrypt = attr.Flags.Encrypt.String()
	}
	return v
}
