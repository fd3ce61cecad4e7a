package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dantte-lp/goradius/internal/radius"
	"github.com/dantte-lp/goradius/internal/usersfile"
)

// errBadFormat indicates an unrecognized --format value.
var errBadFormat = errors.New("format must be table or json")

// pairJSON is the JSON view of one decoded pair.
type pairJSON struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Tag   uint8  `json:"tag,omitempty"`
	Value string `json:"value"`
}

// packetJSON is the JSON view of a decoded packet.
type packetJSON struct {
	Code  string     `json:"code,omitempty"`
	ID    *uint8     `json:"id,omitempty"`
	Pairs []pairJSON `json:"pairs"`
}

// printPairs renders a decoded pair list. pkt may be nil when only an
// attribute region was decoded.
func printPairs(pkt *radius.Packet, pairs *radius.Pair) error {
	switch outputFormat {
	case "json":
		out := packetJSON{Pairs: []pairJSON{}}
		if pkt != nil {
			out.Code = pkt.Code.String()
			id := pkt.ID
			out.ID = &id
		}
		for p := pairs; p != nil; p = p.Next {
			out.Pairs = append(out.Pairs, pairJSON{
				Name:  p.Attr.Name,
				Type:  p.Value.Kind.String(),
				Tag:   p.Tag,
				Value: p.Value.String(),
			})
		}
		return printJSON(out)

	case "table":
		if pkt != nil {
			fmt.Printf("%s id=%d\n", pkt.Code, pkt.ID)
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ATTRIBUTE\tTYPE\tVALUE")
		for p := pairs; p != nil; p = p.Next {
			name := p.Attr.Name
			if p.Tag != radius.TagNone {
				name = fmt.Sprintf("%s:%d", name, p.Tag)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Value.Kind, p.Value)
		}
		return w.Flush()

	default:
		return errBadFormat
	}
}

// printEntries renders parsed users-file entries.
func printEntries(entries []*usersfile.Entry) error {
	switch outputFormat {
	case "json":
		return printJSON(entries)

	case "table":
		for _, e := range entries {
			fmt.Printf("%s (line %d, order %d)\n", e.Name, e.Line, e.Order)
			for _, item := range e.Check {
				fmt.Printf("  check: %s\n", item)
			}
			for _, item := range e.Reply {
				fmt.Printf("  reply: %s\n", item)
			}
		}
		return nil

	default:
		return errBadFormat
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
