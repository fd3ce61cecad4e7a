package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/goradius/internal/radius"
)

// errBadVector indicates an authenticator flag that is not 16 hex bytes.
var errBadVector = errors.New("authenticator must be 16 hex bytes")

func decodeCmd() *cobra.Command {
	var (
		secret        string
		authenticator string
		original      string
		attrsOnly     bool
	)

	cmd := &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Decode a RADIUS packet or attribute region from hex",
		Long: "Decodes the given hex bytes (whitespace between arguments is ignored) " +
			"as a full RADIUS packet, or as a bare attribute region with --attrs. " +
			"Provide --secret to decrypt User-Password and Tunnel-Password values.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(strings.ReplaceAll(strings.Join(args, ""), " ", ""))
			if err != nil {
				return fmt.Errorf("parse hex: %w", err)
			}

			dec := radius.Decoder{
				Dict:   dictionary,
				Secret: []byte(secret),
			}

			if original != "" {
				vec, err := parseVectorFlag(original)
				if err != nil {
					return err
				}
				dec.Original = &vec
			}

			var (
				attrs []byte
				pkt   *radius.Packet
			)
			if attrsOnly {
				attrs = raw
				if authenticator != "" {
					vec, err := parseVectorFlag(authenticator)
					if err != nil {
						return err
					}
					dec.Vector = vec
				}
			} else {
				pkt, err = radius.ParsePacket(raw)
				if err != nil {
					return err
				}
				dec.Vector = pkt.Authenticator
				attrs = pkt.Attrs
			}

			pairs, err := dec.DecodePairs(attrs)
			if err != nil {
				return err
			}

			return printPairs(pkt, pairs)
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "shared secret for encrypted attributes")
	cmd.Flags().StringVar(&authenticator, "authenticator", "", "hex request authenticator (with --attrs)")
	cmd.Flags().StringVar(&original, "original", "", "hex original request authenticator (reply decryption)")
	cmd.Flags().BoolVar(&attrsOnly, "attrs", false, "input is a bare attribute region without the 20-byte header")

	return cmd
}

// parseVectorFlag decodes a 16-byte hex authenticator flag.
func parseVectorFlag(s string) ([radius.VectorLen]byte, error) {
	var v [radius.VectorLen]byte

	raw, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return v, fmt.Errorf("parse authenticator: %w", err)
	}
	if len(raw) != radius.VectorLen {
		return v, errBadVector
	}
	copy(v[:], raw)

	return v, nil
}
