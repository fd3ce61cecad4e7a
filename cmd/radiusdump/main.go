// radiusdump is the offline companion to goradiusd: it decodes RADIUS
// packets from hex dumps, parses users files, and inspects the attribute
// dictionary.
package main

import (
	"fmt"
	"os"

	"github.com/dantte-lp/goradius/cmd/radiusdump/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
