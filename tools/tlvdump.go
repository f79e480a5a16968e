package tools

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/unitlink/unitlink/encoding"
)

type TlvDump struct {
	fromFile bool
}

func CmdTlvDump() *cobra.Command {
	td := TlvDump{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "tlvdump HEX-OR-FILE",
		Short:   "Decode a TLV blob and print it as a tree",
		Args:    cobra.ExactArgs(1),
		Example: `  unitlink tlvdump 2302000000dead
  unitlink tlvdump --file frame.bin`,
		Run: td.run,
	}

	cmd.Flags().BoolVar(&td.fromFile, "file", false, "Read the blob from a file instead of a hex string")
	return cmd
}

func (td *TlvDump) run(_ *cobra.Command, args []string) {
	var blob []byte
	var err error

	if td.fromFile {
		blob, err = os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read %s: %v\n", args[0], err)
			os.Exit(1)
		}
	} else {
		blob, err = hex.DecodeString(strings.ReplaceAll(args[0], " ", ""))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid hex string: %v\n", err)
			os.Exit(1)
		}
	}

	// A blob may concatenate several nodes; dump them all.
	for len(blob) > 0 {
		t, err := encoding.Parse(blob)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error at trailing %d bytes: %v\n", len(blob), err)
			os.Exit(1)
		}
		dumpNode(t, 0)
		blob = blob[t.FullSize():]
	}
}

func dumpNode(t *encoding.TLV, depth int) {
	indent := strings.Repeat("  ", depth)
	if t.IsParent() {
		fmt.Printf("%stype=0x%02X parent size=%d\n", indent, t.Type(), t.FullSize())
		for _, child := range t.Children() {
			dumpNode(child, depth+1)
		}
		return
	}

	data := t.Data()
	fmt.Printf("%stype=0x%02X leaf len=%d %s%s\n",
		indent, t.Type(), len(data), hex.EncodeToString(data), printable(data))
}

func printable(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	for _, b := range data {
		if b > unicode.MaxASCII || !unicode.IsPrint(rune(b)) {
			return ""
		}
	}
	return fmt.Sprintf(" (%q)", data)
}
