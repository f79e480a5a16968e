package tools

import (
	"encoding/hex"
	"fmt"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/unitlink/unitlink/channel"
	"github.com/unitlink/unitlink/log"
	"github.com/unitlink/unitlink/utils/toolutils"
)

// Probe connects to an agent endpoint as a Listener and retrieves the unit
// metadata and, with --data, the next outbound payload.
type Probe struct {
	config   string
	withData bool
	sendHex  string
	cfg      channel.Config
}

func CmdProbe() *cobra.Command {
	p := Probe{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "probe [ENDPOINT]",
		Short:   "Connect to an agent endpoint and retrieve metadata",
		Args:    cobra.MaximumNArgs(1),
		Example: `  unitlink probe unix:///tmp/unitlink-agent.sock
  unitlink probe --config channel.yml --data`,
		Run: p.run,
	}

	cmd.Flags().StringVar(&p.config, "config", "", "Channel configuration file (yaml)")
	cmd.Flags().BoolVar(&p.withData, "data", false, "Also request the next outbound payload")
	cmd.Flags().StringVar(&p.sendHex, "send", "", "Push the given hex payload after the requests")
	return cmd
}

func (p *Probe) String() string {
	return "probe"
}

func (p *Probe) run(_ *cobra.Command, args []string) {
	p.cfg = channel.DefaultConfig()
	if p.config != "" {
		if err := toolutils.ReadYaml(&p.cfg, p.config); err != nil {
			log.Fatal(p, "Unable to load configuration", "err", err)
		}
	}
	p.cfg.ApplyEnv()
	if len(args) == 1 {
		p.cfg.Endpoint = args[0]
	}
	p.cfg.SetupLogging()

	f, err := p.cfg.NewFace()
	if err != nil {
		log.Fatal(p, "Invalid endpoint", "err", err)
	}

	l := channel.NewListener(f)
	hello, err := l.Connect(p.cfg.ConnectTimeout())
	if err != nil {
		log.Fatal(p, "Unable to connect", "endpoint", p.cfg.Endpoint, "err", err)
	}
	defer l.Close()

	fmt.Printf("handshake: %s\n", printableOrHex(hello))

	meta, err := l.GetMetadata()
	if err != nil {
		log.Fatal(p, "Metadata request failed", "err", err)
	}
	fmt.Printf("metadata: %s\n", printableOrHex(meta))

	if p.withData {
		data, err := l.GetDataToSend()
		if err != nil {
			log.Fatal(p, "Data request failed", "err", err)
		}
		fmt.Printf("data: %s\n", printableOrHex(data))
	}

	if p.sendHex != "" {
		payload, err := hex.DecodeString(p.sendHex)
		if err != nil {
			log.Fatal(p, "Invalid hex payload", "err", err)
		}
		if err := l.NewDataFromC2(payload); err != nil {
			log.Fatal(p, "Push failed", "err", err)
		}
		fmt.Printf("pushed %d bytes\n", len(payload))
	}
}

func printableOrHex(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	for _, b := range data {
		if b > unicode.MaxASCII || !unicode.IsPrint(rune(b)) {
			return hex.EncodeToString(data)
		}
	}
	return string(data)
}
