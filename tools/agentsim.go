package tools

import (
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/unitlink/unitlink/channel"
	"github.com/unitlink/unitlink/encoding"
	"github.com/unitlink/unitlink/log"
	ulio "github.com/unitlink/unitlink/utils/io"
)

// AgentSim plays the agent side of a channel for testing: it listens on an
// endpoint, sends the handshake, answers requests with canned payloads, and
// prints whatever the peer pushes.
type AgentSim struct {
	endpoint  string
	handshake string
	metadata  string
	data      string
}

func CmdAgentSim() *cobra.Command {
	as := AgentSim{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "agentsim",
		Short:   "Run a minimal agent-side peer for channel testing",
		Args:    cobra.NoArgs,
		Example: `  unitlink agentsim --endpoint unix:///tmp/agent.sock`,
		Run:     as.run,
	}

	cmd.Flags().StringVar(&as.endpoint, "endpoint", "unix:///tmp/unitlink-agent.sock", "Endpoint to listen on (unix:// or tcp://)")
	cmd.Flags().StringVar(&as.handshake, "handshake", "agentsim", "Handshake payload")
	cmd.Flags().StringVar(&as.metadata, "metadata", "agentsim metadata", "Payload for metadata requests")
	cmd.Flags().StringVar(&as.data, "data", "agentsim data", "Payload for data requests")
	return cmd
}

func (as *AgentSim) String() string {
	return "agentsim"
}

func (as *AgentSim) run(_ *cobra.Command, _ []string) {
	uri, err := url.Parse(as.endpoint)
	if err != nil {
		log.Fatal(as, "Invalid endpoint", "endpoint", as.endpoint, "err", err)
	}

	var ln net.Listener
	switch uri.Scheme {
	case "unix":
		os.Remove(uri.Path)
		ln, err = net.Listen("unix", uri.Path)
	case "tcp", "tcp4", "tcp6":
		ln, err = net.Listen(uri.Scheme, uri.Host)
	default:
		log.Fatal(as, "Unsupported endpoint scheme", "scheme", uri.Scheme)
	}
	if err != nil {
		log.Fatal(as, "Unable to listen", "endpoint", as.endpoint, "err", err)
	}
	defer ln.Close()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		ln.Close()
	}()

	log.Info(as, "Listening", "endpoint", as.endpoint)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		as.serve(conn)
	}
}

func (as *AgentSim) serve(conn net.Conn) {
	defer conn.Close()
	log.Info(as, "Peer connected", "remote", conn.RemoteAddr())

	hello, err := encoding.NewLeaf(0x10, []byte(as.handshake))
	if err != nil {
		log.Error(as, "Handshake build failed", "err", err)
		return
	}
	if err := ulio.WriteFrame(conn, hello.Bytes()); err != nil {
		log.Error(as, "Handshake send failed", "err", err)
		return
	}

	for {
		frame, err := ulio.ReadFrame(conn, 0)
		if err != nil {
			log.Info(as, "Peer disconnected", "err", err)
			return
		}

		req, err := encoding.Parse(frame)
		if err != nil {
			log.Warn(as, "Dropping malformed frame", "err", err)
			continue
		}

		switch req.Type() {
		case channel.TypeMetadataRequest, channel.TypeDataRequest:
			if err := as.respond(conn, req); err != nil {
				log.Error(as, "Response send failed", "err", err)
				return
			}

		case channel.TypeChannelData:
			log.Info(as, "Peer pushed data", "hex", hex.EncodeToString(req.Data()))

		case channel.TypeResult:
			log.Info(as, "Peer result", "hex", hex.EncodeToString(req.Data()))

		case channel.TypeError:
			log.Info(as, "Peer error", "data", string(req.Data()))

		case channel.TypeReturnSuccess:
			log.Info(as, "Peer returned success")

		case channel.TypeReturnFailed:
			log.Info(as, "Peer returned failure")

		default:
			log.Warn(as, "Unhandled TLV", "type", req.Type())
		}
	}
}

func (as *AgentSim) respond(conn net.Conn, req *encoding.TLV) error {
	seqChild := req.GetChild(channel.ChildSequence, 0)
	if seqChild == nil {
		log.Warn(as, "Request without sequence number")
		return nil
	}

	payload := as.metadata
	if req.Type() == channel.TypeDataRequest {
		payload = as.data
	}

	resp, err := encoding.NewParent(req.Type())
	if err != nil {
		return err
	}
	if err := resp.AddChild(seqChild); err != nil {
		return err
	}
	data, err := encoding.NewLeaf(channel.ChildData, []byte(payload))
	if err != nil {
		return err
	}
	if err := resp.AddChild(data); err != nil {
		return err
	}

	log.Debug(as, "Answering request", "type", req.Type(), "seq", seqChild.I32().GetOr(-1))
	return ulio.WriteFrame(conn, resp.Bytes())
}
