package face

import (
	"fmt"
	"net"
	"time"

	ulio "github.com/unitlink/unitlink/utils/io"
)

// StreamFace runs frames over a connection-oriented byte stream ("unix",
// "tcp"). Framing is in-band: each frame is a little-endian u32 length
// followed by the body.
type StreamFace struct {
	baseFace
	network string
	addr    string
	conn    net.Conn

	// MaxFrameSize bounds inbound frame allocation; zero means the
	// package default.
	MaxFrameSize uint32
}

func NewStreamFace(network string, addr string) *StreamFace {
	return &StreamFace{
		network: network,
		addr:    addr,
	}
}

func (f *StreamFace) String() string {
	return fmt.Sprintf("stream-face (%s://%s)", f.network, f.addr)
}

func (f *StreamFace) Open(timeout time.Duration) error {
	if f.IsOpen() {
		return fmt.Errorf("face is already open")
	}

	c, err := net.DialTimeout(f.network, f.addr, timeout)
	if err != nil {
		return err
	}

	f.conn = c
	f.setStateOpen()
	return nil
}

func (f *StreamFace) Close() error {
	if f.setStateClosed() {
		if f.conn != nil {
			return f.conn.Close()
		}
	}
	return nil
}

func (f *StreamFace) Send(frame []byte) error {
	if !f.IsOpen() {
		return ErrNotOpen
	}

	f.sendMut.Lock()
	defer f.sendMut.Unlock()

	return ulio.WriteFrame(f.conn, frame)
}

func (f *StreamFace) Recv() ([]byte, error) {
	if !f.IsOpen() {
		return nil, ErrNotOpen
	}
	return ulio.ReadFrame(f.conn, f.MaxFrameSize)
}
