// Package channel implements the framed request/response messaging channel
// between an agent process and an execution unit. A Channel owns a face, a
// single receive pump goroutine, and a serialized send path; the Listener
// and Command roles layer their dispatch on top of it.
package channel

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unitlink/unitlink/channel/face"
	"github.com/unitlink/unitlink/encoding"
	"github.com/unitlink/unitlink/log"
)

// ErrNotActive is returned by outbound calls after the channel went down.
var ErrNotActive = errors.New("channel is not active")

// pumpJoinTimeout bounds how long Close waits for the pump to exit.
const pumpJoinTimeout = 2 * time.Second

// Channel is the framed transport core. It is constructed inert, becomes
// active on a successful Connect, and is permanently inactive after Close or
// an unrecoverable I/O error.
type Channel struct {
	face face.Face

	active  atomic.Bool
	sendMut sync.Mutex

	cancel      chan struct{}
	pumpDone    chan struct{}
	pumpStarted atomic.Bool
	closeOnce   sync.Once

	// dispatch is the role's inbound handler. Its return value marks the
	// TLV as recognized; the pump ignores it beyond tracing.
	dispatch func(t *encoding.TLV) bool
}

func newChannel(f face.Face, dispatch func(*encoding.TLV) bool) *Channel {
	return &Channel{
		face:     f,
		cancel:   make(chan struct{}),
		pumpDone: make(chan struct{}),
		dispatch: dispatch,
	}
}

func (c *Channel) String() string {
	return "channel (" + c.face.String() + ")"
}

// IsActive returns true between a successful Connect and teardown.
func (c *Channel) IsActive() bool {
	return c.active.Load()
}

// Connect opens the face, reads the handshake frame, and starts the receive
// pump. The handshake must parse as a leaf TLV; its payload is returned.
// On any failure the channel is left fully disposed.
func (c *Channel) Connect(timeout time.Duration) ([]byte, error) {
	if c.active.Load() {
		return nil, fmt.Errorf("channel is already connected")
	}

	if err := c.face.Open(timeout); err != nil {
		return nil, err
	}
	c.active.Store(true)

	frame, err := c.face.Recv()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("handshake read: %w", err)
	}

	hello, err := encoding.Parse(frame)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("handshake parse: %w", err)
	}
	if hello.IsParent() {
		c.Close()
		return nil, fmt.Errorf("handshake is not a leaf")
	}

	c.pumpStarted.Store(true)
	go c.pump()

	log.Debug(c, "Channel connected")
	return hello.Data(), nil
}

// Send transmits one frame under the send mutex. Callers never observe a
// partial frame. On an I/O error the channel deactivates and later calls
// fail without touching the face.
func (c *Channel) Send(body []byte) error {
	c.sendMut.Lock()
	defer c.sendMut.Unlock()
	return c.sendLocked(body)
}

func (c *Channel) sendLocked(body []byte) error {
	if !c.active.Load() {
		return ErrNotActive
	}
	if err := c.face.Send(body); err != nil {
		c.active.Store(false)
		return err
	}
	return nil
}

// pump reads frames and hands parsed TLVs to the role dispatcher. A frame
// that fails to parse is dropped; the channel stays up. The pump exits on
// cancellation, EOF, or any transport error.
func (c *Channel) pump() {
	defer close(c.pumpDone)

	for c.active.Load() {
		select {
		case <-c.cancel:
			return
		default:
		}

		frame, err := c.face.Recv()
		if err != nil {
			if c.active.Swap(false) {
				select {
				case <-c.cancel:
				default:
					log.Debug(c, "Receive pump stopped", "err", err)
				}
			}
			return
		}

		t, err := encoding.Parse(frame)
		if err != nil {
			log.Warn(c, "Dropping malformed frame", "err", err)
			continue
		}

		if !c.dispatch(t) {
			log.Trace(c, "Unhandled inbound TLV", "type", t.Type())
		}
	}
}

// Close tears the channel down: deactivate, cancel the pump, close the face
// to unblock a pending read, then join the pump with a bounded wait. It is
// idempotent and safe from any goroutine.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.active.Store(false)
		close(c.cancel)
		c.face.Close()

		if c.pumpStarted.Load() {
			select {
			case <-c.pumpDone:
			case <-time.After(pumpJoinTimeout):
				log.Warn(c, "Receive pump did not exit in time")
			}
		}

		log.Debug(c, "Channel closed")
	})
	return nil
}

// mustLeaf builds a leaf whose type and payload are compile-time valid.
func mustLeaf(typ byte, data []byte) *encoding.TLV {
	t, err := encoding.NewLeaf(typ, data)
	if err != nil {
		panic(err)
	}
	return t
}

// mustParent builds a parent whose type is compile-time valid.
func mustParent(typ byte) *encoding.TLV {
	t, err := encoding.NewParent(typ)
	if err != nil {
		panic(err)
	}
	return t
}
