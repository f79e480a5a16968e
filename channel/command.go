package channel

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/unitlink/unitlink/channel/face"
	"github.com/unitlink/unitlink/encoding"
)

// DataFunc consumes inbound payloads on the command role.
type DataFunc func(data []byte)

// StopFunc is invoked when the peer asks the unit to stop.
type StopFunc func()

// Command is the channel role used by the execution unit: fire-and-forget
// outbound results plus two kinds of inbound push.
type Command struct {
	*Channel

	onNewData atomic.Pointer[DataFunc]
	onStop    atomic.Pointer[StopFunc]
}

func NewCommand(f face.Face) *Command {
	c := &Command{}
	c.Channel = newChannel(f, c.handleIncoming)
	return c
}

func (c *Command) String() string {
	return "command-" + c.Channel.String()
}

// OnNewData replaces the sink for inbound data pushes.
func (c *Command) OnNewData(sink DataFunc) {
	if sink == nil {
		c.onNewData.Store(nil)
		return
	}
	c.onNewData.Store(&sink)
}

// OnStop replaces the sink for the stop signal.
func (c *Command) OnStop(sink StopFunc) {
	if sink == nil {
		c.onStop.Store(nil)
		return
	}
	c.onStop.Store(&sink)
}

// SendResult transmits an execution result.
func (c *Command) SendResult(data []byte) error {
	return c.sendLeaf(TypeResult, data)
}

// SendError transmits an execution error.
func (c *Command) SendError(data []byte) error {
	return c.sendLeaf(TypeError, data)
}

// SendReturnSuccess signals that the unit finished successfully.
func (c *Command) SendReturnSuccess() error {
	return c.Send(mustLeaf(TypeReturnSuccess, []byte{}).Bytes())
}

// SendReturnFailed signals that the unit finished with a failure.
func (c *Command) SendReturnFailed() error {
	return c.Send(mustLeaf(TypeReturnFailed, []byte{}).Bytes())
}

// SendConfOngoingResult announces that results will keep streaming.
func (c *Command) SendConfOngoingResult() error {
	conf := mustParent(TypeConfig)
	conf.AddChild(mustLeaf(ChildOngoing, []byte{0x01}))
	return c.Send(conf.Bytes())
}

// SendConfStopWait asks the peer to wait the given number of milliseconds
// before enforcing a stop.
func (c *Command) SendConfStopWait(ms int32) error {
	conf := mustParent(TypeConfig)
	conf.AddChild(mustLeaf(ChildStopWait, binary.LittleEndian.AppendUint32(nil, uint32(ms))))
	return c.Send(conf.Bytes())
}

func (c *Command) sendLeaf(typ byte, data []byte) error {
	t, err := encoding.NewLeaf(typ, data)
	if err != nil {
		return err
	}
	return c.Send(t.Bytes())
}

func (c *Command) handleIncoming(t *encoding.TLV) bool {
	switch t.Type() {
	case TypeStop:
		if sink := c.onStop.Load(); sink != nil {
			(*sink)()
		}
		return true

	case TypeNewData:
		if sink := c.onNewData.Load(); sink != nil {
			data, err := t.AsBytes()
			if err == nil {
				(*sink)(data)
			}
		}
		return true
	}

	return false
}
