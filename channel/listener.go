package channel

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unitlink/unitlink/channel/face"
	"github.com/unitlink/unitlink/encoding"
	"github.com/unitlink/unitlink/types/optional"
)

// CallbackFunc consumes unsolicited payloads pushed by the peer.
type CallbackFunc func(data []byte)

// Listener is the channel role that issues sequence-numbered requests and
// correlates the asynchronously arriving responses with blocked callers.
type Listener struct {
	*Channel

	// nextSeq is guarded by the channel send mutex so that sequence
	// numbers are monotone in wire order.
	nextSeq int32

	callback atomic.Pointer[CallbackFunc]

	// respMut guards both tables. Never held across I/O.
	respMut   sync.Mutex
	responses map[int32]*encoding.TLV
	wakers    map[int32]chan struct{}
}

func NewListener(f face.Face) *Listener {
	l := &Listener{
		nextSeq:   1,
		responses: make(map[int32]*encoding.TLV),
		wakers:    make(map[int32]chan struct{}),
	}
	l.Channel = newChannel(f, l.handleIncoming)
	return l
}

func (l *Listener) String() string {
	return "listener-" + l.Channel.String()
}

// SetCallback replaces the sink for unsolicited payloads. Passing nil
// removes it.
func (l *Listener) SetCallback(sink CallbackFunc) {
	if sink == nil {
		l.callback.Store(nil)
		return
	}
	l.callback.Store(&sink)
}

// GetMetadata asks the peer for the unit metadata and blocks until the
// correlated response arrives. The payload is nil if the response carries
// none.
func (l *Listener) GetMetadata() ([]byte, error) {
	return l.request(TypeMetadataRequest)
}

// GetDataToSend asks the peer for the next outbound payload and blocks
// until the correlated response arrives.
func (l *Listener) GetDataToSend() ([]byte, error) {
	return l.request(TypeDataRequest)
}

// NewDataFromC2 pushes received data toward the peer without waiting.
func (l *Listener) NewDataFromC2(data []byte) error {
	t, err := encoding.NewLeaf(TypeChannelData, data)
	if err != nil {
		return err
	}
	return l.Send(t.Bytes())
}

func (l *Listener) request(reqType byte) ([]byte, error) {
	seq, err := l.sendRequest(reqType)
	if err != nil {
		return nil, err
	}
	payload, _ := l.WaitForResponse(seq, -1).Get()
	return payload, nil
}

// sendRequest allocates the sequence number and transmits the request as one
// step under the send mutex, keeping sequence numbers monotone on the wire.
func (l *Listener) sendRequest(reqType byte) (int32, error) {
	l.sendMut.Lock()
	defer l.sendMut.Unlock()

	seq := l.nextSeq
	l.nextSeq++

	req := mustParent(reqType)
	req.AddChild(mustLeaf(ChildSelector, []byte{0x01}))
	req.AddChild(mustLeaf(ChildSequence, binary.LittleEndian.AppendUint32(nil, uint32(seq))))

	if err := l.sendLocked(req.Bytes()); err != nil {
		return 0, err
	}
	return seq, nil
}

// WaitForResponse blocks until the response with the given sequence number
// arrives, then yields its data child, or none if the child is missing. A
// negative timeout waits forever; on timeout the waker is removed and none
// is returned. Responses that arrived before the call are consumed
// immediately.
func (l *Listener) WaitForResponse(id int32, timeout time.Duration) optional.Optional[[]byte] {
	l.respMut.Lock()
	if resp, ok := l.responses[id]; ok {
		delete(l.responses, id)
		delete(l.wakers, id)
		l.respMut.Unlock()
		return responsePayload(resp)
	}

	// Register before waiting; the handler only signals a waker that is
	// already in the table.
	waker := make(chan struct{}, 1)
	l.wakers[id] = waker
	l.respMut.Unlock()

	if timeout >= 0 {
		select {
		case <-waker:
		case <-time.After(timeout):
			l.respMut.Lock()
			delete(l.wakers, id)
			l.respMut.Unlock()
			return optional.None[[]byte]()
		}
	} else {
		<-waker
	}

	// Re-check under the mutex: dispose may have woken us with no
	// response to deliver.
	l.respMut.Lock()
	resp, ok := l.responses[id]
	if ok {
		delete(l.responses, id)
	}
	delete(l.wakers, id)
	l.respMut.Unlock()

	if !ok {
		return optional.None[[]byte]()
	}
	return responsePayload(resp)
}

func responsePayload(resp *encoding.TLV) optional.Optional[[]byte] {
	child := resp.GetChild(ChildData, 0)
	if child == nil {
		return optional.None[[]byte]()
	}
	data, err := child.AsBytes()
	if err != nil {
		return optional.None[[]byte]()
	}
	return optional.Some(data)
}

// handleIncoming dispatches inbound TLVs: callbacks go to the user sink,
// responses are parked in the correlation table and any registered waker is
// signaled. The response is always stored before the waker fires.
func (l *Listener) handleIncoming(t *encoding.TLV) bool {
	switch t.Type() {
	case TypeCallback:
		if child := t.GetChild(ChildData, 0); child != nil {
			if sink := l.callback.Load(); sink != nil {
				data, err := child.AsBytes()
				if err == nil {
					(*sink)(data)
				}
			}
		}
		return true

	case TypeMetadataRequest, TypeDataRequest:
		child := t.GetChild(ChildSequence, 0)
		if child == nil {
			return false
		}
		id, ok := child.I32().Get()
		if !ok {
			return false
		}

		l.respMut.Lock()
		l.responses[id] = t
		if waker, registered := l.wakers[id]; registered {
			select {
			case waker <- struct{}{}:
			default:
			}
		}
		l.respMut.Unlock()
		return true
	}

	return false
}

// Close tears down the transport, then wakes and clears every waiter.
func (l *Listener) Close() error {
	err := l.Channel.Close()

	l.respMut.Lock()
	for _, waker := range l.wakers {
		close(waker)
	}
	l.wakers = make(map[int32]chan struct{})
	l.responses = make(map[int32]*encoding.TLV)
	l.respMut.Unlock()

	return err
}
