package channel_test

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unitlink/unitlink/channel"
	"github.com/unitlink/unitlink/channel/face"
	"github.com/unitlink/unitlink/encoding"
	tu "github.com/unitlink/unitlink/utils/testutils"
)

func startListener(t *testing.T) (*face.DummyFace, *channel.Listener) {
	tu.SetT(t)

	f := face.NewDummyFace()
	f.FeedFrame(tu.NoErr(encoding.NewLeaf(0x10, []byte("hello"))).Bytes())

	l := channel.NewListener(f)
	payload, err := l.Connect(time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), payload)

	t.Cleanup(func() { l.Close() })
	return f, l
}

func makeResponse(t *testing.T, typ byte, seq int32, data []byte) []byte {
	resp := tu.NoErr(encoding.NewParent(typ))
	seqChild := tu.NoErr(encoding.NewLeaf(0x02, binary.LittleEndian.AppendUint32(nil, uint32(seq))))
	require.NoError(t, resp.AddChild(seqChild))
	if data != nil {
		require.NoError(t, resp.AddChild(tu.NoErr(encoding.NewLeaf(0x04, data))))
	}
	return resp.Bytes()
}

func TestListenerGetMetadata(t *testing.T) {
	f, l := startListener(t)

	done := make(chan []byte, 1)
	go func() {
		data, err := l.GetMetadata()
		require.NoError(t, err)
		done <- data
	}()

	frame := tu.NoErr(f.Consume(time.Second))
	req := tu.NoErr(encoding.Parse(frame))
	require.Equal(t, byte(0x21), req.Type())
	require.True(t, req.IsParent())

	selector := req.GetChild(0x01, 0)
	require.NotNil(t, selector)
	require.Equal(t, byte(0x01), tu.NoErr(selector.AsByte()))

	seq := req.GetChild(0x02, 0).I32().Unwrap()
	require.Equal(t, int32(1), seq)

	f.FeedFrame(makeResponse(t, 0x21, seq, []byte("M")))

	select {
	case data := <-done:
		require.Equal(t, []byte("M"), data)
	case <-time.After(time.Second):
		t.Fatal("caller did not return")
	}
}

func TestListenerSequenceMonotone(t *testing.T) {
	f, l := startListener(t)

	responder := func() {
		frame := tu.NoErr(f.Consume(time.Second))
		req := tu.NoErr(encoding.Parse(frame))
		seq := req.GetChild(0x02, 0).I32().Unwrap()
		f.FeedFrame(makeResponse(t, req.Type(), seq, []byte{byte(seq)}))
	}

	go responder()
	data, err := l.GetMetadata()
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, data)

	go responder()
	data, err = l.GetDataToSend()
	require.NoError(t, err)
	require.Equal(t, []byte{0x02}, data)
}

func TestListenerGetDataToSendType(t *testing.T) {
	f, l := startListener(t)

	go func() {
		l.GetDataToSend()
	}()

	frame := tu.NoErr(f.Consume(time.Second))
	req := tu.NoErr(encoding.Parse(frame))
	require.Equal(t, byte(0x22), req.Type())
}

func TestListenerEarlyResponse(t *testing.T) {
	f, l := startListener(t)

	f.FeedFrame(makeResponse(t, 0x21, 5, []byte("early")))

	// The response is parked until a waiter shows up; a waiter arriving
	// later consumes it without blocking.
	require.Eventually(t, func() bool {
		data, ok := l.WaitForResponse(5, 0).Get()
		return ok && string(data) == "early"
	}, time.Second, 5*time.Millisecond)
}

func TestListenerTimeout(t *testing.T) {
	_, l := startListener(t)

	start := time.Now()
	result := l.WaitForResponse(42, 50*time.Millisecond)
	elapsed := time.Since(start)
	require.False(t, result.IsSet())
	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	require.Less(t, elapsed, time.Second)
}

func TestListenerResponseWithoutPayload(t *testing.T) {
	f, l := startListener(t)

	f.FeedFrame(makeResponse(t, 0x22, 9, nil))

	// Marker response to know the pump has processed the first frame.
	f.FeedFrame(makeResponse(t, 0x22, 10, []byte{0x01}))
	require.Eventually(t, func() bool {
		return l.WaitForResponse(10, 0).IsSet()
	}, time.Second, 5*time.Millisecond)

	// The stored response yields none to the waiter, without blocking.
	start := time.Now()
	require.False(t, l.WaitForResponse(9, time.Minute).IsSet())
	require.Less(t, time.Since(start), time.Second)
}

func TestListenerCallback(t *testing.T) {
	f, l := startListener(t)

	var mu sync.Mutex
	var got [][]byte
	l.SetCallback(func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, data)
	})

	push := tu.NoErr(encoding.NewParent(0x20))
	require.NoError(t, push.AddChild(tu.NoErr(encoding.NewLeaf(0x04, []byte("ping")))))
	f.FeedFrame(push.Bytes())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && string(got[0]) == "ping"
	}, time.Second, 5*time.Millisecond)

	// A callback with no data child is consumed without invoking the sink.
	empty := tu.NoErr(encoding.NewParent(0x20))
	f.FeedFrame(empty.Bytes())

	f.FeedFrame(makeResponse(t, 0x21, 1, []byte{0x00}))
	require.Eventually(t, func() bool {
		return l.WaitForResponse(1, 0).IsSet()
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
}

func TestListenerNewDataFromC2(t *testing.T) {
	f, l := startListener(t)

	require.NoError(t, l.NewDataFromC2([]byte{0xDE, 0xAD}))

	frame := tu.NoErr(f.Consume(time.Second))
	require.Equal(t, []byte{0x23, 0x02, 0x00, 0x00, 0x00, 0xDE, 0xAD}, frame)
}

func TestListenerMalformedFramesAreDropped(t *testing.T) {
	f, l := startListener(t)

	f.FeedFrame([]byte{0x21})                           // truncated header
	f.FeedFrame([]byte{0x01, 0xFF, 0x00, 0x00, 0x00})   // length overruns
	f.FeedFrame(makeResponse(t, 0x21, 3, []byte("ok"))) // still healthy

	require.Eventually(t, func() bool {
		data, ok := l.WaitForResponse(3, 0).Get()
		return ok && string(data) == "ok"
	}, time.Second, 5*time.Millisecond)
}

func TestListenerResponseWithoutSequenceIsIgnored(t *testing.T) {
	f, l := startListener(t)

	noSeq := tu.NoErr(encoding.NewParent(0x21))
	require.NoError(t, noSeq.AddChild(tu.NoErr(encoding.NewLeaf(0x04, []byte("stray")))))
	f.FeedFrame(noSeq.Bytes())

	badSeq := tu.NoErr(encoding.NewParent(0x21))
	require.NoError(t, badSeq.AddChild(tu.NoErr(encoding.NewLeaf(0x02, []byte{0x01}))))
	f.FeedFrame(badSeq.Bytes())

	f.FeedFrame(makeResponse(t, 0x21, 7, []byte("real")))
	require.Eventually(t, func() bool {
		data, ok := l.WaitForResponse(7, 0).Get()
		return ok && string(data) == "real"
	}, time.Second, 5*time.Millisecond)
}

func TestListenerCloseWakesWaiters(t *testing.T) {
	_, l := startListener(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		result := l.WaitForResponse(1, time.Minute)
		require.False(t, result.IsSet())
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not released by close")
	}
}

func TestListenerSendAfterClose(t *testing.T) {
	_, l := startListener(t)

	require.NoError(t, l.Close())
	require.ErrorIs(t, l.NewDataFromC2([]byte{0x01}), channel.ErrNotActive)
	_, err := l.GetMetadata()
	require.ErrorIs(t, err, channel.ErrNotActive)
}
