package face

import (
	"errors"
	"sync"
	"sync/atomic"
)

var ErrNotOpen = errors.New("face is not open")

// baseFace is the base struct for face implementations.
type baseFace struct {
	open    atomic.Bool
	sendMut sync.Mutex
}

func (f *baseFace) IsOpen() bool {
	return f.open.Load()
}

// setStateOpen marks the face open. Returns false if it already was.
func (f *baseFace) setStateOpen() bool {
	return !f.open.Swap(true)
}

// setStateClosed marks the face closed. Returns true if it was open.
func (f *baseFace) setStateClosed() bool {
	return f.open.Swap(false)
}
