// Package face abstracts the duplex byte stream a channel runs over. A face
// delivers whole frames: the stream variants carry the length prefix in-band,
// the websocket variant maps one frame to one binary message.
package face

import "time"

type Face interface {
	// String returns a description of the face for logging.
	String() string
	// IsOpen returns true if the face is open.
	IsOpen() bool
	// Open establishes the connection, honoring the timeout for the
	// connect phase only.
	Open(timeout time.Duration) error
	// Close tears the connection down. Closing unblocks a pending Recv.
	Close() error
	// Send transmits one frame. Safe for concurrent use.
	Send(frame []byte) error
	// Recv blocks until one whole frame arrives. Single reader only.
	Recv() ([]byte, error)
}
