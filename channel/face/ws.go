package face

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketFace runs frames over a websocket connection. Message boundaries
// carry the framing: one binary message per frame, no length prefix.
type WebSocketFace struct {
	baseFace
	url  string
	conn *websocket.Conn
}

func NewWebSocketFace(url string) *WebSocketFace {
	return &WebSocketFace{url: url}
}

func (f *WebSocketFace) String() string {
	return "websocket-face (" + f.url + ")"
}

func (f *WebSocketFace) Open(timeout time.Duration) error {
	if f.IsOpen() {
		return errors.New("face is already open")
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	c, _, err := dialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.conn = c
	f.setStateOpen()
	return nil
}

func (f *WebSocketFace) Close() error {
	if f.setStateClosed() {
		return f.conn.Close()
	}
	return nil
}

func (f *WebSocketFace) Send(frame []byte) error {
	if !f.IsOpen() {
		return ErrNotOpen
	}

	f.sendMut.Lock()
	defer f.sendMut.Unlock()

	return f.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (f *WebSocketFace) Recv() ([]byte, error) {
	for {
		if !f.IsOpen() {
			return nil, ErrNotOpen
		}

		messageType, frame, err := f.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		return frame, nil
	}
}
