package face

import (
	"fmt"
	"net/url"
)

// NewFace builds a face for an endpoint URI. Supported schemes are unix,
// tcp/tcp4/tcp6, and ws/wss.
func NewFace(endpoint string) (Face, error) {
	uri, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	switch uri.Scheme {
	case "unix":
		return NewStreamFace("unix", uri.Path), nil
	case "tcp", "tcp4", "tcp6":
		return NewStreamFace(uri.Scheme, uri.Host), nil
	case "ws", "wss":
		return NewWebSocketFace(endpoint), nil
	}

	return nil, fmt.Errorf("unsupported endpoint scheme: %s", uri.Scheme)
}
