package channel

import (
	"os"
	"time"

	"github.com/unitlink/unitlink/channel/face"
	"github.com/unitlink/unitlink/log"
)

// Config describes how to reach the agent endpoint.
type Config struct {
	// Endpoint URI: unix:///path, tcp://host:port, ws://host/path.
	Endpoint string `yaml:"endpoint"`
	// Connect-phase timeout in milliseconds.
	ConnectTimeoutMs uint32 `yaml:"connect_timeout_ms"`
	// Largest accepted inbound frame; zero keeps the built-in default.
	MaxFrameSize uint32 `yaml:"max_frame_size"`
	// Log level: TRACE, DEBUG, INFO, WARN, ERROR, FATAL.
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Endpoint:         "unix:///run/unitlink/agent.sock",
		ConnectTimeoutMs: 10000,
		LogLevel:         "INFO",
	}
}

// ApplyEnv overrides the endpoint from UNITLINK_ENDPOINT if set.
func (c *Config) ApplyEnv() {
	if endpoint := os.Getenv("UNITLINK_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	}
}

func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// NewFace builds the face for the configured endpoint.
func (c Config) NewFace() (face.Face, error) {
	f, err := face.NewFace(c.Endpoint)
	if err != nil {
		return nil, err
	}
	if stream, ok := f.(*face.StreamFace); ok {
		stream.MaxFrameSize = c.MaxFrameSize
	}
	return f, nil
}

// SetupLogging applies the configured log level to the default logger.
func (c Config) SetupLogging() {
	if c.LogLevel == "" {
		return
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warn(nil, "Invalid log level in config", "level", c.LogLevel)
		return
	}
	log.Default().SetLevel(level)
}
