package transport

import (
	"go.uber.org/zap"
)

const (
	DefaultWriteQueue    = 127
	DefaultMaxLineLength = 4096
)

type Options struct {
	// Host to listen on
	Host string

	// Port to listen on. Zero picks a free port, see TCP.Addr
	Port int

	// Reuseport controls setting SO_REUSEPORT. Without it only one listener
	// is started, whatever NumListeners says.
	Reuseport bool

	// NumListeners is the number of accept loops bound to the same address.
	// Defaults to the number of CPUs.
	NumListeners int

	// WriteQueue is the number of outbound lines buffered per connection
	// before further lines are dropped.
	WriteQueue int

	// MaxLineLength is the longest inbound line accepted, in bytes. A longer
	// line ends the connection.
	MaxLineLength int

	Hub *Hub

	Log *zap.Logger
}

func (o Options) writeQueue() int {
	if o.WriteQueue < 1 {
		return DefaultWriteQueue
	}

	return o.WriteQueue
}

func (o Options) maxLineLength() int {
	if o.MaxLineLength < 1 {
		return DefaultMaxLineLength
	}

	return o.MaxLineLength
}
