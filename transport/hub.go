package transport

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/chatd/dispatch"
)

var (
	ErrWriteQueueFull = errors.New("Write queue full")
	ErrConnClosed     = errors.New("Connection closed")
)

// Peer is one live client connection, whatever carries it.
type Peer interface {
	// Send queues lines for the peer without blocking.
	Send(lines ...string) error

	Close() error
}

// Hub hands out connection ids and routes dispatcher deliveries to peers.
//
// Dispatch and delivery happen under one lock so that every peer sees
// lines in the order the model produced them.
type Hub struct {
	dispatcher *dispatch.Dispatcher

	nextID int64

	mu    sync.Mutex
	peers map[int]Peer

	log *zap.Logger
}

func NewHub(dispatcher *dispatch.Dispatcher, log *zap.Logger) *Hub {
	return &Hub{
		dispatcher: dispatcher,
		peers:      make(map[int]Peer),
		log:        log,
	}
}

// Attach registers peer and returns the connection id it was given.
func (h *Hub) Attach(peer Peer) (int, error) {
	id := int(atomic.AddInt64(&h.nextID, 1))

	h.mu.Lock()
	defer h.mu.Unlock()

	h.peers[id] = peer

	deliveries, err := h.dispatcher.Connect(id)
	if err != nil {
		delete(h.peers, id)
		return 0, err
	}

	h.deliver(deliveries)

	return id, nil
}

// Receive handles one inbound line from connection id. The returned error
// is the parse error, if any; the connection stays usable either way.
func (h *Hub) Receive(id int, line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	deliveries, err := h.dispatcher.Handle(id, line)
	if err != nil {
		return err
	}

	h.deliver(deliveries)

	return nil
}

// Detach forgets connection id and notifies the users it shared channels
// with. Detaching an unknown id does nothing.
func (h *Hub) Detach(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.peers[id]; !ok {
		return
	}

	delete(h.peers, id)
	h.deliver(h.dispatcher.Disconnect(id))
}

// Len is the number of attached peers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.peers)
}

// Close closes every attached peer. Peers detach themselves as they stop.
func (h *Hub) Close() (err error) {
	h.mu.Lock()
	peers := make([]Peer, 0, len(h.peers))
	for _, peer := range h.peers {
		peers = append(peers, peer)
	}
	h.mu.Unlock()

	for _, peer := range peers {
		err = multierr.Append(err, peer.Close())
	}

	return err
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(deliveries dispatch.Deliveries) {
	var err error

	for id, lines := range deliveries {
		peer, ok := h.peers[id]
		if !ok {
			continue
		}

		if serr := peer.Send(lines...); serr != nil {
			err = multierr.Append(err, fmt.Errorf("Failed to deliver to %d: %w", id, serr))
		}
	}

	if err != nil {
		h.log.Warn("Lines were dropped", zap.Error(err))
	}
}
