// Package dispatch serialises access to the chat model. Transports hand it
// raw lines tagged with a connection id and get back the lines each
// connection has to be sent.
package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/chatd/model"
	"github.com/luma/chatd/protocol"
)

var (
	ErrUnknownConnection = errors.New("Unknown connection")
	ErrConnectionInUse   = errors.New("Connection already registered")
)

// Deliveries maps a connection id to the lines it must be sent, in order.
type Deliveries map[int][]string

// Len is the total number of lines across all connections.
func (d Deliveries) Len() (n int) {
	for _, lines := range d {
		n += len(lines)
	}

	return n
}

// Dispatcher owns a model. Every call runs parse, apply and nickname
// resolution under one lock, so ids are resolved against the state the
// transition left behind.
type Dispatcher struct {
	mu    sync.Mutex
	model *model.Model

	log *zap.Logger
}

func New(m *model.Model, log *zap.Logger) *Dispatcher {
	if m == nil {
		m = model.New(nil)
	}

	return &Dispatcher{
		model: m,
		log:   log,
	}
}

// Connect registers connection id under a generated nickname.
func (d *Dispatcher) Connect(id int) (Deliveries, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if nick, ok := d.model.Nickname(id); ok {
		return nil, fmt.Errorf("Failed to connect %d as %s: %w", id, nick, ErrConnectionInUse)
	}

	b := d.model.RegisterUser(id)
	d.updateGauges()

	nick, _ := d.model.Nickname(id)
	d.log.Info("Client connected",
		zap.Int("conn", id),
		zap.String("nickname", nick))

	return d.resolve(b), nil
}

// Disconnect forgets connection id and tells everyone who shared a channel
// with it. Unknown ids produce no deliveries.
func (d *Dispatcher) Disconnect(id int) Deliveries {
	d.mu.Lock()
	defer d.mu.Unlock()

	nick, ok := d.model.Nickname(id)
	if !ok {
		return Deliveries{}
	}

	b := d.model.DeregisterUser(id)
	d.updateGauges()

	d.log.Info("Client disconnected",
		zap.Int("conn", id),
		zap.String("nickname", nick),
		zap.Int("notified", b.Len()))

	return d.resolve(b)
}

// Handle parses line as a command from connection id and applies it.
//
// A line that does not parse returns the parse error and no deliveries; the
// state is untouched and the connection can carry on. Rejected commands are
// not errors here: they come back as an ERROR line for the sender.
func (d *Dispatcher) Handle(id int, line string) (Deliveries, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nick, ok := d.model.Nickname(id)
	if !ok {
		return nil, fmt.Errorf("Failed to handle line from %d: %w", id, ErrUnknownConnection)
	}

	cmd, err := protocol.Parse(id, nick, line)
	if err != nil {
		ParseFailuresTotal.Inc()
		d.log.Warn("Failed to parse line",
			zap.Int("conn", id),
			zap.String("nickname", nick),
			zap.Error(err))

		return nil, err
	}

	keyword := string(cmd.Keyword())
	start := time.Now()

	b := d.model.Apply(cmd)

	CommandDuration.WithLabelValues(keyword).Observe(time.Since(start).Seconds())
	CommandsTotal.WithLabelValues(keyword, b.Response().String()).Inc()
	d.updateGauges()

	if resp := b.Response(); resp != protocol.RespOkay {
		d.log.Debug("Command rejected",
			zap.Int("conn", id),
			zap.String("command", cmd.String()),
			zap.Stringer("response", resp))
	}

	return d.resolve(b), nil
}

// Nickname returns the nickname connection id is registered under.
func (d *Dispatcher) Nickname(id int) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.model.Nickname(id)
}

// Snapshot renders the current state as JSON.
func (d *Dispatcher) Snapshot() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.model.Snapshot()
}

func (d *Dispatcher) resolve(b *protocol.Broadcast) Deliveries {
	deliveries := Deliveries(b.Resolve(d.model))

	if skipped := b.Len() - len(deliveries); skipped > 0 {
		d.log.Warn("Dropped lines for unknown nicknames", zap.Int("recipients", skipped))
	}

	return deliveries
}

func (d *Dispatcher) updateGauges() {
	ConnectedClients.Set(float64(len(d.model.RegisteredUsers())))
	Channels.Set(float64(len(d.model.Channels())))
}
