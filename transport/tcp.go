package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/chatd/protocol"
)

// drainTimeout bounds how long a closing connection spends flushing its
// write queue.
const drainTimeout = time.Second

type TCP struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr    string
	options Options

	numListeners int
	listeners    []*TCPListener

	closeOnce sync.Once
	closeErr  error

	log *zap.Logger
}

func NewTCP(options Options) *TCP {
	numListeners := options.NumListeners

	if numListeners < 1 {
		numListeners = runtime.NumCPU()
	}

	if !options.Reuseport {
		numListeners = 1
	}

	return &TCP{
		addr:         net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		options:      options,
		numListeners: numListeners,
		listeners:    make([]*TCPListener, 0, numListeners),
		log:          options.Log,
	}
}

// Start binds every listener before returning, then accepts in the
// background until ctx is cancelled or Close is called.
func (t *TCP) Start(parentCtx context.Context) error {
	ctx, cancel := context.WithCancel(parentCtx)
	t.cancel = cancel

	t.log.Info("Starting tcp listeners", zap.Int("count", t.numListeners))

	addr := t.addr
	for i := 0; i < t.numListeners; i++ {
		listener, err := t.listen(addr)
		if err != nil {
			cancel()
			return multierr.Append(
				fmt.Errorf("Failed to listen on %s: %w", addr, err),
				t.closeListeners(),
			)
		}

		// With port 0 the first bind picks the port and the rest share it.
		addr = listener.Addr().String()

		t.listeners = append(t.listeners, NewTCPListener(
			ctx,
			listener,
			t.options,
			t.log.Named("listener").With(zap.Int("listener", i)),
		))
	}

	for _, listener := range t.listeners {
		t.stopWaiter.Add(1)

		go func(listener *TCPListener) {
			defer t.stopWaiter.Done()

			if err := listener.Serve(); err != nil {
				t.log.Error("Listener stopped", zap.Error(err))
			}
		}(listener)
	}

	go func() {
		<-ctx.Done()
		t.Close()
	}()

	return nil
}

func (t *TCP) listen(addr string) (net.Listener, error) {
	if t.options.Reuseport {
		return reuseport.Listen("tcp", addr)
	}

	return net.Listen("tcp", addr)
}

// Addr is the address the listeners are bound to, nil before Start.
func (t *TCP) Addr() net.Addr {
	if len(t.listeners) == 0 {
		return nil
	}

	return t.listeners[0].Addr()
}

// Close stops accepting, closes every connection and waits for their
// loops to exit. It is safe to call more than once.
func (t *TCP) Close() error {
	t.closeOnce.Do(func() {
		t.log.Info("Stopping TCP server")

		if t.cancel != nil {
			t.cancel()
		}

		t.closeErr = t.closeListeners()

		t.stopWaiter.Wait()
		t.log.Info("Listeners stopped")
	})

	return t.closeErr
}

func (t *TCP) closeListeners() (err error) {
	for _, listener := range t.listeners {
		err = multierr.Append(err, listener.Close())
	}

	return err
}

type TCPListener struct {
	ctx context.Context

	listener net.Listener
	options  Options

	mu          sync.Mutex
	activeConns map[*TCPConn]struct{}

	log *zap.Logger
}

func NewTCPListener(
	ctx context.Context,
	listener net.Listener,
	options Options,
	log *zap.Logger,
) *TCPListener {
	return &TCPListener{
		ctx:         ctx,
		listener:    listener,
		options:     options,
		activeConns: make(map[*TCPConn]struct{}),
		log:         log,
	}
}

func (t *TCPListener) Addr() net.Addr {
	return t.listener.Addr()
}

// Close stops the accept loop. Connections are stopped by the listener
// context.
func (t *TCPListener) Close() error {
	if err := t.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

// Serve accepts connections until the listener is closed, then waits for
// every connection it accepted to finish.
func (t *TCPListener) Serve() error {
	var loopWaiter sync.WaitGroup
	defer loopWaiter.Wait()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// The listener was closed while we were waiting for new
				// connections, that's fine.
				t.log.Info("Stopped accepting new connections",
					zap.Int("active", t.activeCount()))
				return nil
			}

			return err
		}

		tcpConn := NewTCPConn(t.ctx, conn, t.options, t.log.Named("conn"))
		t.addConn(tcpConn)

		loopWaiter.Add(1)
		go func() {
			defer loopWaiter.Done()
			defer t.removeConn(tcpConn)

			tcpConn.Serve()
		}()
	}
}

func (t *TCPListener) addConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activeConns[conn] = struct{}{}
}

func (t *TCPListener) removeConn(conn *TCPConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.activeConns, conn)
}

func (t *TCPListener) activeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.activeConns)
}

// TCPConn speaks the line protocol over one TCP connection. A read loop
// feeds lines to the hub and a write loop drains the outbound queue.
type TCPConn struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	conn    net.Conn
	session uuid.UUID
	hub     *Hub

	maxLineLength int
	writeQueue    chan string

	log *zap.Logger
}

func NewTCPConn(
	parentCtx context.Context,
	conn net.Conn,
	options Options,
	log *zap.Logger,
) *TCPConn {
	ctx, cancel := context.WithCancel(parentCtx)
	session := uuid.New()

	return &TCPConn{
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		conn:          conn,
		session:       session,
		hub:           options.Hub,
		maxLineLength: options.maxLineLength(),
		writeQueue:    make(chan string, options.writeQueue()),
		log: log.With(
			zap.String("session", session.String()),
			zap.String("remote", conn.RemoteAddr().String())),
	}
}

// Serve attaches the connection to the hub and runs it until the client
// goes away or the connection is closed.
func (t *TCPConn) Serve() {
	defer close(t.done)
	defer t.conn.Close()
	defer t.cancel()

	id, err := t.hub.Attach(t)
	if err != nil {
		t.log.Error("Failed to attach connection", zap.Error(err))
		return
	}

	log := t.log.With(zap.Int("conn", id))
	log.Info("Connection attached")

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		t.writeLoop(log.Named("writeLoop"))
	}()

	// Unblock the read loop once we are told to stop.
	go func() {
		<-t.ctx.Done()
		t.conn.SetReadDeadline(time.Now())
	}()

	t.readLoop(id, log.Named("readLoop"))

	t.hub.Detach(id)
	t.cancel()
	writer.Wait()

	log.Info("Connection closed")
}

func (t *TCPConn) readLoop(id int, log *zap.Logger) {
	// The limit is the larger of the buffer's capacity and max, so the
	// initial buffer must not exceed it.
	limit := t.maxLineLength + len(protocol.Terminal)
	initial := 512
	if initial > limit {
		initial = limit
	}

	scanner := bufio.NewScanner(t.conn)
	scanner.Buffer(make([]byte, 0, initial), limit)

	for scanner.Scan() {
		if err := t.hub.Receive(id, scanner.Text()); err != nil {
			log.Debug("Ignoring line", zap.Error(err))
		}
	}

	err := scanner.Err()
	switch {
	case err == nil || !t.isRunning():
		log.Info("Client went away")

	case errors.Is(err, bufio.ErrTooLong):
		log.Warn("Line too long, closing connection", zap.Int("limit", t.maxLineLength))

	case errors.Is(err, net.ErrClosed):

	default:
		log.Warn("Failed to read from client", zap.Error(err))
	}
}

func (t *TCPConn) writeLoop(log *zap.Logger) {
	for {
		select {
		case <-t.ctx.Done():
			t.drain(log)
			return

		case line := <-t.writeQueue:
			if err := protocol.WriteLines(t.conn, t.batch(line)...); err != nil {
				log.Warn("Failed to write, closing connection", zap.Error(err))
				t.cancel()
				return
			}
		}
	}
}

// batch returns first followed by whatever else is already queued, so one
// broadcast goes out in a single write.
func (t *TCPConn) batch(first string) []string {
	lines := []string{first}

	for {
		select {
		case line := <-t.writeQueue:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

// drain flushes whatever is still queued, giving up after drainTimeout.
func (t *TCPConn) drain(log *zap.Logger) {
	if err := t.conn.SetWriteDeadline(time.Now().Add(drainTimeout)); err != nil {
		return
	}

	select {
	case line := <-t.writeQueue:
		if err := protocol.WriteLines(t.conn, t.batch(line)...); err != nil {
			log.Debug("Dropped queued lines on close", zap.Error(err))
		}

	default:
	}
}

// Send queues lines for the write loop. Lines that do not fit in the queue
// are dropped.
func (t *TCPConn) Send(lines ...string) (err error) {
	if !t.isRunning() {
		return ErrConnClosed
	}

	for _, line := range lines {
		select {
		case t.writeQueue <- line:
		default:
			err = multierr.Append(err, fmt.Errorf("Dropped %q: %w", line, ErrWriteQueueFull))
		}
	}

	return err
}

// Close stops the connection and waits for Serve to return.
func (t *TCPConn) Close() error {
	t.cancel()
	<-t.done

	return nil
}

// isRunning returns true if Close has not been called
func (t *TCPConn) isRunning() bool {
	select {
	case <-t.ctx.Done():
		// if we can read on this channel then it's been closed
		return false

	default:
		return true
	}
}

var _ Peer = (*TCPConn)(nil)
