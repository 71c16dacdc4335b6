package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/chatd/protocol"
)

// WebSocket serves the line protocol over WebSocket, one text message per
// line in each direction.
type WebSocket struct {
	options Options
	log     *zap.Logger
}

func NewWebSocket(options Options) *WebSocket {
	return &WebSocket{
		options: options,
		log:     options.Log,
	}
}

func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		ws.log.Error("Failed to accept websocket", zap.Error(err))
		return
	}

	conn.SetReadLimit(int64(ws.options.maxLineLength()))

	peer := newWSConn(r.Context(), conn, ws.options, ws.log.Named("conn"))
	peer.serve()
}

type wsConn struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	conn *websocket.Conn
	hub  *Hub

	writeQueue chan string

	log *zap.Logger
}

func newWSConn(parentCtx context.Context, conn *websocket.Conn, options Options, log *zap.Logger) *wsConn {
	ctx, cancel := context.WithCancel(parentCtx)

	return &wsConn{
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		conn:       conn,
		hub:        options.Hub,
		writeQueue: make(chan string, options.writeQueue()),
		log:        log.With(zap.String("session", uuid.NewString())),
	}
}

func (c *wsConn) serve() {
	defer close(c.done)
	defer c.cancel()

	id, err := c.hub.Attach(c)
	if err != nil {
		c.log.Error("Failed to attach connection", zap.Error(err))
		c.conn.Close(websocket.StatusInternalError, "internal error")
		return
	}

	log := c.log.With(zap.Int("conn", id))
	log.Info("Connection attached")

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		c.writeLoop(log.Named("writeLoop"))
	}()

	status, reason := c.readLoop(id, log.Named("readLoop"))

	c.hub.Detach(id)
	c.cancel()
	writer.Wait()

	c.conn.Close(status, reason)
	log.Info("Connection closed")
}

func (c *wsConn) readLoop(id int, log *zap.Logger) (websocket.StatusCode, string) {
	for {
		typ, data, err := c.conn.Read(c.ctx)
		if err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				log.Info("Client went away")
			case errors.Is(err, context.Canceled):
				return websocket.StatusGoingAway, "server closing"
			default:
				log.Warn("Failed to read from client", zap.Error(err))
			}

			return websocket.StatusNormalClosure, ""
		}

		if typ != websocket.MessageText {
			return websocket.StatusUnsupportedData, "text messages only"
		}

		line := string(protocol.RemoveTrailingCR(bytes.TrimSuffix(data, []byte("\n"))))
		if err := c.hub.Receive(id, line); err != nil {
			log.Debug("Ignoring line", zap.Error(err))
		}
	}
}

func (c *wsConn) writeLoop(log *zap.Logger) {
	for {
		select {
		case <-c.ctx.Done():
			c.drain(log)
			return

		case line := <-c.writeQueue:
			if err := c.conn.Write(c.ctx, websocket.MessageText, []byte(line)); err != nil {
				log.Warn("Failed to write, closing connection", zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}

func (c *wsConn) drain(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case line := <-c.writeQueue:
			if err := c.conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
				log.Debug("Dropped queued lines on close", zap.Error(err))
				return
			}

		default:
			return
		}
	}
}

func (c *wsConn) Send(lines ...string) (err error) {
	select {
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
	}

	for _, line := range lines {
		select {
		case c.writeQueue <- line:
		default:
			err = multierr.Append(err, fmt.Errorf("Dropped %q: %w", line, ErrWriteQueueFull))
		}
	}

	return err
}

func (c *wsConn) Close() error {
	c.cancel()
	<-c.done

	return nil
}

var _ Peer = (*wsConn)(nil)
var _ http.Handler = (*WebSocket)(nil)
