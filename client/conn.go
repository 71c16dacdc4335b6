package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/luma/chatd/protocol"
)

const lineBufferSize = 255

var ErrNotConnected = errors.New("Not connected")

// Conn is a line protocol client. Lines from the server are delivered on
// Lines, without their terminator, until the connection ends.
type Conn struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn net.Conn

	writeMu sync.Mutex

	lines    chan string
	readDone chan struct{}

	log *zap.Logger
}

func New(log *zap.Logger) *Conn {
	return &Conn{
		log:      log,
		lines:    make(chan string, lineBufferSize),
		readDone: make(chan struct{}),
	}
}

func (c *Conn) Connect(ctx context.Context, addr string) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.conn = conn

	go c.readLoop()

	return nil
}

// Disconnect closes the connection and waits for the read loop to exit.
func (c *Conn) Disconnect() error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.cancel()
	err := c.conn.Close()
	<-c.readDone

	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}

// Lines is closed once the server closes the connection or Disconnect is
// called.
func (c *Conn) Lines() <-chan string {
	return c.lines
}

// Next waits for the next line from the server. It returns io.EOF once the
// connection has ended.
func (c *Conn) Next(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil

	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Send writes one request line. Requests from concurrent goroutines never
// interleave.
func (c *Conn) Send(line string) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return protocol.WriteLine(c.conn, line)
}

func (c *Conn) Nick(nickname string) error {
	return c.send(protocol.NICK, nickname)
}

func (c *Conn) Create(channel string, inviteOnly bool) error {
	flag := "0"
	if inviteOnly {
		flag = "1"
	}

	return c.send(protocol.CREATE, channel, flag)
}

func (c *Conn) Join(channel string) error {
	return c.send(protocol.JOIN, channel)
}

func (c *Conn) Message(channel, message string) error {
	return c.send(protocol.MESG, channel, ":"+message)
}

func (c *Conn) Leave(channel string) error {
	return c.send(protocol.LEAVE, channel)
}

func (c *Conn) Invite(channel, nickname string) error {
	return c.send(protocol.INVITE, channel, nickname)
}

func (c *Conn) Kick(channel, nickname string) error {
	return c.send(protocol.KICK, channel, nickname)
}

func (c *Conn) send(keyword protocol.Keyword, params ...string) error {
	return c.Send(string(keyword) + " " + strings.Join(params, " "))
}

func (c *Conn) readLoop() {
	log := c.log.Named("readLoop")

	defer close(c.readDone)
	defer close(c.lines)

	r := bufio.NewReader(c.conn)

	for {
		data, err := r.ReadBytes('\n')
		if len(data) > 0 && err == nil {
			line := string(protocol.RemoveTrailingCR(bytes.TrimSuffix(data, []byte("\n"))))

			select {
			case c.lines <- line:
			case <-c.ctx.Done():
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warn("Failed to read server line", zap.Error(err))
			}
			return
		}
	}
}
