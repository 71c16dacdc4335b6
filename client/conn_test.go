package client_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/chatd/client"
)

var _ = Describe("Conn", func() {
	var (
		listener net.Listener
		server   net.Conn
		conn     *client.Conn
		ctx      context.Context
		cancel   context.CancelFunc
	)

	BeforeEach(func() {
		var err error
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(Succeed())

		accepted := make(chan net.Conn, 1)
		go func() {
			defer GinkgoRecover()

			c, err := listener.Accept()
			Expect(err).To(Succeed())
			accepted <- c
		}()

		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)

		conn = client.New(zap.NewNop())
		Expect(conn.Connect(ctx, listener.Addr().String())).To(Succeed())

		Eventually(accepted).Should(Receive(&server))
	})

	AfterEach(func() {
		conn.Disconnect()
		server.Close()
		listener.Close()
		cancel()
	})

	It("writes CRLF terminated request lines", func() {
		r := bufio.NewReader(server)

		Expect(conn.Nick("Alice")).To(Succeed())
		Expect(conn.Create("priv", true)).To(Succeed())
		Expect(conn.Create("lounge", false)).To(Succeed())
		Expect(conn.Join("lounge")).To(Succeed())
		Expect(conn.Message("lounge", "hello: there")).To(Succeed())
		Expect(conn.Leave("lounge")).To(Succeed())
		Expect(conn.Invite("priv", "Bob")).To(Succeed())
		Expect(conn.Kick("priv", "Bob")).To(Succeed())

		for _, expected := range []string{
			"NICK Alice",
			"CREATE priv 1",
			"CREATE lounge 0",
			"JOIN lounge",
			"MESG lounge :hello: there",
			"LEAVE lounge",
			"INVITE priv Bob",
			"KICK priv Bob",
		} {
			line, err := r.ReadString('\n')
			Expect(err).To(Succeed())
			Expect(line).To(Equal(expected + "\r\n"))
		}
	})

	It("delivers server lines without their terminator", func() {
		_, err := server.Write([]byte(":User0 CONNECT\r\n:User0 NICK Alice\n"))
		Expect(err).To(Succeed())

		line, err := conn.Next(ctx)
		Expect(err).To(Succeed())
		Expect(line).To(Equal(":User0 CONNECT"))

		line, err = conn.Next(ctx)
		Expect(err).To(Succeed())
		Expect(line).To(Equal(":User0 NICK Alice"))
	})

	It("reports EOF once the server hangs up", func() {
		Expect(server.Close()).To(Succeed())

		_, err := conn.Next(ctx)
		Expect(err).To(Equal(io.EOF))
		Eventually(conn.Lines()).Should(BeClosed())
	})
})

var _ = Describe("Conn before Connect", func() {
	It("refuses to send", func() {
		conn := client.New(zap.NewNop())
		Expect(conn.Join("lounge")).To(MatchError(client.ErrNotConnected))
		Expect(conn.Disconnect()).To(MatchError(client.ErrNotConnected))
	})
})
