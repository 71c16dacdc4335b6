package transport_test

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/chatd/dispatch"
	"github.com/luma/chatd/protocol"
	"github.com/luma/chatd/transport"
)

type fakePeer struct {
	mu     sync.Mutex
	lines  []string
	closed bool
	err    error
}

func (p *fakePeer) Send(lines ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	p.lines = append(p.lines, lines...)
	return nil
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

func (p *fakePeer) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.lines...)
}

var _ = Describe("Hub", func() {
	var hub *transport.Hub

	BeforeEach(func() {
		hub = transport.NewHub(dispatch.New(nil, zap.NewNop()), zap.NewNop())
	})

	attach := func(peer transport.Peer) int {
		id, err := hub.Attach(peer)
		Expect(err).To(Succeed())
		return id
	}

	It("hands out distinct ids and greets each peer", func() {
		alice, bob := &fakePeer{}, &fakePeer{}

		aliceID := attach(alice)
		bobID := attach(bob)

		Expect(aliceID).NotTo(Equal(bobID))
		Expect(hub.Len()).To(Equal(2))
		Expect(alice.Lines()).To(Equal([]string{":User0 CONNECT"}))
		Expect(bob.Lines()).To(Equal([]string{":User1 CONNECT"}))
	})

	It("routes lines between peers", func() {
		alice, bob := &fakePeer{}, &fakePeer{}
		aliceID := attach(alice)
		bobID := attach(bob)

		Expect(hub.Receive(aliceID, "CREATE lounge 0")).To(Succeed())
		Expect(hub.Receive(bobID, "JOIN lounge")).To(Succeed())
		Expect(hub.Receive(bobID, "MESG lounge :hi")).To(Succeed())

		Expect(alice.Lines()).To(Equal([]string{
			":User0 CONNECT",
			":User0 CREATE lounge 0",
			":User1 JOIN lounge",
			":User1 MESG lounge :hi",
		}))
		Expect(bob.Lines()).To(Equal([]string{
			":User1 CONNECT",
			":User1 JOIN lounge",
			":User1 NAMES lounge :@User0 User1",
			":User1 MESG lounge :hi",
		}))
	})

	It("returns parse errors to the caller", func() {
		id := attach(&fakePeer{})

		err := hub.Receive(id, "HELLO")
		Expect(errors.Is(err, protocol.ErrUnknownCommand)).To(BeTrue())
	})

	It("keeps delivering to other peers when one fails", func() {
		alice, bob := &fakePeer{}, &fakePeer{}
		aliceID := attach(alice)
		bobID := attach(bob)

		Expect(hub.Receive(aliceID, "CREATE lounge 0")).To(Succeed())
		Expect(hub.Receive(bobID, "JOIN lounge")).To(Succeed())

		bob.mu.Lock()
		bob.err = transport.ErrWriteQueueFull
		bob.mu.Unlock()

		Expect(hub.Receive(aliceID, "MESG lounge :still here")).To(Succeed())
		Expect(alice.Lines()).To(ContainElement(":User0 MESG lounge :still here"))
	})

	It("tells co-members when a peer detaches", func() {
		alice, bob := &fakePeer{}, &fakePeer{}
		aliceID := attach(alice)
		bobID := attach(bob)

		Expect(hub.Receive(aliceID, "CREATE lounge 0")).To(Succeed())
		Expect(hub.Receive(bobID, "JOIN lounge")).To(Succeed())

		hub.Detach(aliceID)
		hub.Detach(aliceID)

		Expect(hub.Len()).To(Equal(1))
		Expect(bob.Lines()).To(HaveLen(4))
		Expect(bob.Lines()[3]).To(Equal(":User0 QUIT"))
	})

	It("closes every peer", func() {
		alice, bob := &fakePeer{}, &fakePeer{}
		attach(alice)
		attach(bob)

		Expect(hub.Close()).To(Succeed())
		Expect(alice.closed).To(BeTrue())
		Expect(bob.closed).To(BeTrue())
	})
})
