package dispatch_test

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/chatd/dispatch"
	"github.com/luma/chatd/protocol"
)

var _ = Describe("Dispatcher", func() {
	var d *dispatch.Dispatcher

	connect := func(id int) dispatch.Deliveries {
		deliveries, err := d.Connect(id)
		Expect(err).To(Succeed())
		return deliveries
	}

	handle := func(id int, line string) dispatch.Deliveries {
		deliveries, err := d.Handle(id, line)
		Expect(err).To(Succeed())
		return deliveries
	}

	BeforeEach(func() {
		d = dispatch.New(nil, zap.NewNop())
	})

	Describe("Connect()", func() {
		It("greets the new connection under a generated nickname", func() {
			Expect(connect(10)).To(Equal(dispatch.Deliveries{10: {":User0 CONNECT"}}))
			Expect(connect(11)).To(Equal(dispatch.Deliveries{11: {":User1 CONNECT"}}))

			nick, ok := d.Nickname(11)
			Expect(ok).To(BeTrue())
			Expect(nick).To(Equal("User1"))
		})

		It("refuses an id that is already connected", func() {
			connect(10)

			_, err := d.Connect(10)
			Expect(errors.Is(err, dispatch.ErrConnectionInUse)).To(BeTrue())
		})

		It("tracks the connected client gauge", func() {
			connect(10)
			connect(11)
			Expect(testutil.ToFloat64(dispatch.ConnectedClients)).To(Equal(2.0))

			d.Disconnect(10)
			Expect(testutil.ToFloat64(dispatch.ConnectedClients)).To(Equal(1.0))
		})
	})

	Describe("Handle()", func() {
		BeforeEach(func() {
			connect(10)
			connect(11)
		})

		It("routes a join to every member by connection id", func() {
			Expect(handle(10, "CREATE lounge 0")).To(Equal(dispatch.Deliveries{
				10: {":User0 CREATE lounge 0"},
			}))

			Expect(handle(11, "JOIN lounge\r")).To(Equal(dispatch.Deliveries{
				10: {":User1 JOIN lounge"},
				11: {":User1 JOIN lounge", ":User1 NAMES lounge :@User0 User1"},
			}))
		})

		It("sends ERROR lines to the sender only", func() {
			handle(10, "CREATE priv 1")

			Expect(handle(11, "JOIN priv")).To(Equal(dispatch.Deliveries{
				11: {":User1 ERROR 407"},
			}))
		})

		It("delivers a rename to the connection under its new nickname", func() {
			handle(10, "CREATE lounge 0")
			handle(11, "JOIN lounge")

			Expect(handle(10, "NICK Alice")).To(Equal(dispatch.Deliveries{
				10: {":User0 NICK Alice"},
				11: {":User0 NICK Alice"},
			}))

			nick, _ := d.Nickname(10)
			Expect(nick).To(Equal("Alice"))

			Expect(handle(11, "MESG lounge :hi Alice")).To(Equal(dispatch.Deliveries{
				10: {":User1 MESG lounge :hi Alice"},
				11: {":User1 MESG lounge :hi Alice"},
			}))
		})

		It("returns parse errors without touching the state", func() {
			before, err := d.Snapshot()
			Expect(err).To(Succeed())

			failures := testutil.ToFloat64(dispatch.ParseFailuresTotal)

			deliveries, err := d.Handle(10, "CREATE lounge maybe")
			Expect(errors.Is(err, protocol.ErrInvalidPrivacyFlag)).To(BeTrue())
			Expect(deliveries).To(BeNil())

			after, err := d.Snapshot()
			Expect(err).To(Succeed())
			Expect(after).To(Equal(before))
			Expect(testutil.ToFloat64(dispatch.ParseFailuresTotal)).To(Equal(failures + 1))
		})

		It("rejects lines from unknown connections", func() {
			_, err := d.Handle(99, "JOIN lounge")
			Expect(errors.Is(err, dispatch.ErrUnknownConnection)).To(BeTrue())
		})

		It("counts commands by keyword and response", func() {
			ok := dispatch.CommandsTotal.WithLabelValues("CREATE", "OKAY")
			exists := dispatch.CommandsTotal.WithLabelValues("CREATE", "CHANNEL_ALREADY_EXISTS")
			okBefore, existsBefore := testutil.ToFloat64(ok), testutil.ToFloat64(exists)

			handle(10, "CREATE lounge 0")
			handle(11, "CREATE lounge 0")

			Expect(testutil.ToFloat64(ok)).To(Equal(okBefore + 1))
			Expect(testutil.ToFloat64(exists)).To(Equal(existsBefore + 1))
			Expect(testutil.ToFloat64(dispatch.Channels)).To(Equal(1.0))
		})
	})

	Describe("Disconnect()", func() {
		It("closes owned channels and notifies the remaining members", func() {
			connect(10)
			connect(11)
			connect(12)
			handle(10, "CREATE lounge 0")
			handle(11, "JOIN lounge")

			Expect(d.Disconnect(10)).To(Equal(dispatch.Deliveries{
				11: {":User0 QUIT"},
			}))

			Expect(handle(12, "JOIN lounge")).To(Equal(dispatch.Deliveries{
				12: {":User2 ERROR 402"},
			}))
		})

		It("ignores unknown connections", func() {
			Expect(d.Disconnect(99)).To(BeEmpty())
		})
	})

	Describe("Snapshot()", func() {
		It("renders users and channels", func() {
			connect(10)
			handle(10, "CREATE lounge 1")

			snapshot, err := d.Snapshot()
			Expect(err).To(Succeed())
			Expect(gjson.GetBytes(snapshot, "users.0.id").Int()).To(Equal(int64(10)))
			Expect(gjson.GetBytes(snapshot, "users.0.nickname").String()).To(Equal("User0"))
			Expect(gjson.GetBytes(snapshot, `channels.#(name=="lounge").owner`).String()).To(Equal("User0"))
		})
	})

	It("is safe for concurrent use", func() {
		const clients = 16

		for id := 1; id <= clients; id++ {
			connect(id)
		}
		handle(1, "CREATE lounge 0")

		var wg sync.WaitGroup
		for id := 2; id <= clients; id++ {
			wg.Add(1)
			go func(id int) {
				defer GinkgoRecover()
				defer wg.Done()

				_, err := d.Handle(id, "JOIN lounge")
				Expect(err).To(Succeed())
			}(id)
		}
		wg.Wait()

		deliveries := handle(1, "MESG lounge :everyone")
		Expect(deliveries).To(HaveLen(clients))
		Expect(deliveries.Len()).To(Equal(clients))
	})
})
