package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/chatd/api"
	"github.com/luma/chatd/dispatch"
)

var _ = Describe("Router", func() {
	var (
		d      *dispatch.Dispatcher
		router *gin.Engine
	)

	BeforeEach(func() {
		d = dispatch.New(nil, zap.NewNop())

		router = api.NewRouter(api.Options{
			Dispatcher: d,
			WebSocket: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}),
			Log: zap.NewNop(),
		})
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, path, nil)
		Expect(err).To(Succeed())

		router.ServeHTTP(w, req)

		return w
	}

	body := func(w *httptest.ResponseRecorder) string {
		data, err := io.ReadAll(w.Body)
		Expect(err).To(Succeed())
		return string(data)
	}

	It("answers pings", func() {
		w := get("/ping")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body(w)).To(Equal("pong"))
	})

	It("exposes prometheus metrics", func() {
		_, err := d.Connect(1)
		Expect(err).To(Succeed())

		w := get("/metrics")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body(w)).To(ContainSubstring("chatd_connected_clients"))
	})

	Describe("state", func() {
		BeforeEach(func() {
			_, err := d.Connect(1)
			Expect(err).To(Succeed())
			_, err = d.Connect(2)
			Expect(err).To(Succeed())

			_, err = d.Handle(1, "CREATE lounge 0")
			Expect(err).To(Succeed())
			_, err = d.Handle(2, "JOIN lounge")
			Expect(err).To(Succeed())
		})

		It("renders the whole snapshot", func() {
			w := get("/state")
			Expect(w.Code).To(Equal(http.StatusOK))

			snapshot := body(w)
			Expect(gjson.Get(snapshot, "users.#").Int()).To(Equal(int64(2)))
			Expect(gjson.Get(snapshot, "channels.0.name").String()).To(Equal("lounge"))
		})

		It("renders a single channel", func() {
			w := get("/state/channels/lounge")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(body(w)).To(MatchJSON(`{"name":"lounge","owner":"User0","private":false,"members":["User0","User1"]}`))
		})

		It("renders a single user", func() {
			w := get("/state/users/User1")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(body(w)).To(MatchJSON(`{"id":2,"nickname":"User1"}`))
		})

		It("404s for unknown or invalid names", func() {
			Expect(get("/state/channels/nowhere").Code).To(Equal(http.StatusNotFound))
			Expect(get("/state/channels/bad%22name").Code).To(Equal(http.StatusNotFound))
			Expect(get("/state/users/Ghost").Code).To(Equal(http.StatusNotFound))
		})
	})

	It("mounts the websocket handler", func() {
		Expect(get("/ws").Code).To(Equal(http.StatusTeapot))
	})
})
