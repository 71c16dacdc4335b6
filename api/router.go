// Package api is the HTTP surface of the chat server: health, metrics, a
// read-only view of the chat state and the WebSocket endpoint.
package api

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/luma/chatd/dispatch"
)

type Options struct {
	Dispatcher *dispatch.Dispatcher

	// WebSocket is mounted at /ws when set
	WebSocket http.Handler

	// Debug puts gin in debug mode
	Debug bool

	Log *zap.Logger
}

func NewRouter(options Options) *gin.Engine {
	gin.DisableConsoleColor()
	if !options.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Logs all requests, like a combined access and error log, with RFC3339
	// UTC timestamps.
	r.Use(ginzap.GinzapWithConfig(options.Log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping", "/metrics"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(options.Log, true))

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	state := &stateHandlers{dispatcher: options.Dispatcher}
	r.GET("/state", state.snapshot)
	r.GET("/state/channels/:name", state.channel)
	r.GET("/state/users/:nickname", state.user)

	if options.WebSocket != nil {
		r.GET("/ws", gin.WrapH(options.WebSocket))
	}

	return r
}
