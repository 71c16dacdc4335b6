package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/chatd/api"
	"github.com/luma/chatd/dispatch"
	"github.com/luma/chatd/internal/env"
	"github.com/luma/chatd/model"
	"github.com/luma/chatd/transport"
)

var (
	// The host to listen on
	host string

	// The port to listen for http requests on
	httpPort string

	// The port to listen for tcp clients on
	port int
)

func init() {
	flags := StartCmd.PersistentFlags()

	flags.IntVarP(&port, "port", "p", 7363, "The port to listen for client connections on")
	flags.StringVar(&httpPort, "http-port", "7362", "The port to listen to HTTP and WebSocket requests on")
	flags.StringVarP(&host, "host", "a", "0.0.0.0", "The host to listen on")
}

var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the chat server",
	Long: `Start the chat server

Clients connect over TCP on --port, or over WebSocket at /ws on --http-port.
The HTTP port also serves /ping, /metrics and a read-only view of the chat
state under /state.

Usage
	chatd start

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		log, err := env.MakeLogger(conf.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		dispatcher := dispatch.New(model.New(nil), log.Named("dispatch"))
		hub := transport.NewHub(dispatcher, log.Named("hub"))

		transportOptions := transport.Options{
			Host:          host,
			Port:          port,
			Reuseport:     true,
			NumListeners:  conf.Listeners,
			WriteQueue:    conf.WriteQueue,
			MaxLineLength: conf.MaxLineLength,
			Hub:           hub,
			Log:           log.Named("transport"),
		}

		router := api.NewRouter(api.Options{
			Dispatcher: dispatcher,
			WebSocket:  transport.NewWebSocket(transportOptions),
			Debug:      conf.DebugHTTP,
			Log:        log.Named("http"),
		})

		s := &http.Server{
			Addr:    net.JoinHostPort(host, httpPort),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
				signalStop()
			}
		}()

		tcp := transport.NewTCP(transportOptions)

		if err := tcp.Start(ctx); err != nil {
			return err
		}

		log.Info("Listening",
			zap.Any("config", conf),
			zap.String("region", conf.Region),
			zap.Stringer("addr", tcp.Addr()),
			zap.String("httpPort", httpPort))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		// Hijacked websocket connections outlive Shutdown; the hub still
		// holds them.
		if err := multierr.Append(tcp.Close(), hub.Close()); err != nil {
			log.Error("Connections forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
