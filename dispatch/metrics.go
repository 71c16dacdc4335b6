package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatd_connected_clients",
		Help: "Number of registered users",
	})

	Channels = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatd_channels",
		Help: "Number of live channels",
	})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatd_commands_total",
		Help: "Commands applied, by keyword and response",
	}, []string{"keyword", "result"})

	ParseFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatd_parse_failures_total",
		Help: "Lines that did not parse into a command",
	})

	CommandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatd_command_duration_seconds",
		Help:    "Time spent applying a command, lock wait excluded",
		Buckets: prometheus.DefBuckets,
	}, []string{"keyword"})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(Channels)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(ParseFailuresTotal)
	prometheus.MustRegister(CommandDuration)
}
