package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/j0lvera/petbot/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Metrics holds the bot counters on a dedicated registry.
type Metrics struct {
	Registry *prometheus.Registry

	CommandCounter *prometheus.CounterVec
	FetchFailures  *prometheus.CounterVec
	MessagesSent   *prometheus.CounterVec
	PollRestarts   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CommandCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_commands_total",
				Help: "Count of processed commands",
			},
			[]string{"command", "status"},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_fetch_failures_total",
				Help: "Count of failed photo api calls",
			},
			[]string{"kind", "reason"},
		),
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_messages_sent_total",
				Help: "Count of sent messages",
			},
			[]string{"type"}, // text, photo
		),
		PollRestarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_poll_restarts_total",
				Help: "Count of polling loop crashes",
			},
		),
	}

	m.Registry.MustRegister(
		m.CommandCounter,
		m.FetchFailures,
		m.MessagesSent,
		m.PollRestarts,
	)

	return m
}

// CommandHandled counts a handled command with its outcome.
func (m *Metrics) CommandHandled(command, status string) {
	m.CommandCounter.WithLabelValues(command, status).Inc()
}

// FetchFailed implements pet.FailureRecorder.
func (m *Metrics) FetchFailed(kind, reason string) {
	m.FetchFailures.WithLabelValues(kind, reason).Inc()
}

// MessageSent counts a delivered message of the given type.
func (m *Metrics) MessageSent(kind string) {
	m.MessagesSent.WithLabelValues(kind).Inc()
}

// PollCrashed counts a failed polling attempt.
func (m *Metrics) PollCrashed() {
	m.PollRestarts.Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

type Params struct {
	fx.In

	Config *config.Config
	Logger zerolog.Logger
}

// NewServer creates the /metrics server, or nil when METRICS_ADDR is empty.
func NewServer(lc fx.Lifecycle, p Params, m *Metrics) *http.Server {
	if p.Config.MetricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              p.Config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				ln, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					return err
				}
				p.Logger.Info().Str("addr", ln.Addr().String()).Msg("starting metrics server...")
				go func() {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						p.Logger.Error().Err(err).Msg("metrics server stopped")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				p.Logger.Info().Msg("stopping metrics server...")
				return srv.Shutdown(ctx)
			},
		},
	)

	return srv
}

// Module provides Metrics and the optional /metrics server
func Module() fx.Option {
	return fx.Module(
		"metrics",
		fx.Provide(
			New,
			NewServer,
		),
		fx.Invoke(
			func(*http.Server) {},
		),
	)
}
