package pet

import (
	"github.com/j0lvera/petbot/internal/config"
	"github.com/j0lvera/petbot/internal/log"
	"github.com/j0lvera/petbot/internal/metrics"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Params for creating a Fetcher
type Params struct {
	fx.In

	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// New creates a Fetcher for the configured cat and dog endpoints
func New(p Params) *Fetcher {
	logger := log.Named(p.Logger, "fetcher")

	opts := []FetcherOption{WithRecorder(p.Metrics)}
	if p.Config.PetAPIKey != "" {
		opts = append(opts, WithAPIKey(p.Config.PetAPIKey))
	}

	return NewFetcher(
		map[Kind]string{
			Cat: p.Config.CatAPIURL,
			Dog: p.Config.DogAPIURL,
		},
		p.Config.FetchTimeout,
		&logger,
		opts...,
	)
}

// Module provides the pet Fetcher
func Module() fx.Option {
	return fx.Module(
		"pet",
		fx.Provide(
			New,
		),
	)
}
