package bot

import (
	"context"
	"fmt"

	tbot "github.com/go-telegram/bot"
	"github.com/j0lvera/petbot/internal/config"
	"github.com/j0lvera/petbot/internal/log"
	"github.com/j0lvera/petbot/internal/metrics"
	"github.com/j0lvera/petbot/internal/pet"
	"github.com/j0lvera/petbot/internal/supervisor"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config  *config.Config
	Fetcher *pet.Fetcher
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

type Result struct {
	fx.Out

	Bot        *tbot.Bot
	Router     *Router
	Supervisor *supervisor.Supervisor
}

func New(lc fx.Lifecycle, sd fx.Shutdowner, p Params) (Result, error) {
	logger := log.Named(p.Logger, "bot")
	supLogger := log.Named(p.Logger, "supervisor")

	handlers := NewHandlers(p.Fetcher, p.Config.Replies, p.Metrics, &logger)
	router := NewRouter(handlers.Routes(), &logger)
	poller := NewPoller(&logger)

	// the token is checked by the first getUpdates call, inside the retry budget
	opts := []tbot.Option{
		tbot.WithSkipGetMe(),
		tbot.WithNotAsyncHandlers(),
		tbot.WithMiddlewares(RequestID(&logger), Recover(&logger)),
		tbot.WithDefaultHandler(router.Ignore),
		tbot.WithErrorsHandler(poller.HandleError),
	}
	if p.Config.ServerURL != "" {
		opts = append(opts, tbot.WithServerURL(p.Config.ServerURL))
	}

	tg, err := tbot.New(p.Config.Token, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("unable to create telegram bot: %w", err)
	}
	poller.Attach(tg.Start)

	registered := router.Register(tg)

	sup := supervisor.New(
		supervisor.Config{
			MaxAttempts: p.Config.RetryLimit,
			RetryDelay:  p.Config.RetryDelay,
		},
		&supLogger,
		p.Metrics,
	)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				logger.Info().Int("commands", registered).Msg("starting telegram bot...")
				go func() {
					defer close(done)
					if err := sup.Run(runCtx, poller.Poll); err != nil {
						if err := sd.Shutdown(fx.ExitCode(1)); err != nil {
							logger.Error().Err(err).Msg("unable to shut down")
						}
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				logger.Info().Msg("stopping telegram bot...")
				cancel()
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		},
	)

	return Result{
		Bot:        tg,
		Router:     router,
		Supervisor: sup,
	}, nil
}

func Module() fx.Option {
	return fx.Module(
		"bot",
		fx.Provide(
			New,
		),
		fx.Invoke(
			func(bot *tbot.Bot) {},
		),
	)
}
