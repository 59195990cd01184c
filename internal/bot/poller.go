package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrPollingStopped is returned when long polling ends on its own.
var ErrPollingStopped = errors.New("polling stopped unexpectedly")

// Poller adapts the go-telegram/bot long polling loop to a
// supervisor.PollFunc. The client retries failed getUpdates calls forever and
// only reports them through its errors handler, so the first reported error
// ends the attempt.
type Poller struct {
	start  func(ctx context.Context)
	errs   chan error
	logger *zerolog.Logger
}

func NewPoller(logger *zerolog.Logger) *Poller {
	return &Poller{
		errs:   make(chan error, 1),
		logger: logger,
	}
}

// Attach sets the blocking function that runs long polling.
func (p *Poller) Attach(start func(ctx context.Context)) {
	p.start = start
}

// updatesErrorPrefix starts every error the client reports from its
// getUpdates loop.
const updatesErrorPrefix = "error get updates"

// HandleError is passed to the client as its errors handler. Only getUpdates
// failures end the current attempt, anything else the client reports is
// logged.
func (p *Poller) HandleError(err error) {
	if !strings.HasPrefix(err.Error(), updatesErrorPrefix) {
		p.logger.Warn().Err(err).Msg("telegram client error")
		return
	}

	select {
	case p.errs <- err:
	default:
		p.logger.Debug().Err(err).Msg("dropping polling error, one is already pending")
	}
}

// Poll runs long polling until ctx is done or the client reports an error.
func (p *Poller) Poll(ctx context.Context) error {
	if p.start == nil {
		return fmt.Errorf("poller has no client attached")
	}

	p.drain()

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.start(pollCtx)
	}()

	p.logger.Info().Msg("polling for updates...")

	select {
	case err := <-p.errs:
		cancel()
		<-done
		return fmt.Errorf("polling error: %w", err)
	case <-done:
		if ctx.Err() != nil {
			return nil
		}
		return ErrPollingStopped
	}
}

// drain discards errors left over from a previous attempt.
func (p *Poller) drain() {
	for {
		select {
		case <-p.errs:
		default:
			return
		}
	}
}
