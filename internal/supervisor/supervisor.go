package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// State of the supervised loop.
type State int32

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrExhausted is returned once every attempt has failed.
var ErrExhausted = errors.New("polling stopped after several restart attempts")

// PollFunc blocks while receiving updates. A non-nil error means the loop
// crashed and should be restarted.
type PollFunc func(ctx context.Context) error

// CrashRecorder is notified of every failed attempt.
type CrashRecorder interface {
	PollCrashed()
}

// Config holds supervisor limits.
type Config struct {
	MaxAttempts int           // Total attempts before stopping
	RetryDelay  time.Duration // Sleep between a crash and the next attempt
}

// Supervisor runs a PollFunc and restarts it when it fails.
type Supervisor struct {
	config   Config
	logger   *zerolog.Logger
	recorder CrashRecorder

	state    atomic.Int32
	attempts atomic.Int32

	// sleep waits for d or until ctx is done
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a supervisor in the Running state.
func New(config Config, logger *zerolog.Logger, recorder CrashRecorder) *Supervisor {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Supervisor{
		config:   config,
		logger:   logger,
		recorder: recorder,
		sleep:    sleepContext,
	}
}

// State returns the current state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Attempts returns the number of attempts started so far.
func (s *Supervisor) Attempts() int {
	return int(s.attempts.Load())
}

// Run calls poll until it returns nil, ctx is cancelled, or MaxAttempts
// attempts have crashed. In the last case the attempt errors are returned
// together with ErrExhausted.
func (s *Supervisor) Run(ctx context.Context, poll PollFunc) error {
	var result *multierror.Error

	defer s.state.Store(int32(Stopped))

	for s.Attempts() < s.config.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return nil
		}

		s.state.Store(int32(Running))
		attempt := int(s.attempts.Add(1))

		err := s.attempt(ctx, poll)
		if err == nil || ctx.Err() != nil {
			s.logger.Info().Int("attempt", attempt).Msg("polling stopped")
			return nil
		}

		result = multierror.Append(result, fmt.Errorf("attempt %d: %w", attempt, err))
		if s.recorder != nil {
			s.recorder.PollCrashed()
		}

		s.logger.Error().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", s.config.MaxAttempts).
			Msg("error in polling loop")

		if attempt >= s.config.MaxAttempts {
			break
		}

		if err := s.sleep(ctx, s.config.RetryDelay); err != nil {
			return nil
		}
	}

	s.state.Store(int32(Stopped))
	s.logger.WithLevel(zerolog.FatalLevel).
		Int("attempts", s.Attempts()).
		Msg("bot stopped after several restart attempts")

	result = multierror.Append(result, ErrExhausted)
	return result.ErrorOrNil()
}

// attempt runs poll once, turning a panic into an error.
func (s *Supervisor) attempt(ctx context.Context, poll PollFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("polling panicked: %v", r)
		}
	}()
	return poll(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
