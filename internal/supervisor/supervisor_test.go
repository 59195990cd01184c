package supervisor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

type crashes struct{ n int }

func (c *crashes) PollCrashed() { c.n++ }

func newTestSupervisor(attempts int, buf *bytes.Buffer, rec CrashRecorder) (*Supervisor, *[]time.Duration) {
	logger := zerolog.New(buf)
	s := New(Config{MaxAttempts: attempts, RetryDelay: 10 * time.Second}, &logger, rec)

	var slept []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return s, &slept
}

func TestRunStopsAfterMaxAttempts(t *testing.T) {
	var buf bytes.Buffer
	rec := &crashes{}
	s, slept := newTestSupervisor(5, &buf, rec)

	calls := 0
	err := s.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("connection reset")
	})

	if calls != 5 {
		t.Errorf("poll called %d times, want 5", calls)
	}
	if s.Attempts() != 5 {
		t.Errorf("Attempts = %d, want 5", s.Attempts())
	}
	if s.State() != Stopped {
		t.Errorf("State = %s, want stopped", s.State())
	}
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 6 {
		t.Errorf("expected 5 attempt errors plus ErrExhausted, got %v", err)
	}

	if len(*slept) != 4 {
		t.Errorf("slept %d times, want 4", len(*slept))
	}
	for _, d := range *slept {
		if d != 10*time.Second {
			t.Errorf("slept %s, want 10s", d)
		}
	}
	if rec.n != 5 {
		t.Errorf("recorded %d crashes, want 5", rec.n)
	}
	if !strings.Contains(buf.String(), `"level":"fatal"`) {
		t.Errorf("expected critical log, got %s", buf.String())
	}
}

func TestRunRecoversAndStopsCleanly(t *testing.T) {
	var buf bytes.Buffer
	s, slept := newTestSupervisor(5, &buf, nil)

	calls := 0
	err := s.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("bad gateway")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Errorf("poll called %d times, want 3", calls)
	}
	if len(*slept) != 2 {
		t.Errorf("slept %d times, want 2", len(*slept))
	}
	if s.State() != Stopped {
		t.Errorf("State = %s, want stopped", s.State())
	}
}

func TestRunTreatsPanicAsCrash(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestSupervisor(2, &buf, nil)

	calls := 0
	err := s.Run(context.Background(), func(ctx context.Context) error {
		calls++
		panic("boom")
	})

	if calls != 2 {
		t.Errorf("poll called %d times, want 2", calls)
	}
	if err == nil || !strings.Contains(err.Error(), "polling panicked: boom") {
		t.Errorf("err = %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestSupervisor(5, &buf, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := s.Run(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("canceled while polling")
	})

	if err != nil {
		t.Errorf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("poll called %d times, want 1", calls)
	}
}

func TestRunStateWhilePolling(t *testing.T) {
	var buf bytes.Buffer
	s, _ := newTestSupervisor(1, &buf, nil)

	var during State = -1
	_ = s.Run(context.Background(), func(ctx context.Context) error {
		during = s.State()
		return nil
	})

	if during != Running {
		t.Errorf("state while polling = %s, want running", during)
	}
}

func TestSleepContextInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := sleepContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep was not interrupted")
	}
}
