package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failed")

func TestClosedAllowsRequests(t *testing.T) {
	cb := New(DefaultConfig())

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed state, got %s", cb.State())
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	cb := New(Config{MaxFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected open state after 3 failures, got %s", cb.State())
	}

	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrOpenState) {
		t.Errorf("expected open-state rejection, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{MaxFailures: 2, Timeout: time.Minute})

	cb.Execute(func() error { return errUpstream })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errUpstream })

	// The success in between reset the streak, so we are still closed
	if cb.State() != StateClosed {
		t.Errorf("expected closed state, got %s", cb.State())
	}
}

func TestHalfOpenProbeRecovers(t *testing.T) {
	cb := New(Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	cb.Execute(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %s", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to be admitted, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed state after successful probe, got %s", cb.State())
	}
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	cb := New(Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	cb.Execute(func() error { return errUpstream })
	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
		t.Fatalf("expected probe to run, got %v", err)
	}
	if cb.State() != StateOpen {
		t.Errorf("expected open state after failed probe, got %s", cb.State())
	}
}

func TestReset(t *testing.T) {
	cb := New(Config{MaxFailures: 1, Timeout: time.Minute})

	cb.Execute(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %s", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("expected closed state after reset, got %s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("expected request admitted after reset, got %v", err)
	}
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	cb := New(Config{})
	if cb.cfg.MaxFailures != DefaultConfig().MaxFailures {
		t.Errorf("expected default max failures, got %d", cb.cfg.MaxFailures)
	}
	if cb.cfg.Timeout != DefaultConfig().Timeout {
		t.Errorf("expected default timeout, got %v", cb.cfg.Timeout)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
