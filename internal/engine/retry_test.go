package engine

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

var fastRetry = RetryConfig{
	MaxRetries:  3,
	InitialWait: time.Millisecond,
	MaxWait:     5 * time.Millisecond,
	Multiplier:  2.0,
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{301, false},
		{400, false},
		{403, false},
		{404, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
	}
	for _, tt := range tests {
		if got := IsRetryableStatus(tt.code); got != tt.want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRetryDoSuccess(t *testing.T) {
	calls := 0
	got, err := RetryDo(context.Background(), fastRetry, func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Errorf("got %q after %d calls, want ok after 1", got, calls)
	}
}

func TestRetryDoRetriesThenSucceeds(t *testing.T) {
	calls := 0
	got, err := RetryDo(context.Background(), fastRetry, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, RetryableStatusError(503)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Errorf("got %d after %d calls, want 42 after 3", got, calls)
	}
}

func TestRetryDoExhausted(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, func() (int, error) {
		calls++
		return 0, RetryableStatusError(500)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != fastRetry.MaxRetries+1 {
		t.Errorf("got %d calls, want %d", calls, fastRetry.MaxRetries+1)
	}
}

func TestRetryDoNonRetryable(t *testing.T) {
	calls := 0
	wantErr := errors.New("bad request")
	_, err := RetryDo(context.Background(), fastRetry, func() (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable error retried: %d calls", calls)
	}
}

func TestRetryDoNetworkErrorsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}},
		{"dns error", &net.DNSError{Err: "no such host", Name: "example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := RetryDo(context.Background(), fastRetry, func() (int, error) {
				calls++
				if calls == 1 {
					return 0, tt.err
				}
				return 1, nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if calls != 2 {
				t.Errorf("got %d calls, want 2", calls)
			}
		})
	}
}

func TestRetryDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryDo(ctx, fastRetry, func() (int, error) {
		calls++
		return 0, RetryableStatusError(500)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("canceled context still ran fn %d times", calls)
	}
}
