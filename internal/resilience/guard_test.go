package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestGuardDoReturnsResponseOnSuccess(t *testing.T) {
	g := NewGuard("test", 1000, 1000, time.Second)
	want := &http.Response{StatusCode: 200}

	got, err := g.Do(context.Background(), "https://example.com/path", func(ctx context.Context) (*http.Response, error) {
		return want, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected the response to pass through unchanged")
	}
	if !g.Healthy() {
		t.Error("expected guard to remain healthy after a single success")
	}
}

func TestGuardDoPropagatesUnderlyingError(t *testing.T) {
	g := NewGuard("test", 1000, 1000, time.Second)
	wantErr := errors.New("boom")

	_, err := g.Do(context.Background(), "https://example.com/path", func(ctx context.Context) (*http.Response, error) {
		return nil, wantErr
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestGuardDoOpensBreakerAfterConsecutiveFailures(t *testing.T) {
	g := NewGuard("test", 1000, 1000, time.Minute)
	failing := func(ctx context.Context) (*http.Response, error) {
		return nil, errors.New("boom")
	}

	for i := 0; i < 3; i++ {
		if _, err := g.Do(context.Background(), "https://example.com/path", failing); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}

	if g.Healthy() {
		t.Error("expected guard to be unhealthy after repeated failures")
	}

	_, err := g.Do(context.Background(), "https://example.com/path", func(ctx context.Context) (*http.Response, error) {
		t.Fatal("breaker should have short-circuited this call")
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected the open breaker to reject the call")
	}
}
