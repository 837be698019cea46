package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
)

func fastConfig() Config {
	return Config{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxElapsedTime: 200 * time.Millisecond}
}

func TestSucceedsFirstTryIsNotMitigated(t *testing.T) {
	res := ExecuteWithRetries(context.Background(), fastConfig(), func(ctx context.Context) error {
		return nil
	})
	if res.Err != nil || res.Mitigated() {
		t.Errorf("got %+v, want single successful attempt with Mitigated()==false", res)
	}
}

func TestSucceedsAfterRetryIsMitigated(t *testing.T) {
	calls := 0
	res := ExecuteWithRetries(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return driver.Transientf("probe", errors.New("temporary"))
		}
		return nil
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Mitigated() {
		t.Errorf("expected Mitigated()==true after %d attempts", res.Attempts)
	}
}

func TestAuthErrorIsNeverRetried(t *testing.T) {
	calls := 0
	res := ExecuteWithRetries(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return driver.AuthErrorf("login", errors.New("bad credential"))
	})
	if calls != 1 {
		t.Errorf("expected exactly one attempt for an AuthError, got %d", calls)
	}
	if res.Err == nil {
		t.Errorf("expected error to propagate")
	}
}
