package asyncx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gestionsaas/identity/pkg/asyncx"
)

func TestAllSettledCollectsEveryResult(t *testing.T) {
	results := asyncx.AllSettled(context.Background(),
		func(ctx context.Context) (string, error) { return "ok", nil },
		func(ctx context.Context) (string, error) { return "", errors.New("boom") },
		func(ctx context.Context) (string, error) { return "also ok", nil },
	)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if !results[0].OK() || results[0].Value != "ok" {
		t.Errorf("results[0] = %+v, want ok", results[0])
	}
	if results[1].OK() {
		t.Error("results[1] should carry the error")
	}
	if !results[2].OK() || results[2].Value != "also ok" {
		t.Errorf("results[2] = %+v, want also ok", results[2])
	}
}

func TestRetryWithBackoffEventuallySucceeds(t *testing.T) {
	calls := 0
	val, err := asyncx.RetryWithBackoff(context.Background(), 5, time.Millisecond,
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("not yet")
			}
			return 42, nil
		})
	if err != nil {
		t.Fatalf("RetryWithBackoff: %v", err)
	}
	if val != 42 {
		t.Errorf("val = %d, want 42", val)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffReturnsLastError(t *testing.T) {
	wantErr := errors.New("still down")
	calls := 0
	_, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond,
		func(ctx context.Context) (int, error) {
			calls++
			return 0, wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := asyncx.RetryWithBackoff(ctx, 3, time.Millisecond,
		func(ctx context.Context) (int, error) {
			return 0, errors.New("never succeeds")
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
