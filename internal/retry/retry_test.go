package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	result := Do(context.Background(), Linear(3, 0), func() error { return nil })
	if result.Err != nil || result.Attempts != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	result := Do(context.Background(), Linear(3, 0), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if result.Err != nil || result.Attempts != 3 {
		t.Errorf("result = %+v", result)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	failure := errors.New("always")
	result := Do(context.Background(), Linear(2, 0), func() error { return failure })
	if !errors.Is(result.Err, failure) || result.Attempts != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	result := Do(context.Background(), Linear(5, 0), func() error {
		calls++
		return Permanent(errors.New("bad config"))
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !IsPermanent(result.Err) {
		t.Errorf("err = %v", result.Err)
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := Do(ctx, Linear(3, time.Second), func() error { return errors.New("never runs") })
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("err = %v", result.Err)
	}
}

func TestDoZeroAttemptsCoercesToOne(t *testing.T) {
	calls := 0
	Do(context.Background(), Config{}, func() error { calls++; return errors.New("x") })
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}

func TestPermanentNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) must be nil")
	}
	if IsPermanent(errors.New("plain")) {
		t.Error("plain error is not permanent")
	}
}
