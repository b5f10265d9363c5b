package context

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

func TestSetRequestTimeout(t *testing.T) {
	t.Cleanup(ResetTimeouts)

	tests := []struct {
		name         string
		timeout      time.Duration
		wantRead     time.Duration
		wantMutation time.Duration
		wantLogin    time.Duration
	}{
		{name: "30s", timeout: 30 * time.Second, wantRead: 30 * time.Second, wantMutation: time.Minute, wantLogin: 30 * time.Second},
		{name: "zero is ignored", timeout: 0, wantRead: 30 * time.Second, wantMutation: time.Minute, wantLogin: 30 * time.Second},
		{name: "2s", timeout: 2 * time.Second, wantRead: 2 * time.Second, wantMutation: 4 * time.Second, wantLogin: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetRequestTimeout(tt.timeout)

			if got := Timeout(OpRead); got != tt.wantRead {
				t.Errorf("read = %v, want %v", got, tt.wantRead)
			}
			if got := Timeout(OpMutation); got != tt.wantMutation {
				t.Errorf("mutation = %v, want %v", got, tt.wantMutation)
			}
			if got := Timeout(OpLogin); got != tt.wantLogin {
				t.Errorf("login = %v, want %v", got, tt.wantLogin)
			}
			if got := Timeout(OpMongo); got != 10*time.Second {
				t.Errorf("mongo timeout changed to %v", got)
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	t.Cleanup(ResetTimeouts)
	SetTimeout(OpMongo, 50*time.Millisecond)

	ctx, cancel := WithTimeout(context.Background(), OpMongo)
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if left := time.Until(deadline); left > 50*time.Millisecond {
		t.Fatalf("deadline %v away, want at most 50ms", left)
	}

	plain, cancelPlain := WithTimeout(context.Background(), Operation("unknown"))
	defer cancelPlain()
	if _, ok := plain.Deadline(); ok {
		t.Fatal("unknown operations should not get a deadline")
	}
}

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("list: %w", context.DeadlineExceeded), true},
		{"timeout category", apperrors.TimeoutError("REQUEST_TIMEOUT", "slow"), true},
		{"canceled", context.Canceled, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.want {
				t.Errorf("IsTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}
