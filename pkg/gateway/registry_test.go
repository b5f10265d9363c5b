package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

func details() ConnectionDetails {
	return ConnectionDetails{Host: "localhost", Port: 27017}
}

func TestRegistry_IDFormatAndReuse(t *testing.T) {
	dialer := &fakeDialer{}
	r := NewRegistry(dialer)
	ctx := context.Background()

	first, err := r.Authenticate(ctx, details())
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	if !strings.HasPrefix(first.ID, "1_") {
		t.Fatalf("ID = %q, want counter prefix 1_", first.ID)
	}

	again, err := r.Authenticate(ctx, ConnectionDetails{Host: "127.0.0.1", Port: 27017, Databases: []string{" admin "}})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID {
		t.Fatalf("identical login got a new id: %q vs %q", again.ID, first.ID)
	}
	if dialer.dials != 1 {
		t.Fatalf("dials = %d, want 1", dialer.dials)
	}

	other, err := r.Authenticate(ctx, ConnectionDetails{Host: "localhost", Port: 27018})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(other.ID, "2_") || other.ID == first.ID {
		t.Fatalf("second connection ID = %q", other.ID)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d", r.Len())
	}
}

func TestRegistry_LookupRejectsBadIDs(t *testing.T) {
	r := NewRegistry(&fakeDialer{})
	sess, err := r.Authenticate(context.Background(), details())
	if err != nil {
		t.Fatal(err)
	}
	hash := strings.SplitN(sess.ID, "_", 2)[1]

	tests := []string{"", "abc", "1_2_3", "_" + hash, "x_" + hash, "9_" + hash, "1_ffff"}
	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			_, err := r.Lookup(id)
			appErr, ok := apperrors.As(err)
			if !ok || appErr.Code != CodeInvalidConnection {
				t.Fatalf("Lookup(%q) err = %v, want INVALID_CONNECTION", id, err)
			}
		})
	}

	if got, err := r.Lookup(sess.ID); err != nil || got != sess {
		t.Fatalf("Lookup(valid) = %v, %v", got, err)
	}
}

func TestRegistry_AuthFailures(t *testing.T) {
	tests := []struct {
		name    string
		details ConnectionDetails
		code    string
	}{
		{"anonymous", ConnectionDetails{Host: "h", Port: 1, Databases: []string{"secret"}}, CodeNeedAuthorisation},
		{"bad credentials", ConnectionDetails{Host: "h", Port: 1, Username: "u", Password: "p", Databases: []string{"secret"}}, CodeInvalidUsername},
		{"no port", ConnectionDetails{Host: "h"}, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := &fakeDialer{}
			r := NewRegistry(dialer)
			_, err := r.Authenticate(context.Background(), tt.details)
			appErr, ok := apperrors.As(err)
			if !ok || appErr.Code != tt.code {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if dialer.last != nil && !dialer.last.closed {
				t.Error("rejected backend was not closed")
			}
			if r.Len() != 0 {
				t.Error("failed login was registered")
			}
		})
	}
}

func TestRegistry_DialFailure(t *testing.T) {
	r := NewRegistry(&fakeDialer{err: errors.New("connection refused")})
	_, err := r.Authenticate(context.Background(), details())
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != CodeHostUnreachable {
		t.Fatalf("err = %v", err)
	}
}

func TestRegistry_Disconnect(t *testing.T) {
	dialer := &fakeDialer{}
	r := NewRegistry(dialer)
	ctx := context.Background()
	sess, _ := r.Authenticate(ctx, details())

	if err := r.Disconnect(ctx, sess.ID); err != nil {
		t.Fatalf("Disconnect() failed: %v", err)
	}
	if !dialer.last.closed {
		t.Error("backend not closed")
	}
	if _, err := r.Lookup(sess.ID); err == nil {
		t.Error("id still valid after disconnect")
	}
	if err := r.Disconnect(ctx, sess.ID); err == nil {
		t.Error("second disconnect should fail")
	}

	// a fresh login after disconnect gets a new counter
	again, _ := r.Authenticate(ctx, details())
	if again.ID == sess.ID {
		t.Error("disconnected id was reissued")
	}
}
