// Package context holds the per-operation deadlines used by the console's
// gateway client and by the gateway's MongoDB calls.
package context

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

// Operation names a class of call with its own deadline
type Operation string

const (
	OpRead     Operation = "read"     // GET list calls
	OpMutation Operation = "mutation" // create and drop
	OpLogin    Operation = "login"
	OpMongo    Operation = "mongo" // driver calls made by the gateway
)

var (
	timeoutsMu sync.RWMutex
	timeouts   = defaultTimeouts()
)

func defaultTimeouts() map[Operation]time.Duration {
	return map[Operation]time.Duration{
		OpRead:     5 * time.Second,
		OpMutation: 10 * time.Second,
		OpLogin:    5 * time.Second,
		OpMongo:    10 * time.Second,
	}
}

// Timeout returns the deadline for op; zero means none
func Timeout(op Operation) time.Duration {
	timeoutsMu.RLock()
	defer timeoutsMu.RUnlock()
	return timeouts[op]
}

// SetTimeout overrides the deadline for op. Non-positive values are ignored.
func SetTimeout(op Operation, d time.Duration) {
	if d <= 0 {
		return
	}
	timeoutsMu.Lock()
	defer timeoutsMu.Unlock()
	timeouts[op] = d
}

// SetRequestTimeout applies the configured gateway timeout. Mutations get
// twice as long since dropping a large database is slow.
func SetRequestTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	SetTimeout(OpRead, d)
	SetTimeout(OpLogin, d)
	SetTimeout(OpMutation, 2*d)
}

// ResetTimeouts restores the built-in deadlines
func ResetTimeouts() {
	timeoutsMu.Lock()
	defer timeoutsMu.Unlock()
	timeouts = defaultTimeouts()
}

// WithTimeout derives a context bounded by op's deadline
func WithTimeout(parent context.Context, op Operation) (context.Context, context.CancelFunc) {
	d := Timeout(op)
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// IsTimeout reports whether err is a deadline or a timeout-category error
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr.IsCategory(apperrors.ErrorTimeout)
	}
	return false
}
