package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCategory groups failures by what the operator can do about them
type ErrorCategory string

const (
	ErrorNetwork     ErrorCategory = "network"
	ErrorAuth        ErrorCategory = "auth"
	ErrorValidation  ErrorCategory = "validation"
	ErrorConflict    ErrorCategory = "conflict"
	ErrorAPI         ErrorCategory = "api"
	ErrorTimeout     ErrorCategory = "timeout"
	ErrorStorage     ErrorCategory = "storage"
	ErrorUnavailable ErrorCategory = "unavailable"
	ErrorInternal    ErrorCategory = "internal"
)

// AppError is the structured error carried from the gateway client to the
// status line and the log.
type AppError struct {
	Category    ErrorCategory          `json:"category"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Cause       error                  `json:"-"`
	Recoverable bool                   `json:"recoverable"`
	UserAction  string                 `json:"userAction,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on category and code so sentinel AppErrors work with errors.Is
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// WithContext records a key for the log line.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithUserAction(action string) *AppError {
	e.UserAction = action
	return e
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

func (e *AppError) IsCategory(category ErrorCategory) bool {
	return e.Category == category
}

func (e *AppError) IsCode(code string) bool {
	return e.Code == code
}

// New builds an AppError stamped with the current time.
func New(category ErrorCategory, code, message string) *AppError {
	return &AppError{
		Category:  category,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap is New with err kept as the cause.
func Wrap(err error, category ErrorCategory, code, message string) *AppError {
	return &AppError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     err,
		Timestamp: time.Now(),
	}
}

func ValidationError(code, message string) *AppError {
	return New(ErrorValidation, code, message).
		WithUserAction("Please check your input and try again")
}

// ConflictError is what the gateway returns for duplicate names.
func ConflictError(code, message string) *AppError {
	return New(ErrorConflict, code, message).
		AsRecoverable().
		WithUserAction("Choose a different name and try again")
}

func TimeoutError(code, message string) *AppError {
	return New(ErrorTimeout, code, message).
		AsRecoverable().
		WithUserAction("The operation timed out. Please try again")
}

// As extracts an *AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// UserMessage returns the text shown to the operator for err.
// Structured errors show their message and suggested action; anything else
// falls back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		if appErr.UserAction != "" {
			return appErr.Message + ". " + appErr.UserAction
		}
		return appErr.Message
	}
	return err.Error()
}
