package model

import (
	"time"
)

// Async results are delivered back into the update loop as messages.
// Each carries the issuing component's instance ID and sequence number so
// that stale or orphaned results can be dropped by the receiver.

// ListLoadedMsg is the result of one list panel fetch
type ListLoadedMsg struct {
	PanelID   int
	Seq       int
	Items     []Entity
	FetchedAt time.Time
	Err       error
}

// ModalResultMsg is the outcome of the single gateway call issued by a modal.
// Err is set on transport failure; otherwise Success/ErrorKind/Message
// describe the server-reported outcome.
type ModalResultMsg struct {
	ModalID   int
	Seq       int
	Success   bool
	ErrorKind string
	Message   string
	Err       error
}

// ModalAutoCloseMsg fires AutoCloseDelay after a successful submit
type ModalAutoCloseMsg struct {
	ModalID int
	Seq     int
}

// ConnectedMsg reports the result of a login call
type ConnectedMsg struct {
	Connection Connection
	Err        error
}

// DisconnectedMsg reports the result of a logout call
type DisconnectedMsg struct {
	Err error
}

// StatusMsg sets the status line
type StatusMsg struct {
	Text  string
	Error bool
}
