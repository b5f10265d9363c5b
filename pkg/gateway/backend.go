package gateway

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned by backends when the credentials lack a privilege
var ErrUnauthorized = errors.New("not authorised")

func isUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// DatabaseInfo describes one database as reported by the server
type DatabaseInfo struct {
	Name       string
	SizeOnDisk int64
	Empty      bool
}

// CollectionInfo describes one namespace inside a database
type CollectionInfo struct {
	Name   string
	Type   string
	Capped bool
}

// CollectionOptions are the create-time options of a collection
type CollectionOptions struct {
	Capped bool
	Size   int64
	Max    int64
}

// Backend is one authenticated server connection
type Backend interface {
	ListDatabases(ctx context.Context) ([]DatabaseInfo, error)
	ListCollections(ctx context.Context, database string) ([]CollectionInfo, error)
	// CanRead probes whether the credentials may list database's collections
	CanRead(ctx context.Context, database string) bool
	CreateCollection(ctx context.Context, database, name string, opts CollectionOptions) error
	DropCollection(ctx context.Context, database, name string) error
	DropDatabase(ctx context.Context, database string) error
	Close(ctx context.Context) error
}

// Dialer opens Backends
type Dialer interface {
	Dial(ctx context.Context, details ConnectionDetails) (Backend, error)
}
