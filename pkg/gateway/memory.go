package gateway

import (
	"context"
	"errors"
	"sync"
)

// SeedDatabase is one database of a MemoryBackend
type SeedDatabase struct {
	Name        string
	Collections []string
}

// MemoryBackend keeps databases in process. The demo runs on it.
type MemoryBackend struct {
	mu     sync.Mutex
	order  []string
	dbs    map[string][]CollectionInfo
	denied bool
	// listErr makes ListDatabases fail, as a server without listDatabases rights does
	listErr error
	closed  bool
}

// NewMemoryBackend creates a backend holding seed in order
func NewMemoryBackend(seed ...SeedDatabase) *MemoryBackend {
	b := &MemoryBackend{dbs: map[string][]CollectionInfo{}}
	for _, db := range seed {
		b.order = append(b.order, db.Name)
		b.dbs[db.Name] = []CollectionInfo{}
		for _, c := range db.Collections {
			b.dbs[db.Name] = append(b.dbs[db.Name], CollectionInfo{Name: c, Type: "collection"})
		}
	}
	return b
}

func (b *MemoryBackend) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []DatabaseInfo
	for _, name := range b.order {
		if colls, ok := b.dbs[name]; ok {
			out = append(out, DatabaseInfo{Name: name, SizeOnDisk: int64(4096 * (len(colls) + 1)), Empty: len(colls) == 0})
		}
	}
	return out, nil
}

func (b *MemoryBackend) ListCollections(ctx context.Context, database string) ([]CollectionInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]CollectionInfo(nil), b.dbs[database]...), nil
}

// CanRead is true for admin and every existing database unless the
// backend was dialed with bad credentials
func (b *MemoryBackend) CanRead(ctx context.Context, database string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.denied {
		return false
	}
	_, ok := b.dbs[database]
	return ok || database == "admin"
}

func (b *MemoryBackend) CreateCollection(ctx context.Context, database, name string, opts CollectionOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.dbs[database]; !ok {
		b.order = append(b.order, database)
	}
	for _, c := range b.dbs[database] {
		if c.Name == name {
			return errors.New("collection already exists")
		}
	}
	b.dbs[database] = append(b.dbs[database], CollectionInfo{Name: name, Type: "collection", Capped: opts.Capped})
	return nil
}

func (b *MemoryBackend) DropCollection(ctx context.Context, database, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	colls := b.dbs[database]
	for i, c := range colls {
		if c.Name == name {
			b.dbs[database] = append(colls[:i:i], colls[i+1:]...)
			return nil
		}
	}
	return errors.New("ns not found")
}

func (b *MemoryBackend) DropDatabase(ctx context.Context, database string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.dbs, database)
	for i, name := range b.order {
		if name == database {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *MemoryBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// MemoryDialer hands every login the same MemoryBackend. Users, when set,
// are the accepted username/password pairs.
type MemoryDialer struct {
	Backend *MemoryBackend
	Users   map[string]string
}

func (d *MemoryDialer) Dial(ctx context.Context, details ConnectionDetails) (Backend, error) {
	if details.Username == "" && details.Password == "" {
		return d.Backend, nil
	}
	if pw, ok := d.Users[details.Username]; ok && pw == details.Password {
		return d.Backend, nil
	}
	return &MemoryBackend{dbs: map[string][]CollectionInfo{}, denied: true}, nil
}
