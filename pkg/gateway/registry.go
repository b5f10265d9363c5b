package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
	"sync"

	cblog "github.com/charmbracelet/log"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

// ConnectionDetails are the login fields a connection is keyed on
type ConnectionDetails struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Databases []string
}

// sanitize normalises the details so equivalent logins compare equal
func (d ConnectionDetails) sanitize() ConnectionDetails {
	d.Host = strings.TrimSpace(d.Host)
	if d.Host == "localhost" {
		d.Host = "127.0.0.1"
	}
	var dbs []string
	for _, name := range d.Databases {
		if name = strings.TrimSpace(name); name != "" {
			dbs = append(dbs, name)
		}
	}
	if len(dbs) == 0 {
		dbs = []string{"admin"}
	}
	d.Databases = dbs
	return d
}

func (d ConnectionDetails) equal(other ConnectionDetails) bool {
	return d.Host == other.Host && d.Port == other.Port &&
		d.Username == other.Username && d.Password == other.Password &&
		slices.Equal(d.Databases, other.Databases)
}

// hash is the stable suffix of every connection id issued for d
func (d ConnectionDetails) hash() string {
	h := sha256.New()
	for _, part := range []string{d.Host, strconv.Itoa(d.Port), d.Username, d.Password, strings.Join(d.Databases, ",")} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:6])
}

// Session is a registered, authenticated connection
type Session struct {
	ID       string
	Details  ConnectionDetails
	Backend  Backend
	Readable []string
}

// Registry issues connection ids of the form "<counter>_<hash>". Logging
// in again with identical details returns the existing id.
type Registry struct {
	dialer Dialer

	mu      sync.Mutex
	counter int64
	byHash  map[string][]*Session

	logger *cblog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(dialer Dialer) *Registry {
	return &Registry{
		dialer: dialer,
		byHash: make(map[string][]*Session),
		logger: cblog.With("component", "registry"),
	}
}

// Authenticate returns the session for details, dialing a new backend when
// no identical login is registered.
func (r *Registry) Authenticate(ctx context.Context, details ConnectionDetails) (*Session, error) {
	details = details.sanitize()
	if details.Host == "" || details.Port < 1 || details.Port > 65535 {
		return nil, invalidRequest("A host and a port between 1 and 65535 are required")
	}
	hash := details.hash()

	if s := r.find(hash, details); s != nil {
		r.logger.Debug("Reusing connection", "connectionId", s.ID)
		return s, nil
	}

	backend, err := r.dialer.Dial(ctx, details)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorUnavailable, CodeHostUnreachable,
			"Could not connect to "+details.Host+":"+strconv.Itoa(details.Port))
	}

	var readable []string
	for _, name := range details.Databases {
		if backend.CanRead(ctx, name) {
			readable = append(readable, name)
		}
	}
	if len(readable) == 0 {
		_ = backend.Close(ctx)
		code := CodeInvalidUsername
		if details.Username == "" && details.Password == "" {
			code = CodeNeedAuthorisation
		}
		return nil, apperrors.New(apperrors.ErrorAuth, code, "Invalid UserName or Password")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another request may have registered the same login meanwhile
	for _, s := range r.byHash[hash] {
		if s.Details.equal(details) {
			_ = backend.Close(ctx)
			return s, nil
		}
	}
	r.counter++
	s := &Session{
		ID:       strconv.FormatInt(r.counter, 10) + "_" + hash,
		Details:  details,
		Backend:  backend,
		Readable: readable,
	}
	r.byHash[hash] = append(r.byHash[hash], s)
	r.logger.Info("Registered connection", "connectionId", s.ID, "host", details.Host, "port", details.Port)
	return s, nil
}

func (r *Registry) find(hash string, details ConnectionDetails) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byHash[hash] {
		if s.Details.equal(details) {
			return s
		}
	}
	return nil
}

// Lookup returns the session for id. Malformed and unknown ids are both
// INVALID_CONNECTION.
func (r *Registry) Lookup(id string) (*Session, error) {
	hash, ok := splitID(id)
	if !ok {
		return nil, invalidConnection()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byHash[hash] {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, invalidConnection()
}

// Disconnect removes id from the registry and closes its backend
func (r *Registry) Disconnect(ctx context.Context, id string) error {
	hash, ok := splitID(id)
	if !ok {
		return invalidConnection()
	}

	r.mu.Lock()
	sessions := r.byHash[hash]
	idx := slices.IndexFunc(sessions, func(s *Session) bool { return s.ID == id })
	if idx < 0 {
		r.mu.Unlock()
		return invalidConnection()
	}
	s := sessions[idx]
	sessions = slices.Delete(sessions, idx, idx+1)
	if len(sessions) == 0 {
		delete(r.byHash, hash)
	} else {
		r.byHash[hash] = sessions
	}
	r.mu.Unlock()

	r.logger.Info("Disconnected", "connectionId", id)
	return s.Backend.Close(ctx)
}

// Len reports the number of registered connections
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, sessions := range r.byHash {
		n += len(sessions)
	}
	return n
}

// CloseAll disconnects every session; used on shutdown
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	var all []*Session
	for _, sessions := range r.byHash {
		all = append(all, sessions...)
	}
	r.byHash = make(map[string][]*Session)
	r.mu.Unlock()

	for _, s := range all {
		if err := s.Backend.Close(ctx); err != nil {
			r.logger.Warn("Failed to close connection", "connectionId", s.ID, "err", err)
		}
	}
}

func splitID(id string) (hash string, ok bool) {
	parts := strings.Split(id, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
		return "", false
	}
	return parts[1], true
}
