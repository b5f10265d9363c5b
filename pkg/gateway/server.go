// Package gateway is the REST service the console talks to. It keeps a
// registry of authenticated MongoDB connections and answers every call with
// the {"response": {"result" | "error"}} envelope.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/config"
	appcontext "github.com/darksworm/mongonaut/pkg/context"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 1 << 20

type requestIDKey struct{}

// Server wires the HTTP routes to the registry and service
type Server struct {
	registry *Registry
	service  *Service
	basePath string
	token    string
	handler  http.Handler
	logger   *cblog.Logger
}

// NewServer builds the route table under cfg.BasePath
func NewServer(cfg *config.GatewayServerConfig, registry *Registry) *Server {
	s := &Server{
		registry: registry,
		service:  NewService(cfg.ReadOnly),
		basePath: cfg.BasePath,
		token:    cfg.AuthToken,
		logger:   cblog.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("DELETE /login", s.handleLogout)

	mux.HandleFunc("GET /db", s.withSession(s.listDatabases))
	mux.HandleFunc("POST /db/{name}", s.withSession(s.createDatabase))
	mux.HandleFunc("DELETE /db/{name}", s.withSession(s.dropDatabase))

	mux.HandleFunc("GET /{db}/collection", s.withSession(s.listCollections))
	mux.HandleFunc("POST /{db}/collection/{name}", s.withSession(s.createCollection))
	mux.HandleFunc("DELETE /{db}/collection/{name}", s.withSession(s.dropCollection))

	mux.HandleFunc("GET /{db}/gridfs", s.withSession(s.listBuckets))
	mux.HandleFunc("POST /{db}/gridfs/{name}", s.withSession(s.createBucket))
	mux.HandleFunc("DELETE /{db}/gridfs/{name}", s.withSession(s.dropBucket))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperrors.New(apperrors.ErrorValidation, CodeInvalidRequest,
			"No such operation: "+r.Method+" "+r.URL.Path))
	})

	prefix := strings.TrimSuffix(cfg.BasePath, "/")
	s.handler = s.logRequests(s.requireToken(http.StripPrefix(prefix, mux)))
	return s
}

// BasePath is the prefix every route is served under
func (s *Server) BasePath() string {
	return s.basePath
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// logRequests tags each request with an id and logs its outcome
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		ctx, cancel := appcontext.WithTimeout(context.WithValue(r.Context(), requestIDKey{}, id), appcontext.OpMongo)
		defer cancel()
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.Info("request",
			"requestId", id,
			"method", r.Method,
			"path", r.URL.Path,
			"connectionId", r.URL.Query().Get("connectionId"),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// requireToken rejects requests without the configured bearer token
func (s *Server) requireToken(next http.Handler) http.Handler {
	if s.token == "" {
		return next
	}
	want := []byte("Bearer " + s.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			s.writeError(w, r, apperrors.New(apperrors.ErrorAuth, CodeGatewayToken,
				"Gateway token missing or invalid"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session)

// withSession resolves ?connectionId= before calling next
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.registry.Lookup(r.URL.Query().Get("connectionId"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	details := ConnectionDetails{
		Host:      body.Get("host").String(),
		Port:      int(body.Get("port").Int()),
		Username:  body.Get("username").String(),
		Password:  body.Get("password").String(),
		Databases: databaseList(body.Get("databases")),
	}
	sess, err := s.registry.Authenticate(r.Context(), details)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dbs := sess.Readable
	if listed, err := s.service.ListDatabases(r.Context(), sess); err == nil {
		dbs = dbs[:0:0]
		for _, db := range listed {
			dbs = append(dbs, db.Name)
		}
	}
	s.writeResult(w, loginView{
		ConnectionID: sess.ID,
		Databases:    dbs,
		Host:         sess.Details.Host,
		Port:         sess.Details.Port,
	})
}

// databaseList accepts "a,b" or ["a","b"]
func databaseList(v gjson.Result) []string {
	var out []string
	if v.IsArray() {
		for _, item := range v.Array() {
			out = append(out, item.String())
		}
		return out
	}
	for _, name := range strings.Split(v.String(), ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Disconnect(r.Context(), r.URL.Query().Get("connectionId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, "User Logged Out")
}

func (s *Server) listDatabases(w http.ResponseWriter, r *http.Request, sess *Session) {
	dbs, err := s.service.ListDatabases(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]databaseView, len(dbs))
	for i, db := range dbs {
		out[i] = databaseView{Name: db.Name, SizeOnDisk: db.SizeOnDisk, Empty: db.Empty}
	}
	s.writeResult(w, out)
}

func (s *Server) createDatabase(w http.ResponseWriter, r *http.Request, sess *Session) {
	name := r.PathValue("name")
	if err := s.service.CreateDatabase(r.Context(), sess, name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, "Database "+name+" created")
}

func (s *Server) dropDatabase(w http.ResponseWriter, r *http.Request, sess *Session) {
	name := r.PathValue("name")
	if err := s.service.DropDatabase(r.Context(), sess, name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, "Database "+name+" dropped")
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request, sess *Session) {
	colls, err := s.service.ListCollections(r.Context(), sess, r.PathValue("db"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]collectionView, len(colls))
	for i, c := range colls {
		out[i] = collectionView{Name: c.Name, Type: c.Type, Capped: c.Capped}
	}
	s.writeResult(w, out)
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request, sess *Session) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := CollectionOptions{
		Capped: body.Get("capped").Bool(),
		Size:   body.Get("size").Int(),
		Max:    body.Get("max").Int(),
	}
	name := r.PathValue("name")
	if err := s.service.CreateCollection(r.Context(), sess, r.PathValue("db"), name, opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, "Collection "+name+" created")
}

func (s *Server) dropCollection(w http.ResponseWriter, r *http.Request, sess *Session) {
	name := r.PathValue("name")
	if err := s.service.DropCollection(r.Context(), sess, r.PathValue("db"), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, "Collection "+name+" dropped")
}

func (s *Server) listBuckets(w http.ResponseWriter, r *http.Request, sess *Session) {
	buckets, err := s.service.ListBuckets(r.Context(), sess, r.PathValue("db"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if buckets == nil {
		buckets = []string{}
	}
	s.writeResult(w, buckets)
}

func (s *Server) createBucket(w http.ResponseWriter, r *http.Request, sess *Session) {
	name := r.PathValue("name")
	if err := s.service.CreateBucket(r.Context(), sess, r.PathValue("db"), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, "Bucket "+name+" created")
}

func (s *Server) dropBucket(w http.ResponseWriter, r *http.Request, sess *Session) {
	name := r.PathValue("name")
	if err := s.service.DropBucket(r.Context(), sess, r.PathValue("db"), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResult(w, "Bucket "+name+" dropped")
}

// readBody parses an optional JSON body
func readBody(r *http.Request) (gjson.Result, error) {
	if r.Body == nil {
		return gjson.Result{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, invalidRequest("Failed to read request body")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, invalidRequest("Request body is not valid JSON")
	}
	return gjson.ParseBytes(data), nil
}

type loginView struct {
	ConnectionID string   `json:"connectionId"`
	Databases    []string `json:"databases"`
	Host         string   `json:"host"`
	Port         int      `json:"port"`
}

type databaseView struct {
	Name       string `json:"name"`
	SizeOnDisk int64  `json:"sizeOnDisk"`
	Empty      bool   `json:"empty"`
}

type collectionView struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Capped bool   `json:"capped"`
}

type envelope struct {
	Response envelopeBody `json:"response"`
}

type envelopeBody struct {
	Result any            `json:"result,omitempty"`
	Error  *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, envelope{Response: envelopeBody{Result: result}})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrorInternal, CodeServerError, "Internal error")
	}
	status := statusFor(appErr)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "requestId", requestID(r.Context()), "code", appErr.Code, "err", err)
	} else {
		s.logger.Debug("Request rejected", "requestId", requestID(r.Context()), "code", appErr.Code, "message", appErr.Message)
	}
	writeJSON(w, status, envelope{Response: envelopeBody{Error: &envelopeError{
		Code:      appErr.Code,
		Message:   appErr.Message,
		RequestID: requestID(r.Context()),
	}}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
