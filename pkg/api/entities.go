package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	cblog "github.com/charmbracelet/log"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// CreateOptions carries the optional create-collection settings
type CreateOptions struct {
	Capped bool
	Size   int64
	Max    int64
}

// LoginRequest is the body of POST login
type LoginRequest struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Databases []string
}

// EntityService provides typed access to the gateway routes
type EntityService struct {
	client Requester
}

// NewEntityService wraps a Requester
func NewEntityService(client Requester) *EntityService {
	return &EntityService{client: client}
}

// listSegment maps an entity kind to its route segment
func listSegment(kind model.EntityKind) string {
	switch kind {
	case model.KindCollection:
		return "collection"
	case model.KindBucket:
		return "gridfs"
	}
	return ""
}

// EntityPath returns the create/drop route for e
func EntityPath(e model.Entity) string {
	if e.Kind == model.KindDatabase {
		return BuildPath(e.ConnectionID, "db", e.Name)
	}
	return BuildPath(e.ConnectionID, e.Database, listSegment(e.Kind), e.Name)
}

// ListPath returns the list route for entities of kind under database
func ListPath(connectionID string, kind model.EntityKind, database string) string {
	if kind == model.KindDatabase {
		return BuildPath(connectionID, "db")
	}
	return BuildPath(connectionID, database, listSegment(kind))
}

// List fetches the entities of kind under database (ignored for databases).
// A server-reported failure is returned as an *AppError.
func (s *EntityService) List(ctx context.Context, connectionID string, kind model.EntityKind, database string) ([]model.Entity, error) {
	res, err := s.client.Request(ctx, http.MethodGet, ListPath(connectionID, kind, database), nil)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, resultError(res)
	}
	return ParseEntities(res.Payload, kind, connectionID, database), nil
}

// ParseEntities converts a list payload into entities. Elements may be bare
// names or descriptor objects with a "name" field; any other fields are kept
// as Info in server order.
func ParseEntities(payload gjson.Result, kind model.EntityKind, connectionID, database string) []model.Entity {
	items := make([]model.Entity, 0)
	payload.ForEach(func(_, value gjson.Result) bool {
		e := model.Entity{Kind: kind, ConnectionID: connectionID}
		if kind.IsChild() {
			e.Database = database
		}
		if value.IsObject() {
			value.ForEach(func(key, field gjson.Result) bool {
				if key.String() == "name" {
					e.Name = field.String()
					return true
				}
				e.Info = append(e.Info, model.EntityInfo{Key: key.String(), Value: field.String()})
				return true
			})
		} else {
			e.Name = value.String()
		}
		if e.Name != "" {
			items = append(items, e)
		}
		return true
	})
	return items
}

// Create issues one create call for target. Body fields follow the kind:
// collections send capped/size/max.
func (s *EntityService) Create(ctx context.Context, target model.Entity, opts CreateOptions) (Result, error) {
	body, err := createBody(target, opts)
	if err != nil {
		return Result{}, err
	}
	res, err := s.client.Request(ctx, http.MethodPost, EntityPath(target), body)
	if err == nil && !res.Success {
		res.Message = conflictMessage(target, res)
	}
	return res, err
}

// Drop issues one drop call for target
func (s *EntityService) Drop(ctx context.Context, target model.Entity) (Result, error) {
	res, err := s.client.Request(ctx, http.MethodDelete, EntityPath(target), nil)
	if err == nil && !res.Success {
		res.Message = conflictMessage(target, res)
	}
	return res, err
}

// Login authenticates and returns the connection issued by the gateway
func (s *EntityService) Login(ctx context.Context, req LoginRequest) (model.Connection, error) {
	body := `{}`
	var err error
	for _, kv := range []struct {
		key   string
		value interface{}
	}{
		{"host", req.Host},
		{"port", req.Port},
		{"username", req.Username},
		{"password", req.Password},
		{"databases", strings.Join(req.Databases, ",")},
	} {
		if body, err = sjson.Set(body, kv.key, kv.value); err != nil {
			return model.Connection{}, apperrors.Wrap(err, apperrors.ErrorValidation, "JSON_MARSHAL_FAILED",
				"Failed to build login request")
		}
	}

	res, err := s.client.Request(ctx, http.MethodPost, "login", []byte(body))
	if err != nil {
		return model.Connection{}, err
	}
	if !res.Success {
		return model.Connection{}, resultError(res)
	}

	id := res.Payload.Get("connectionId").String()
	if id == "" {
		return model.Connection{}, apperrors.New(apperrors.ErrorAPI, "INVALID_RESPONSE",
			"Login response did not include a connection id")
	}
	cblog.With("component", "api").Info("Connected", "host", req.Host, "port", req.Port, "connectionId", id)

	conn := model.Connection{
		ID:        id,
		Host:      req.Host,
		Port:      req.Port,
		Username:  req.Username,
		Databases: req.Databases,
	}
	if len(conn.Databases) == 0 {
		for _, v := range res.Payload.Get("databases").Array() {
			conn.Databases = append(conn.Databases, v.String())
		}
	}
	return conn, nil
}

// Logout releases the connection on the gateway
func (s *EntityService) Logout(ctx context.Context, connectionID string) error {
	res, err := s.client.Request(ctx, http.MethodDelete, BuildPath(connectionID, "login"), nil)
	if err != nil {
		return err
	}
	if !res.Success {
		return resultError(res)
	}
	return nil
}

func createBody(target model.Entity, opts CreateOptions) ([]byte, error) {
	body, err := sjson.Set(`{}`, "name", target.Name)
	if err == nil && target.Kind == model.KindCollection {
		if body, err = sjson.Set(body, "capped", opts.Capped); err == nil && opts.Capped {
			if body, err = sjson.Set(body, "size", opts.Size); err == nil {
				body, err = sjson.Set(body, "max", opts.Max)
			}
		}
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorValidation, "JSON_MARSHAL_FAILED",
			"Failed to build request body").
			WithContext("entity", target.Path())
	}
	return []byte(body), nil
}

// conflictMessage renders a server-reported failure for the operator
func conflictMessage(target model.Entity, res Result) string {
	switch res.ErrorKind {
	case KindAlreadyExists:
		return fmt.Sprintf("%s %s already exists", target.Kind.Label(), target.Name)
	case KindNotFound:
		return fmt.Sprintf("%s %s no longer exists", target.Kind.Label(), target.Name)
	case KindInvalidConnection:
		return "Connection is no longer valid. Reconnect and try again"
	case KindUnauthorized:
		return "Not authorised for this operation"
	}
	if res.Message != "" {
		return res.Message
	}
	return fmt.Sprintf("Operation on %s %s failed", target.Kind, target.Name)
}

// resultError converts a failed Result into a structured error
func resultError(res Result) *apperrors.AppError {
	category := apperrors.ErrorAPI
	switch res.ErrorKind {
	case KindUnauthorized, KindInvalidConnection:
		category = apperrors.ErrorAuth
	case KindAlreadyExists:
		category = apperrors.ErrorConflict
	}
	message := res.Message
	if message == "" {
		message = "Gateway reported an error"
	}
	return apperrors.New(category, res.Code, message).WithContext("errorKind", res.ErrorKind)
}
