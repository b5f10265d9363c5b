package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/darksworm/mongonaut/pkg/api"
	"github.com/darksworm/mongonaut/pkg/config"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/tidwall/gjson"
)

type harness struct {
	server  *httptest.Server
	backend *fakeBackend
	svc     *api.EntityService
	conn    model.Connection
}

func newHarness(t *testing.T, readOnly bool) *harness {
	t.Helper()
	backend := newFakeBackend()
	registry := NewRegistry(&fakeDialer{backend: func() *fakeBackend { return backend }})
	cfg := config.DefaultGatewayServerConfig()
	cfg.ReadOnly = readOnly

	srv := httptest.NewServer(NewServer(cfg, registry).Handler())
	t.Cleanup(srv.Close)

	svc := api.NewEntityService(api.NewClient(srv.URL+cfg.BasePath, nil))
	conn, err := svc.Login(context.Background(), api.LoginRequest{Host: "localhost", Port: 27017})
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	return &harness{server: srv, backend: backend, svc: svc, conn: conn}
}

func (h *harness) names(t *testing.T, kind model.EntityKind, db string) []string {
	t.Helper()
	items, err := h.svc.List(context.Background(), h.conn.ID, kind, db)
	if err != nil {
		t.Fatalf("List(%s, %s) failed: %v", kind, db, err)
	}
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.Name
	}
	return out
}

func (h *harness) entity(kind model.EntityKind, db, name string) model.Entity {
	return model.Entity{Kind: kind, Name: name, ConnectionID: h.conn.ID, Database: db}
}

func TestServer_LoginReturnsConnection(t *testing.T) {
	h := newHarness(t, false)
	if !strings.HasPrefix(h.conn.ID, "1_") {
		t.Fatalf("connection id = %q", h.conn.ID)
	}
	if !reflect.DeepEqual(h.conn.Databases, []string{"admin", "shop"}) {
		t.Fatalf("databases = %v", h.conn.Databases)
	}
}

func TestServer_DatabaseLifecycle(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	if got := h.names(t, model.KindDatabase, ""); !reflect.DeepEqual(got, []string{"admin", "shop"}) {
		t.Fatalf("databases = %v", got)
	}

	res, err := h.svc.Create(ctx, h.entity(model.KindDatabase, "", "crm"), api.CreateOptions{})
	if err != nil || !res.Success {
		t.Fatalf("Create(crm) = %+v, %v", res, err)
	}
	if got := h.names(t, model.KindDatabase, ""); !reflect.DeepEqual(got, []string{"admin", "shop", "crm"}) {
		t.Fatalf("databases after create = %v", got)
	}

	res, err = h.svc.Create(ctx, h.entity(model.KindDatabase, "", "shop"), api.CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.ErrorKind != api.KindAlreadyExists || res.Message != "Database shop already exists" {
		t.Fatalf("duplicate create = %+v", res)
	}

	res, err = h.svc.Drop(ctx, h.entity(model.KindDatabase, "", "crm"))
	if err != nil || !res.Success {
		t.Fatalf("Drop(crm) = %+v, %v", res, err)
	}
	res, _ = h.svc.Drop(ctx, h.entity(model.KindDatabase, "", "crm"))
	if res.Success || res.ErrorKind != api.KindNotFound {
		t.Fatalf("second drop = %+v", res)
	}
}

func TestServer_CollectionsHideBucketsAndSystem(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	if got := h.names(t, model.KindCollection, "shop"); !reflect.DeepEqual(got, []string{"orders", "users"}) {
		t.Fatalf("collections = %v", got)
	}
	if got := h.names(t, model.KindBucket, "shop"); !reflect.DeepEqual(got, []string{"images"}) {
		t.Fatalf("buckets = %v", got)
	}

	res, err := h.svc.Create(ctx, h.entity(model.KindCollection, "shop", "logs"),
		api.CreateOptions{Capped: true, Size: 4096, Max: 10})
	if err != nil || !res.Success {
		t.Fatalf("Create(logs) = %+v, %v", res, err)
	}
	if got := h.names(t, model.KindCollection, "shop"); !reflect.DeepEqual(got, []string{"orders", "users", "logs"}) {
		t.Fatalf("collections after create = %v", got)
	}
	items, _ := h.svc.List(ctx, h.conn.ID, model.KindCollection, "shop")
	if capped, _ := items[2].InfoValue("capped"); capped != "true" {
		t.Errorf("logs capped info = %q", capped)
	}

	res, _ = h.svc.Create(ctx, h.entity(model.KindCollection, "shop", "orders"), api.CreateOptions{})
	if res.Success || res.ErrorKind != api.KindAlreadyExists {
		t.Fatalf("duplicate collection = %+v", res)
	}
}

func TestServer_BucketLifecycle(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	res, err := h.svc.Create(ctx, h.entity(model.KindBucket, "shop", "avatars"), api.CreateOptions{})
	if err != nil || !res.Success {
		t.Fatalf("Create(avatars) = %+v, %v", res, err)
	}
	if got := h.names(t, model.KindBucket, "shop"); !reflect.DeepEqual(got, []string{"images", "avatars"}) {
		t.Fatalf("buckets = %v", got)
	}

	res, _ = h.svc.Create(ctx, h.entity(model.KindBucket, "shop", "images"), api.CreateOptions{})
	if res.ErrorKind != api.KindAlreadyExists {
		t.Fatalf("duplicate bucket = %+v", res)
	}

	res, _ = h.svc.Drop(ctx, h.entity(model.KindBucket, "shop", "images"))
	if !res.Success {
		t.Fatalf("Drop(images) = %+v", res)
	}
	if got := h.names(t, model.KindBucket, "shop"); !reflect.DeepEqual(got, []string{"avatars"}) {
		t.Fatalf("buckets after drop = %v", got)
	}
	if got := h.names(t, model.KindCollection, "shop"); !reflect.DeepEqual(got, []string{"orders", "users"}) {
		t.Fatalf("bucket halves leaked into collections: %v", got)
	}
}

func TestServer_InvalidConnection(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.svc.List(context.Background(), "42_nope", model.KindDatabase, "")
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != CodeInvalidConnection {
		t.Fatalf("err = %v, want INVALID_CONNECTION", err)
	}

	res, err := h.svc.Create(context.Background(), model.Entity{Kind: model.KindDatabase, Name: "x", ConnectionID: "bad"}, api.CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.ErrorKind != api.KindInvalidConnection {
		t.Fatalf("create on bad connection = %+v", res)
	}
}

func TestServer_LogoutInvalidatesConnection(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	if err := h.svc.Logout(ctx, h.conn.ID); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if !h.backend.closed {
		t.Error("backend not closed on logout")
	}
	if _, err := h.svc.List(ctx, h.conn.ID, model.KindDatabase, ""); err == nil {
		t.Fatal("list succeeded after logout")
	}
}

func TestServer_ReadOnly(t *testing.T) {
	h := newHarness(t, true)
	res, err := h.svc.Create(context.Background(), h.entity(model.KindDatabase, "", "crm"), api.CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Code != CodeReadOnly {
		t.Fatalf("create on read-only gateway = %+v", res)
	}
	if got := h.names(t, model.KindDatabase, ""); len(got) != 2 {
		t.Fatalf("read-only gateway changed state: %v", got)
	}
}

func TestServer_ValidationErrors(t *testing.T) {
	h := newHarness(t, false)
	tests := []struct {
		name   string
		target model.Entity
		opts   api.CreateOptions
	}{
		{"database with dot", h.entity(model.KindDatabase, "", "a.b"), api.CreateOptions{}},
		{"system collection", h.entity(model.KindCollection, "shop", "system.x"), api.CreateOptions{}},
		{"capped without size", h.entity(model.KindCollection, "shop", "c"), api.CreateOptions{Capped: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.svc.Create(context.Background(), tt.target, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if res.Success {
				t.Fatal("invalid create succeeded")
			}
		})
	}
}

func TestServer_EnvelopeAndRequestID(t *testing.T) {
	h := newHarness(t, false)

	resp, err := http.Get(h.server.URL + "/mViewer/nowhere/at/all?connectionId=" + h.conn.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
	parsed := gjson.ParseBytes(body)
	if parsed.Get("response.error.code").String() != CodeInvalidRequest {
		t.Fatalf("body = %s", body)
	}
	if parsed.Get("response.error.requestId").String() != resp.Header.Get("X-Request-Id") {
		t.Error("request id in body does not match header")
	}
}

func TestDatabaseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`"shop, crm"`, []string{"shop", "crm"}},
		{`["shop","crm"]`, []string{"shop", "crm"}},
		{`""`, nil},
	}
	for _, tt := range tests {
		if got := databaseList(gjson.Parse(tt.in)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("databaseList(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestServer_RequiresToken(t *testing.T) {
	backend := newFakeBackend()
	registry := NewRegistry(&fakeDialer{backend: func() *fakeBackend { return backend }})
	cfg := config.DefaultGatewayServerConfig()
	cfg.AuthToken = "s3cret"
	srv := httptest.NewServer(NewServer(cfg, registry).Handler())
	defer srv.Close()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "missing", wantStatus: http.StatusUnauthorized, wantCode: CodeGatewayToken},
		{name: "wrong", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantCode: CodeGatewayToken},
		{name: "valid", header: "Bearer s3cret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, srv.URL+cfg.BasePath+"login",
				strings.NewReader(`{"host":"localhost","port":27017}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
			}
			if got := gjson.GetBytes(body, "response.error.code").String(); got != tt.wantCode {
				t.Fatalf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}
