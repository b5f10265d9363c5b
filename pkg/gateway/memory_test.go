package gateway

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	apperrors "github.com/darksworm/mongonaut/pkg/errors"
)

func TestMemoryDialer_Credentials(t *testing.T) {
	backend := newFakeBackend()
	r := NewRegistry(&MemoryDialer{Backend: backend, Users: map[string]string{"ops": "pw"}})
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		code     string
	}{
		{"anonymous", "", "", ""},
		{"known user", "ops", "pw", ""},
		{"wrong password", "ops", "nope", CodeInvalidUsername},
		{"unknown user", "root", "pw", CodeInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Authenticate(ctx, ConnectionDetails{Host: "h", Port: 1, Username: tt.username, Password: tt.password})
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Authenticate() failed: %v", err)
				}
				return
			}
			appErr, ok := apperrors.As(err)
			if !ok || appErr.Code != tt.code {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestService_ListDatabasesFallsBackToReadable(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = ErrUnauthorized
	r := NewRegistry(&MemoryDialer{Backend: backend})
	ctx := context.Background()

	sess, err := r.Authenticate(ctx, ConnectionDetails{Host: "h", Port: 1, Databases: []string{"shop", "missing"}})
	if err != nil {
		t.Fatal(err)
	}
	dbs, err := NewService(false).ListDatabases(ctx, sess)
	if err != nil {
		t.Fatalf("ListDatabases() failed: %v", err)
	}
	var names []string
	for _, db := range dbs {
		names = append(names, db.Name)
	}
	if !reflect.DeepEqual(names, []string{"shop"}) {
		t.Fatalf("databases = %v, want only the readable ones", names)
	}
}

func TestMemoryBackend_DropUnknownCollection(t *testing.T) {
	b := newFakeBackend()
	if err := b.DropCollection(context.Background(), "shop", "nope"); err == nil {
		t.Fatal("dropping a missing collection succeeded")
	}
	if err := b.CreateCollection(context.Background(), "shop", "orders", CollectionOptions{}); err == nil {
		t.Fatal("duplicate collection created")
	}
}

func TestService_DriverTimeoutIsReported(t *testing.T) {
	backend := newFakeBackend()
	r := NewRegistry(&MemoryDialer{Backend: backend})
	ctx := context.Background()

	sess, err := r.Authenticate(ctx, ConnectionDetails{Host: "h", Port: 1})
	if err != nil {
		t.Fatal(err)
	}
	backend.listErr = fmt.Errorf("listDatabases: %w", context.DeadlineExceeded)

	_, err = NewService(false).ListDatabases(ctx, sess)
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != CodeMongoTimeout || !appErr.IsCategory(apperrors.ErrorTimeout) {
		t.Fatalf("err = %v, want %s", err, CodeMongoTimeout)
	}
	if statusFor(appErr) != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", statusFor(appErr))
	}
}

func TestService_DropThenRecreateDatabaseListsOnce(t *testing.T) {
	backend := newFakeBackend()
	r := NewRegistry(&MemoryDialer{Backend: backend})
	ctx := context.Background()
	sess, err := r.Authenticate(ctx, ConnectionDetails{Host: "h", Port: 1})
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(false)

	if err := svc.DropDatabase(ctx, sess, "shop"); err != nil {
		t.Fatalf("DropDatabase() failed: %v", err)
	}
	if err := svc.CreateDatabase(ctx, sess, "shop"); err != nil {
		t.Fatalf("CreateDatabase() failed: %v", err)
	}

	dbs, err := svc.ListDatabases(ctx, sess)
	if err != nil {
		t.Fatalf("ListDatabases() failed: %v", err)
	}
	var names []string
	for _, db := range dbs {
		names = append(names, db.Name)
	}
	if !reflect.DeepEqual(names, []string{"admin", "shop"}) {
		t.Fatalf("databases = %v, want [admin shop]", names)
	}
}
