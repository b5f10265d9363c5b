// Package auth logs saved profiles into the gateway, pulling and saving
// passwords through the system keychain.
package auth

import (
	"context"
	"errors"

	cblog "github.com/charmbracelet/log"
	"github.com/darksworm/mongonaut/pkg/api"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
)

// SessionService opens and closes gateway connections
type SessionService interface {
	Login(ctx context.Context, req api.LoginRequest) (model.Connection, error)
	Logout(ctx context.Context, connectionID string) error
}

// AuthManager coordinates the login flow for saved profiles
type AuthManager struct {
	keychain KeychainStore
	sessions SessionService
}

// NewAuthManager creates a manager. A nil keychain uses the system one.
func NewAuthManager(sessions SessionService, keychain KeychainStore) *AuthManager {
	if keychain == nil {
		keychain = NewKeychainStore()
	}
	return &AuthManager{keychain: keychain, sessions: sessions}
}

// Login connects conn. When password is empty the stored one is used; a
// password that was typed in is saved on success when remember is set.
func (m *AuthManager) Login(ctx context.Context, conn model.Connection, password string, remember bool) (model.Connection, error) {
	log := cblog.With("component", "auth-manager", "profile", conn.Name)

	typed := password != ""
	if !typed && conn.Username != "" {
		stored, err := m.keychain.LoadPassword(conn.Name)
		switch {
		case err == nil:
			log.Debug("Using stored password")
			password = stored
		case errors.Is(err, ErrNotFound):
			log.Debug("No stored password")
		default:
			log.Warn("Could not read keychain", "err", err)
		}
	}

	connected, err := m.sessions.Login(ctx, api.LoginRequest{
		Host:      conn.Host,
		Port:      conn.Port,
		Username:  conn.Username,
		Password:  password,
		Databases: conn.Databases,
	})
	if err != nil {
		log.Info("Login failed", "err", err)
		if !typed && conn.Username != "" && isUnauthorized(err) {
			if appErr, ok := apperrors.As(err); ok {
				return model.Connection{}, appErr.WithUserAction("Enter the password for " + conn.Username)
			}
		}
		return model.Connection{}, err
	}
	connected.Name = conn.Name

	if typed && remember {
		if storeErr := m.keychain.StorePassword(conn.Name, password); storeErr != nil {
			log.Warn("Failed to store password in keychain", "err", storeErr)
		}
	}

	log.Info("Connected", "connectionId", connected.ID, "databases", len(connected.Databases))
	return connected, nil
}

// Logout closes the gateway connection
func (m *AuthManager) Logout(ctx context.Context, connectionID string) error {
	return m.sessions.Logout(ctx, connectionID)
}

// Remember saves a password for the profile without logging in
func (m *AuthManager) Remember(profile, password string) error {
	if password == "" {
		return nil
	}
	return m.keychain.StorePassword(profile, password)
}

// Forget removes a profile's stored password
func (m *AuthManager) Forget(profile string) error {
	if err := m.keychain.DeletePassword(profile); err != nil && !errors.Is(err, ErrKeychainUnavailable) {
		return err
	}
	return nil
}

// HasStoredPassword reports whether a password is saved for the profile
func (m *AuthManager) HasStoredPassword(profile string) bool {
	password, err := m.keychain.LoadPassword(profile)
	return err == nil && password != ""
}

func isUnauthorized(err error) bool {
	appErr, ok := apperrors.As(err)
	return ok && appErr.IsCategory(apperrors.ErrorAuth)
}
