package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keychain service every profile password lives under
const DefaultService = "mongonaut"

var (
	// ErrKeychainUnavailable means no keychain backend is reachable
	ErrKeychainUnavailable = errors.New("keychain is not available on this system")
	// ErrNotFound means the profile has no stored password
	ErrNotFound = errors.New("credential not found in keychain")
)

// KeychainStore keeps profile passwords out of the profile database
type KeychainStore interface {
	StorePassword(profile, password string) error
	LoadPassword(profile string) (string, error)
	DeletePassword(profile string) error
}

// Keychain stores passwords in the OS keychain through go-keyring
type Keychain struct {
	service string
}

// NewKeychainStore returns the keychain under DefaultService
func NewKeychainStore() KeychainStore {
	return NewKeychain(DefaultService)
}

// NewKeychain returns a keychain scoped to service
func NewKeychain(service string) *Keychain {
	if service == "" {
		service = DefaultService
	}
	return &Keychain{service: service}
}

// account hashes the profile name into the keychain account
func (k *Keychain) account(profile string) string {
	sum := sha256.Sum256([]byte(profile))
	return "profile:" + hex.EncodeToString(sum[:8])
}

func (k *Keychain) StorePassword(profile, password string) error {
	return translate("store", keyring.Set(k.service, k.account(profile), password))
}

func (k *Keychain) LoadPassword(profile string) (string, error) {
	password, err := keyring.Get(k.service, k.account(profile))
	if err != nil {
		return "", translate("load", err)
	}
	return password, nil
}

// DeletePassword is a no-op for profiles without a stored password
func (k *Keychain) DeletePassword(profile string) error {
	err := translate("delete", keyring.Delete(k.service, k.account(profile)))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// translate maps go-keyring failures onto ErrNotFound and ErrKeychainUnavailable
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case unavailable(err):
		return ErrKeychainUnavailable
	}
	return fmt.Errorf("keychain %s: %w", op, err)
}

// unavailable guesses from the message; go-keyring has no dedicated error
// for a missing backend
func unavailable(err error) bool {
	if errors.Is(err, keyring.ErrUnsupportedPlatform) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"secret service", "dbus", "keychain", "credential manager"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
