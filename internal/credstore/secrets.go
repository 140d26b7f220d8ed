package credstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// ServiceName identifies this application's entries in the OS secret service.
const ServiceName = "com.slick-dataui.app"

var (
	// ErrSecretNotFound is returned by SecretStore.Get when no entry exists.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrUnavailable is returned by every UnavailableStore operation.
	ErrUnavailable = errors.New("secure storage unavailable")
)

// SecretStore is a per-account secret service.
type SecretStore interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// KeyringStore uses the OS keyring (Keychain, Secret Service, Windows
// Credential Manager).
type KeyringStore struct{}

var _ SecretStore = KeyringStore{}

func (KeyringStore) Set(service, account, secret string) error {
	if err := keyring.Set(service, account, secret); err != nil {
		return fmt.Errorf("keyring set %q: %w", account, err)
	}
	return nil
}

func (KeyringStore) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get %q: %w", account, err)
	}
	return secret, nil
}

func (KeyringStore) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrSecretNotFound
	}
	if err != nil {
		return fmt.Errorf("keyring delete %q: %w", account, err)
	}
	return nil
}

// UnavailableStore models a machine without secure storage. Every call
// fails, so the store falls back to the plaintext copy.
type UnavailableStore struct{}

var _ SecretStore = UnavailableStore{}

func (UnavailableStore) Set(string, string, string) error { return ErrUnavailable }
func (UnavailableStore) Get(string, string) (string, error) { return "", ErrUnavailable }
func (UnavailableStore) Delete(string, string) error { return ErrUnavailable }

// MemoryStore keeps secrets in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

var _ SecretStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

func memKey(service, account string) string {
	return service + "\x00" + account
}

func (m *MemoryStore) Set(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[memKey(service, account)] = secret
	return nil
}

func (m *MemoryStore) Get(service, account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.secrets[memKey(service, account)]
	if !ok {
		return "", ErrSecretNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey(service, account)
	if _, ok := m.secrets[k]; !ok {
		return ErrSecretNotFound
	}
	delete(m.secrets, k)
	return nil
}

// Len returns the number of stored secrets.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.secrets)
}

const probeAccount = "slickdata-probe"

// Probe reports whether s can store and delete a secret.
func Probe(s SecretStore) error {
	if err := s.Set(ServiceName, probeAccount, "probe"); err != nil {
		return err
	}
	return s.Delete(ServiceName, probeAccount)
}
