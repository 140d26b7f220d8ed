// Package credstore persists saved connections.
//
// Metadata lives in a JSON file under the user config directory. Each
// connection string is additionally written to the OS secret service when
// one is available; the file keeps a plaintext fallback copy so the tool
// keeps working on machines without one.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

const (
	// AppDirName is the directory created under the user config directory.
	AppDirName = "slick-dataui"
	// ConnectionsFileName is the metadata file name.
	ConnectionsFileName = "connections.json"
)

// DefaultDir returns <user config dir>/slick-dataui.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not find config directory: %w", err)
	}
	return filepath.Join(base, AppDirName), nil
}

// DefaultPath returns the default connections.json location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConnectionsFileName), nil
}

// SaveReport describes what Save managed to persist.
type SaveReport struct {
	// Written is the number of records in the metadata file.
	Written int
	// SecureFailures names the connections whose secret only exists as
	// the plaintext fallback.
	SecureFailures []string
}

// Store reads and writes the connection list.
type Store struct {
	path    string
	secrets SecretStore
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithSecretStore replaces the OS keyring.
func WithSecretStore(s SecretStore) Option {
	return func(st *Store) {
		if s != nil {
			st.secrets = s
		}
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(st *Store) {
		if logger != nil {
			st.logger = logger
		}
	}
}

// New creates a Store backed by the file at path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		secrets: KeyringStore{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the metadata file location.
func (s *Store) Path() string {
	return s.path
}

// SecretStore returns the secret service in use.
func (s *Store) SecretStore() SecretStore {
	return s.secrets
}

func (s *Store) lock() *flock.Flock {
	return flock.New(s.path + ".lock")
}

// Save replaces the stored list with conns.
//
// The metadata file is written first, atomically. Secrets are then written
// to secure storage one by one; those failures are logged and reported but
// never returned, since the file already holds a usable fallback.
func (s *Store) Save(conns []core.ConnectionConfig) (SaveReport, error) {
	metadata := make([]core.ConnectionMetadata, 0, len(conns))
	for _, c := range conns {
		secret := c.ConnectionString
		metadata = append(metadata, core.ConnectionMetadata{
			Name:           c.Name,
			DBType:         c.DBType,
			UnsafePassword: &secret,
		})
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return SaveReport{}, fmt.Errorf("encode connections: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return SaveReport{}, fmt.Errorf("create config directory: %w", err)
	}

	fl := s.lock()
	if err := fl.Lock(); err != nil {
		return SaveReport{}, fmt.Errorf("lock %s: %w", s.path, err)
	}
	err = writeFileAtomic(s.path, data, 0o600)
	_ = fl.Unlock()
	if err != nil {
		return SaveReport{}, fmt.Errorf("write %s: %w", s.path, err)
	}

	report := SaveReport{Written: len(metadata)}
	for _, c := range conns {
		if err := s.secrets.Set(ServiceName, c.Name, c.ConnectionString); err != nil {
			s.logger.Warn("failed to save secret to secure storage",
				slog.String("connection", c.Name),
				slog.String("error", err.Error()))
			report.SecureFailures = append(report.SecureFailures, c.Name)
		}
	}

	s.logger.Debug("connections saved",
		slog.String("path", s.path),
		slog.Int("count", report.Written),
		slog.Int("secure_failures", len(report.SecureFailures)))
	return report, nil
}

// Load reads the stored list.
//
// A missing file yields an empty list. So does a file that fails to parse;
// the file is left untouched and the failure is logged. Each secret is
// taken from secure storage when present, else from the plaintext
// fallback. Records with neither come back with an empty connection string.
func (s *Store) Load() ([]core.ConnectionConfig, error) {
	fl := s.lock()
	if err := fl.RLock(); err == nil {
		defer func() { _ = fl.Unlock() }()
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("no connections file", slog.String("path", s.path))
		return []core.ConnectionConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var metadata []core.ConnectionMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		s.logger.Error("connections file is corrupt, starting with an empty list",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return []core.ConnectionConfig{}, nil
	}

	conns := make([]core.ConnectionConfig, 0, len(metadata))
	for _, meta := range metadata {
		conns = append(conns, core.ConnectionConfig{
			Name:             meta.Name,
			DBType:           meta.DBType,
			ConnectionString: s.resolveSecret(meta),
		})
	}

	s.logger.Debug("connections loaded", slog.Int("count", len(conns)))
	return conns, nil
}

func (s *Store) resolveSecret(meta core.ConnectionMetadata) string {
	secret, err := s.secrets.Get(ServiceName, meta.Name)
	if err == nil {
		s.logger.Debug("secret loaded from secure storage", slog.String("connection", meta.Name))
		return secret
	}
	if !errors.Is(err, ErrSecretNotFound) && !errors.Is(err, ErrUnavailable) {
		s.logger.Warn("secure storage lookup failed",
			slog.String("connection", meta.Name),
			slog.String("error", err.Error()))
	}

	if meta.UnsafePassword != nil {
		s.logger.Info("secret loaded from plaintext fallback", slog.String("connection", meta.Name))
		return *meta.UnsafePassword
	}

	s.logger.Error("no secret in secure storage or fallback", slog.String("connection", meta.Name))
	return ""
}

// Add appends cfg and saves the result. Names must be unique.
func (s *Store) Add(conns []core.ConnectionConfig, cfg core.ConnectionConfig) ([]core.ConnectionConfig, SaveReport, error) {
	if err := cfg.Validate(); err != nil {
		return conns, SaveReport{}, err
	}
	if Find(conns, cfg.Name) >= 0 {
		return conns, SaveReport{}, core.InvalidInputf("connection %q already exists", cfg.Name)
	}

	next := append(append(make([]core.ConnectionConfig, 0, len(conns)+1), conns...), cfg)
	report, err := s.Save(next)
	if err != nil {
		return conns, report, err
	}
	return next, report, nil
}

// Remove drops the connection called name, saves, and deletes its secret.
func (s *Store) Remove(conns []core.ConnectionConfig, name string) ([]core.ConnectionConfig, error) {
	idx := Find(conns, name)
	if idx < 0 {
		return conns, core.InvalidInputf("no connection named %q", name)
	}

	next := make([]core.ConnectionConfig, 0, len(conns)-1)
	next = append(next, conns[:idx]...)
	next = append(next, conns[idx+1:]...)
	if _, err := s.Save(next); err != nil {
		return conns, err
	}

	err := s.secrets.Delete(ServiceName, name)
	if err != nil && !errors.Is(err, ErrSecretNotFound) && !errors.Is(err, ErrUnavailable) {
		s.logger.Warn("failed to delete secret from secure storage",
			slog.String("connection", name),
			slog.String("error", err.Error()))
	}
	return next, nil
}

// Find returns the index of the connection called name, or -1.
func Find(conns []core.ConnectionConfig, name string) int {
	for i, c := range conns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
