package plex

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"notifyplex/internal/fileutil"
	"notifyplex/internal/logging"
	"notifyplex/internal/services"
)

// Credential is the cached result of a plex.tv sign-in.
type Credential struct {
	Token string `json:"auth_token"`
	// DirectURL is the plex.direct address found for the server, empty when
	// resolution failed and the configured address should be used.
	DirectURL string `json:"direct_url,omitempty"`
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Token) != ""
}

// CredentialStore abstracts persistence of the sign-in result.
type CredentialStore interface {
	Load() (Credential, bool)
	Save(Credential) error
	Invalidate() error
}

// FileCredentialStore keeps the credential as JSON on disk.
type FileCredentialStore struct {
	path   string
	logger *slog.Logger
}

// NewFileCredentialStore builds a FileCredentialStore for the given file.
func NewFileCredentialStore(path string, logger *slog.Logger) *FileCredentialStore {
	return &FileCredentialStore{
		path:   path,
		logger: logging.NewComponentLogger(logger, "credential-cache"),
	}
}

// Load reads the cached credential. A missing, unreadable, corrupt or
// token-less file is reported as absent.
func (s *FileCredentialStore) Load() (Credential, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("cannot read cached plex token", logging.String("path", s.path), logging.Error(err))
		}
		return Credential{}, false
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		s.logger.Warn("ignoring corrupt plex token cache", logging.String("path", s.path), logging.Error(err))
		return Credential{}, false
	}
	if !cred.Valid() {
		return Credential{}, false
	}
	s.logger.Info("using stored plex auth token, bypassing plex.tv")
	return cred, true
}

// Save writes the credential atomically. A concurrent writer holding the lock
// makes Save give up rather than wait.
func (s *FileCredentialStore) Save(cred Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPermission, "credential cache", "encode", "", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrPermission, "credential cache", "write",
			fmt.Sprintf("cannot create %s", filepath.Dir(s.path)), err)
	}
	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrPermission, "credential cache", "lock",
			fmt.Sprintf("cannot lock %s", s.path), err)
	}
	if !locked {
		return services.Wrap(services.ErrPermission, "credential cache", "lock",
			fmt.Sprintf("%s is being written by another process", s.path), nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return services.Wrap(services.ErrPermission, "credential cache", "write",
			fmt.Sprintf("cannot write %s", s.path), err)
	}
	s.logger.Debug("stored plex auth token", logging.String("path", s.path))
	return nil
}

// Invalidate removes the cache file. A missing file is not an error.
func (s *FileCredentialStore) Invalidate() error {
	removed, err := fileutil.RemoveIfExists(s.path)
	if err != nil {
		return services.Wrap(services.ErrPermission, "credential cache", "delete",
			fmt.Sprintf("cannot delete %s", s.path), err)
	}
	if removed {
		s.logger.Info("removed cached plex token", logging.String("path", s.path))
	}
	return nil
}
