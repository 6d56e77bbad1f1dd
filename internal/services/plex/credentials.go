package plex

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
	"notifyplex/internal/services"
)

// ManagerOption customises Manager construction.
type ManagerOption func(*Manager)

// WithPlexTVClient overrides the HTTP client used for plex.tv calls.
func WithPlexTVClient(client HTTPDoer) ManagerOption {
	return func(m *Manager) {
		m.plexTVClient = client
	}
}

// WithServerClient overrides the HTTP client used for server requests,
// including the direct connection probes.
func WithServerClient(client HTTPDoer) ManagerOption {
	return func(m *Manager) {
		m.serverClient = client
	}
}

// WithPlexTVBaseURL overrides the plex.tv base URL (used in tests).
func WithPlexTVBaseURL(baseURL string) ManagerOption {
	return func(m *Manager) {
		m.plexTVBaseURL = baseURL
	}
}

// WithCredentialStore injects a custom persistence layer.
func WithCredentialStore(store CredentialStore) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

// Manager obtains credentials and builds sessions against the configured server.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	store         CredentialStore
	plexTVClient  HTTPDoer
	serverClient  HTTPDoer
	plexTVBaseURL string
	auth          *Authenticator
}

// NewManager wires a Manager from configuration.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "plex"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewFileCredentialStore(cfg.CredentialPath(), logger)
	}
	if m.plexTVClient == nil {
		m.plexTVClient = &http.Client{Timeout: cfg.PlexTVTimeout()}
	}
	if m.serverClient == nil {
		m.serverClient = &http.Client{Timeout: cfg.ServerTimeout()}
	}
	m.auth = NewAuthenticator(m.plexTVBaseURL, m.plexTVClient, m.serverClient, logger)
	return m
}

// Store exposes the credential store backing the manager.
func (m *Manager) Store() CredentialStore {
	return m.store
}

// Acquire returns a credential, from the cache unless bypassCache is set,
// otherwise by signing in to plex.tv and resolving the direct address. Fresh
// credentials are cached only when the cache is not bypassed.
func (m *Manager) Acquire(ctx context.Context, bypassCache bool) (Credential, error) {
	if !bypassCache {
		if cred, ok := m.store.Load(); ok {
			return cred, nil
		}
	}

	username := strings.TrimSpace(m.cfg.Plex.Username)
	if username == "" || m.cfg.Plex.Password == "" {
		return Credential{}, services.Wrap(services.ErrAuth, "plex.tv", "sign in",
			"no cached token and no plex.tv username/password configured", nil)
	}

	token, err := m.auth.Authenticate(ctx, username, m.cfg.Plex.Password)
	if err != nil {
		return Credential{}, err
	}
	cred := Credential{Token: token}
	if direct, ok := m.auth.ResolveDirectURL(ctx, token, m.cfg.PlexHostname()); ok {
		cred.DirectURL = direct
	}

	if !bypassCache {
		if err := m.store.Save(cred); err != nil {
			logging.WarnWithContext(m.logger, "plex auth token not cached", "credential_cache_write",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "set write permissions on plex.auth_dir (PLEXAUTHDIR)"),
				logging.String(logging.FieldImpact, "the next run signs in to plex.tv again"),
			)
		}
	}
	return cred, nil
}

// NewSession acquires a credential and returns a Session bound to the
// server's direct address when known, or the configured address otherwise.
func (m *Manager) NewSession(ctx context.Context, bypassCache bool) (*Session, error) {
	cred, err := m.Acquire(ctx, bypassCache)
	if err != nil {
		return nil, err
	}
	baseURL := cred.DirectURL
	if baseURL == "" {
		baseURL = m.cfg.PlexBaseURL()
	}
	return newSession(baseURL, cred.Token, m.serverClient, m.store, m.logger), nil
}

// Invalidate deletes the cached credential.
func (m *Manager) Invalidate() error {
	return m.store.Invalidate()
}
