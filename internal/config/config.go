package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Plex contains Plex Media Server and plex.tv account settings.
type Plex struct {
	Host     string `toml:"host"` // host:port of the server, e.g. 192.168.1.10:32400
	Secure   bool   `toml:"secure"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	AuthDir  string `toml:"auth_dir"` // directory holding the cached auth token
}

// Refresh contains library refresh settings.
type Refresh struct {
	Enabled         bool   `toml:"enabled"`
	Mode            string `toml:"mode"` // Auto, Custom, Both or Advanced
	MovieCategories string `toml:"movie_categories"`
	TVCategories    string `toml:"tv_categories"`
	CustomSections  string `toml:"custom_sections"`
	SectionMapping  string `toml:"section_mapping"` // category:Section Title pairs
}

// Notify contains Plex Home Theater GUI notification settings.
type Notify struct {
	Enabled       bool   `toml:"enabled"`
	DirectHeaders bool   `toml:"direct_headers"`
	Clients       string `toml:"clients"`
	Secure        bool   `toml:"secure"`
}

// Timeouts holds per-request timeouts in seconds.
type Timeouts struct {
	PlexTV int `toml:"plex_tv"`
	Server int `toml:"server"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Download describes the NZBGet job that triggered this invocation. It is
// only ever populated from the environment.
type Download struct {
	Name        string
	Category    string
	Status      string
	StatusSet   bool
	ProperName  string
	EpisodeName string
	MovieYear   string
}

// Succeeded reports whether NZBGet marked the download as successful.
func (d Download) Succeeded() bool {
	return strings.HasPrefix(d.Status, "SUCCESS/")
}

// Config encapsulates all configuration values for NotifyPlex.
type Config struct {
	Plex          Plex     `toml:"plex"`
	Refresh       Refresh  `toml:"refresh"`
	Notify        Notify   `toml:"notify"`
	SilentFailure bool     `toml:"silent_failure"`
	Timeouts      Timeouts `toml:"timeouts"`
	Logging       Logging  `toml:"logging"`

	Download Download `toml:"-"`
	Command  string   `toml:"-"`

	provided map[string]struct{}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/notifyplex/config.toml")
}

// Load locates, parses, and validates a configuration file, then overlays the
// NZBGet environment. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		flattenKeys("", raw, cfg.markProvided)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("notifyplex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// flattenKeys walks a decoded TOML document and reports every leaf key in
// dotted form (plex.host, silent_failure, ...).
func flattenKeys(prefix string, tree map[string]any, visit func(string)) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flattenKeys(full, child, visit)
			continue
		}
		visit(full)
	}
}

func (c *Config) markProvided(key string) {
	if c.provided == nil {
		c.provided = make(map[string]struct{})
	}
	c.provided[strings.ToLower(key)] = struct{}{}
}

// MarkProvided records keys as set, as if a configuration layer supplied them.
func (c *Config) MarkProvided(keys ...string) {
	for _, key := range keys {
		c.markProvided(key)
	}
}

// ForgetProvided clears the provided state of keys.
func (c *Config) ForgetProvided(keys ...string) {
	for _, key := range keys {
		delete(c.provided, strings.ToLower(key))
	}
}

// Provided reports whether key was set by the config file or the environment,
// even if it was set to an empty value.
func (c *Config) Provided(key string) bool {
	_, ok := c.provided[strings.ToLower(key)]
	return ok
}

// MissingOptions returns the NZBGet option names (PLEXIP, GUISHOW, ...) of the
// given keys that no configuration layer provided, in the order requested.
func (c *Config) MissingOptions(keys ...string) []string {
	var missing []string
	for _, key := range keys {
		if c.Provided(key) {
			continue
		}
		missing = append(missing, OptionName(key))
	}
	return missing
}

// PlexBaseURL returns the configured server address with its scheme.
func (c *Config) PlexBaseURL() string {
	return Scheme(c.Plex.Secure) + "://" + c.Plex.Host
}

// PlexHostname returns the configured server host without its port.
func (c *Config) PlexHostname() string {
	host, _, _ := strings.Cut(c.Plex.Host, ":")
	return host
}

// CredentialPath returns the location of the cached plex.tv credential.
func (c *Config) CredentialPath() string {
	return filepath.Join(c.Plex.AuthDir, credentialFileName)
}

// PlexTVTimeout returns the timeout applied to plex.tv requests.
func (c *Config) PlexTVTimeout() time.Duration {
	return time.Duration(c.Timeouts.PlexTV) * time.Second
}

// ServerTimeout returns the timeout applied to server and client requests.
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.Timeouts.Server) * time.Second
}

// Scheme maps a secure-connection flag to a URL scheme.
func Scheme(secure bool) string {
	if secure {
		return "https"
	}
	return "http"
}

const credentialFileName = "plex_auth.json"

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
