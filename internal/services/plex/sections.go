package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"notifyplex/internal/logging"
	"notifyplex/internal/services"
)

// SectionKind is the library type reported by the server.
type SectionKind string

const (
	SectionMovie SectionKind = "movie"
	SectionShow  SectionKind = "show"
	SectionOther SectionKind = "other"
)

func parseSectionKind(value string) SectionKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie":
		return SectionMovie
	case "show":
		return SectionShow
	default:
		return SectionOther
	}
}

// Section is a library on the Plex Media Server.
type Section struct {
	ID    int
	Kind  SectionKind
	Title string
}

type invalidator interface {
	Invalidate() error
}

// Session issues authenticated requests against one server address.
type Session struct {
	baseURL string
	token   string
	client  HTTPDoer
	cache   invalidator
	logger  *slog.Logger
}

func newSession(baseURL, token string, client HTTPDoer, cache invalidator, logger *slog.Logger) *Session {
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
		cache:   cache,
		logger:  logger,
	}
}

// BaseURL reports the server address requests are sent to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

func (s *Session) newRequest(ctx context.Context, path string) (*http.Request, error) {
	target, err := url.Parse(s.baseURL + path)
	if err != nil {
		return nil, err
	}
	query := target.Query()
	query.Set(tokenParam, s.token)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/xml")
	applyStandardHeaders(req)
	return req, nil
}

type sectionsContainer struct {
	Directories []sectionDirectory `xml:"Directory"`
}

type sectionDirectory struct {
	Key   string `xml:"key,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// ListSections returns the server's library sections ordered by ID. A 401
// removes the cached credential so the next run signs in again.
func (s *Session) ListSections(ctx context.Context) ([]Section, error) {
	req, err := s.newRequest(ctx, "/library/sections")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "list sections", "invalid server address", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrConnectivity, "plex", "list sections",
			"cannot reach the plex server, check PLEXIP and PLEXSECURE", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		if err := s.cache.Invalidate(); err != nil {
			s.logger.Warn("cannot remove rejected plex token", logging.Error(err))
		}
		return nil, services.Wrap(services.ErrAuth, "plex", "list sections",
			"token rejected, re-run to generate a new token", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrUnknownServer, "plex", "list sections",
			fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var container sectionsContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, services.Wrap(services.ErrUnknownServer, "plex", "list sections", "decode response", err)
	}

	sections := make([]Section, 0, len(container.Directories))
	for _, dir := range container.Directories {
		id, err := strconv.Atoi(strings.TrimSpace(dir.Key))
		if err != nil {
			s.logger.Debug("skipping section with non-numeric key", logging.String("key", dir.Key))
			continue
		}
		sections = append(sections, Section{ID: id, Kind: parseSectionKind(dir.Type), Title: dir.Title})
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
	return sections, nil
}

// RefreshSection asks the server to scan one section.
func (s *Session) RefreshSection(ctx context.Context, section Section) error {
	message := fmt.Sprintf("section %d: %s", section.ID, section.Title)
	req, err := s.newRequest(ctx, fmt.Sprintf("/library/sections/%d/refresh", section.ID))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "plex", "refresh", message, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrConnectivity, "plex", "refresh", message, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrConnectivity, "plex", "refresh",
			fmt.Sprintf("%s: server returned %d: %s", message, resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	s.logger.Info("targeted plex update complete",
		logging.Int(logging.FieldSectionID, section.ID),
		logging.String(logging.FieldSectionTitle, section.Title),
	)
	return nil
}
