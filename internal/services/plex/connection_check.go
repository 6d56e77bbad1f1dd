package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"notifyplex/internal/services"
)

// CheckConnection verifies that the server accepts the session token. It
// never touches the credential cache.
func (s *Session) CheckConnection(ctx context.Context) error {
	req, err := s.newRequest(ctx, "/library/sections")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "plex", "connection test", "invalid server address", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrConnectivity, "plex", "connection test",
			"cannot reach the plex server, check PLEXIP and PLEXSECURE", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return services.Wrap(services.ErrAuth, "plex", "connection test", "server rejected the token", nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrUnknownServer, "plex", "connection test",
			fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
