package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"notifyplex/internal/logging"
	"notifyplex/internal/textutil"
)

type plexResourceList struct {
	Devices []plexDevice `xml:"Device"`
}

type plexDevice struct {
	Name        string                   `xml:"name,attr"`
	Provides    string                   `xml:"provides,attr"`
	Connections []plexResourceConnection `xml:"Connection"`
}

type plexResourceConnection struct {
	URI      string `xml:"uri,attr"`
	Protocol string `xml:"protocol,attr"`
	Address  string `xml:"address,attr"`
}

// ResolveDirectURL asks plex.tv for the account's servers and returns the
// first plex.direct connection whose address matches hostname and
// which answers its identity endpoint. Any failure yields ("", false) and
// the caller keeps the configured address.
func (a *Authenticator) ResolveDirectURL(ctx context.Context, token, hostname string) (string, bool) {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return "", false
	}

	list, err := a.fetchResources(ctx, token)
	if err != nil {
		a.logger.Warn("cannot list servers on plex.tv, using configured address",
			logging.Error(err),
			logging.String(logging.FieldImpact, "requests go to the configured address"),
		)
		return "", false
	}

	for _, device := range list.Devices {
		for _, conn := range device.Connections {
			uri := strings.TrimRight(strings.TrimSpace(conn.URI), "/")
			if uri == "" || !strings.Contains(uri, "plex.direct") {
				continue
			}
			if !textutil.EqualFold(conn.Address, hostname) {
				continue
			}
			if a.probeIdentity(ctx, token, uri) {
				a.logger.Info("resolved direct server address",
					logging.String("server", device.Name),
					logging.String("uri", uri),
					logging.String("protocol", conn.Protocol),
				)
				return uri, true
			}
		}
	}
	a.logger.Debug("no reachable plex.direct connection for configured host", logging.String("host", hostname))
	return "", false
}

func (a *Authenticator) fetchResources(ctx context.Context, token string) (plexResourceList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/pms/resources?includeHttps=1", nil)
	if err != nil {
		return plexResourceList{}, fmt.Errorf("build plex resources request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")
	req.Header.Set(tokenParam, strings.TrimSpace(token))
	applyStandardHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return plexResourceList{}, fmt.Errorf("fetch plex resources: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return plexResourceList{}, fmt.Errorf("plex resources returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list plexResourceList
	if err := xml.NewDecoder(resp.Body).Decode(&list); err != nil {
		return plexResourceList{}, fmt.Errorf("decode plex resources: %w", err)
	}
	return list, nil
}

func (a *Authenticator) probeIdentity(ctx context.Context, token, uri string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, uri+"/identity", nil)
	if err != nil {
		return false
	}
	req.Header.Set(tokenParam, strings.TrimSpace(token))
	resp, err := a.probe.Do(req)
	if err != nil {
		a.logger.Debug("direct connection probe failed", logging.String("uri", uri), logging.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
