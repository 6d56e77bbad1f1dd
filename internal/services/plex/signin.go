package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"notifyplex/internal/logging"
	"notifyplex/internal/services"
)

const defaultPlexTVBaseURL = "https://plex.tv"

// Authenticator performs the plex.tv calls needed to obtain a token and a
// direct server address.
type Authenticator struct {
	baseURL string
	// client talks to plex.tv, probe talks to the server connections.
	client HTTPDoer
	probe  HTTPDoer
	logger *slog.Logger
}

// NewAuthenticator constructs an Authenticator. An empty baseURL targets plex.tv.
func NewAuthenticator(baseURL string, client, probe HTTPDoer, logger *slog.Logger) *Authenticator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultPlexTVBaseURL
	}
	if probe == nil {
		probe = client
	}
	return &Authenticator{
		baseURL: baseURL,
		client:  client,
		probe:   probe,
		logger:  logging.NewComponentLogger(logger, "plex.tv"),
	}
}

type signInResponse struct {
	XMLName   xml.Name
	AuthToken string `xml:"authToken,attr"`
}

// Authenticate signs in with the account credentials and returns the bearer
// token. Rejected credentials are reported as services.ErrAuth and an
// unreachable or failing plex.tv as services.ErrConnectivity.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("user[login]", username)
	form.Set("user[password]", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/users/sign_in.xml", strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrConnectivity, "plex.tv", "sign in", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/xml")
	applyStandardHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrConnectivity, "plex.tv", "sign in",
			"cannot reach plex.tv, check the connection and try again", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusUnprocessableEntity:
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", services.Wrap(services.ErrAuth, "plex.tv", "sign in",
			"plex.tv rejected the username or password", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", services.Wrap(services.ErrConnectivity, "plex.tv", "sign in",
			fmt.Sprintf("plex.tv returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload signInResponse
	if err := xml.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrAuth, "plex.tv", "sign in", "no auth token in sign-in response", err)
	}
	token := strings.TrimSpace(payload.AuthToken)
	if token == "" {
		return "", services.Wrap(services.ErrAuth, "plex.tv", "sign in", "no auth token in sign-in response", nil)
	}
	a.logger.Info("signed in to plex.tv")
	return token, nil
}
