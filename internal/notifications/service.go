package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
)

const (
	jsonRPCPort         = 3005
	notificationTitle   = "Downloaded"
	notificationMethod  = "GUI.ShowNotification"
	notificationVersion = "2.0"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Notifier sends GUI notifications to PHT clients.
type Notifier struct {
	client HTTPDoer
	secure bool
	port   int
	logger *slog.Logger
}

// Option customises Notifier construction.
type Option func(*Notifier)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(n *Notifier) {
		n.client = client
	}
}

// WithPort overrides the JSON-RPC port (used in tests).
func WithPort(port int) Option {
	return func(n *Notifier) {
		n.port = port
	}
}

// NewNotifier builds a Notifier from the notify settings.
func NewNotifier(cfg *config.Config, logger *slog.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		secure: cfg.Notify.Secure,
		port:   jsonRPCPort,
		logger: logging.NewComponentLogger(logger, "pht"),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.client == nil {
		n.client = &http.Client{Timeout: cfg.ServerTimeout()}
	}
	return n
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notify sends text to every client in order. Failures are logged per
// client and never returned.
func (n *Notifier) Notify(ctx context.Context, clients []string, text string) {
	if len(clients) == 0 {
		n.logger.Warn("gui notification enabled but no clients configured",
			logging.String(logging.FieldErrorHint, "set CLIENTSIP"))
		return
	}
	for _, client := range clients {
		if err := n.send(ctx, client, text); err != nil {
			logging.WarnWithContext(n.logger, "pht gui notification failed", "notification_failed",
				logging.String("client", client),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check CLIENTSIP and that the client is running"),
				logging.String(logging.FieldImpact, "the library refresh still runs"),
			)
			continue
		}
		n.logger.Info("pht gui notification sent", logging.String("client", client))
	}
}

func (n *Notifier) send(ctx context.Context, client, text string) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: notificationVersion,
		ID:      uuid.NewString(),
		Method:  notificationMethod,
		Params:  rpcParams{Title: notificationTitle, Message: text},
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	endpoint := fmt.Sprintf("%s://%s:%d/jsonrpc", config.Scheme(n.secure), client, n.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("client returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ParseClients splits the CLIENTSIP value. All whitespace is removed and
// empty entries are dropped.
func ParseClients(raw string) []string {
	compact := strings.Join(strings.Fields(raw), "")
	var clients []string
	for _, entry := range strings.Split(compact, ",") {
		if entry != "" {
			clients = append(clients, entry)
		}
	}
	return clients
}

// MessageText chooses the notification text for a download. With direct
// headers enabled the DNZB episode or year details are preferred over the raw
// NZB name.
func MessageText(download config.Download, useDirectHeaders bool) string {
	if !useDirectHeaders {
		return download.Name
	}
	name := strings.TrimSpace(download.ProperName)
	episode := strings.TrimSpace(download.EpisodeName)
	year := strings.TrimSpace(download.MovieYear)
	switch {
	case name != "" && episode != "":
		return name + " - " + episode
	case name != "" && year != "":
		return name + " (" + year + ")"
	case name != "":
		return name
	default:
		return download.Name
	}
}
