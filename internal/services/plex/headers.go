package plex

import "net/http"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Identity presented to plex.tv. The client identifier is fixed so that
// every sign-in is attributed to the same device on the account.
const (
	productName      = "NotifyPlex"
	productVersion   = "3.4"
	platformName     = "NZBGet"
	platformVersion  = "21.0"
	deviceName       = "NZBGet"
	providesRole     = "controller"
	clientIdentifier = "12286"
)

const tokenParam = "X-Plex-Token"

func applyStandardHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Platform", platformName)
	req.Header.Set("X-Plex-Platform-Version", platformVersion)
	req.Header.Set("X-Plex-Provides", providesRole)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device", deviceName)
	req.Header.Set("X-Plex-Client-Identifier", clientIdentifier)
}
