package testsupport

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeSection is a library section served by FakePlex.
type FakeSection struct {
	ID    int
	Type  string
	Title string
}

// RecordedRequest captures one request received by FakePlex.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Form   url.Values
}

// FakePlex serves both the plex.tv endpoints (sign-in, resources) and the
// Plex Media Server endpoints (sections, refresh, identity) from one
// httptest server. Configure the exported fields before issuing requests.
type FakePlex struct {
	Server *httptest.Server

	Username string
	Password string
	Token    string
	Sections []FakeSection

	// Status overrides; zero means normal behaviour.
	SignInStatus   int
	SectionsStatus int
	RefreshStatus  map[int]int
	IdentityStatus int

	// SignInBody replaces the sign-in response body when non-empty.
	SignInBody string
	// Resources is the body of /pms/resources. Empty serves no devices.
	Resources string
	// SectionsBody replaces the rendered sections document when non-empty.
	SectionsBody string

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakePlex starts a FakePlex with default credentials and the sections
// Movies (1, movie) and TV Shows (2, show). It is closed on test cleanup.
func NewFakePlex(t testing.TB) *FakePlex {
	t.Helper()

	fake := &FakePlex{
		Username: "user@example.com",
		Password: "secret",
		Token:    "fake-token",
		Sections: []FakeSection{
			{ID: 1, Type: "movie", Title: "Movies"},
			{ID: 2, Type: "show", Title: "TV Shows"},
		},
		RefreshStatus: map[int]int{},
	}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.Server.Close)
	return fake
}

// URL returns the server base URL.
func (f *FakePlex) URL() string {
	return f.Server.URL
}

// HostPort returns the server address without scheme.
func (f *FakePlex) HostPort() string {
	return strings.TrimPrefix(f.Server.URL, "http://")
}

// Requests returns a copy of every request received so far.
func (f *FakePlex) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Count returns how many requests matched method and path.
func (f *FakePlex) Count(method, path string) int {
	count := 0
	for _, req := range f.Requests() {
		if req.Method == method && req.Path == path {
			count++
		}
	}
	return count
}

// Refreshed returns the section IDs refreshed so far, in request order.
func (f *FakePlex) Refreshed() []int {
	var ids []int
	for _, req := range f.Requests() {
		if id, ok := refreshID(req.Path); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *FakePlex) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Form:   r.PostForm,
	})
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/users/sign_in.xml":
		f.serveSignIn(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/pms/resources":
		w.Header().Set("Content-Type", "application/xml")
		body := f.Resources
		if body == "" {
			body = `<MediaContainer size="0"></MediaContainer>`
		}
		_, _ = w.Write([]byte(body))
	case r.Method == http.MethodOptions && r.URL.Path == "/identity":
		if f.IdentityStatus != 0 {
			w.WriteHeader(f.IdentityStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/library/sections":
		f.serveSections(w, r)
	case r.Method == http.MethodGet:
		id, ok := refreshID(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status := f.RefreshStatus[id]; status != 0 {
			w.WriteHeader(status)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakePlex) serveSignIn(w http.ResponseWriter, r *http.Request) {
	if f.SignInStatus != 0 {
		w.WriteHeader(f.SignInStatus)
		return
	}
	if r.PostForm.Get("user[login]") != f.Username || r.PostForm.Get("user[password]") != f.Password {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`<errors><error>Invalid email, username, or password.</error></errors>`))
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusCreated)
	body := f.SignInBody
	if body == "" {
		body = fmt.Sprintf(`<user email=%q authToken=%q></user>`, f.Username, f.Token)
	}
	_, _ = w.Write([]byte(body))
}

func (f *FakePlex) serveSections(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.SectionsStatus != 0 {
		w.WriteHeader(f.SectionsStatus)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	if f.SectionsBody != "" {
		_, _ = w.Write([]byte(f.SectionsBody))
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<MediaContainer size="%d">`, len(f.Sections))
	for _, section := range f.Sections {
		fmt.Fprintf(&b, `<Directory key="%d" type="%s" title="%s"></Directory>`,
			section.ID, html.EscapeString(section.Type), html.EscapeString(section.Title))
	}
	b.WriteString(`</MediaContainer>`)
	_, _ = w.Write([]byte(b.String()))
}

func (f *FakePlex) authorized(r *http.Request) bool {
	return r.URL.Query().Get("X-Plex-Token") == f.Token
}

func refreshID(path string) (int, bool) {
	rest, ok := strings.CutPrefix(path, "/library/sections/")
	if !ok {
		return 0, false
	}
	key, ok := strings.CutSuffix(rest, "/refresh")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return id, true
}

// RedirectClient returns an HTTP client that sends every request to target
// regardless of the host in the request URL, so plex.direct addresses can be
// exercised against a local server.
func RedirectClient(target string) *http.Client {
	base, err := url.Parse(target)
	if err != nil {
		panic(err)
	}
	return &http.Client{Transport: redirectTransport{target: base}}
}

type redirectTransport struct {
	target *url.URL
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.target.Scheme
	clone.URL.Host = t.target.Host
	clone.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(clone)
}
