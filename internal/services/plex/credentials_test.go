package plex_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"notifyplex/internal/config"
	"notifyplex/internal/logging"
	"notifyplex/internal/services"
	"notifyplex/internal/services/plex"
	"notifyplex/internal/testsupport"
)

func newManager(t *testing.T, fake *testsupport.FakePlex, cfg *config.Config, opts ...plex.ManagerOption) *plex.Manager {
	t.Helper()
	base := []plex.ManagerOption{plex.WithPlexTVBaseURL(fake.URL())}
	return plex.NewManager(cfg, logging.NewNop(), append(base, opts...)...)
}

func TestAcquireSignsInAndCaches(t *testing.T) {
	fake := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))
	manager := newManager(t, fake, cfg)

	cred, err := manager.Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if cred.Token != "fake-token" || cred.DirectURL != "" {
		t.Fatalf("unexpected credential %+v", cred)
	}

	reqs := fake.Requests()
	if len(reqs) != 2 || reqs[0].Path != "/users/sign_in.xml" || reqs[1].Path != "/pms/resources" {
		t.Fatalf("unexpected requests %+v", reqs)
	}
	signIn := reqs[0]
	if signIn.Form.Get("user[login]") != "user@example.com" || signIn.Form.Get("user[password]") != "secret" {
		t.Fatalf("unexpected sign-in form %v", signIn.Form)
	}
	for header, want := range map[string]string{
		"X-Plex-Platform":          "NZBGet",
		"X-Plex-Platform-Version":  "21.0",
		"X-Plex-Provides":          "controller",
		"X-Plex-Product":           "NotifyPlex",
		"X-Plex-Version":           "3.4",
		"X-Plex-Device":            "NZBGet",
		"X-Plex-Client-Identifier": "12286",
	} {
		if got := signIn.Header.Get(header); got != want {
			t.Fatalf("header %s: got %q want %q", header, got, want)
		}
	}
	if got := reqs[1].Header.Get("X-Plex-Token"); got != "fake-token" {
		t.Fatalf("resources token header: %q", got)
	}

	cached, ok := plex.NewFileCredentialStore(cfg.CredentialPath(), logging.NewNop()).Load()
	if !ok || cached.Token != "fake-token" {
		t.Fatalf("expected token cached, got %+v ok=%v", cached, ok)
	}
}

func TestAcquireUsesCache(t *testing.T) {
	fake := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))
	testsupport.WriteFile(t, cfg.CredentialPath(), `{"auth_token":"cached-token"}`)

	cred, err := newManager(t, fake, cfg).Acquire(context.Background(), false)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if cred.Token != "cached-token" {
		t.Fatalf("expected cached token, got %+v", cred)
	}
	if len(fake.Requests()) != 0 {
		t.Fatalf("expected no plex.tv traffic, got %+v", fake.Requests())
	}
}

func TestAcquireBypassCacheNeitherReadsNorWrites(t *testing.T) {
	fake := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))

	cred, err := newManager(t, fake, cfg).Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if cred.Token != "fake-token" {
		t.Fatalf("unexpected credential %+v", cred)
	}
	if testsupport.FileExists(t, cfg.CredentialPath()) {
		t.Fatal("bypassing the cache must not write it")
	}

	testsupport.WriteFile(t, cfg.CredentialPath(), `{"auth_token":"stale"}`)
	cred, err = newManager(t, fake, cfg).Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if cred.Token != "fake-token" {
		t.Fatalf("expected fresh token when bypassing cache, got %+v", cred)
	}
	if fake.Count(http.MethodPost, "/users/sign_in.xml") != 2 {
		t.Fatalf("expected two sign-ins, got %d", fake.Count(http.MethodPost, "/users/sign_in.xml"))
	}
}

func TestAcquireClassifiesSignInFailures(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name   string
		mutate func(*testsupport.FakePlex)
		base   string
		want   error
	}{
		{name: "bad password", mutate: func(f *testsupport.FakePlex) { f.Password = "other" }, want: services.ErrAuth},
		{name: "unprocessable", mutate: func(f *testsupport.FakePlex) { f.SignInStatus = http.StatusUnprocessableEntity }, want: services.ErrAuth},
		{name: "missing token", mutate: func(f *testsupport.FakePlex) { f.SignInBody = `<user email="x"></user>` }, want: services.ErrAuth},
		{name: "server error", mutate: func(f *testsupport.FakePlex) { f.SignInStatus = http.StatusBadGateway }, want: services.ErrConnectivity},
		{name: "unreachable", base: closedURL, want: services.ErrConnectivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testsupport.NewFakePlex(t)
			if tt.mutate != nil {
				tt.mutate(fake)
			}
			cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))
			var opts []plex.ManagerOption
			if tt.base != "" {
				opts = append(opts, plex.WithPlexTVBaseURL(tt.base))
			}
			_, err := newManager(t, fake, cfg, opts...).Acquire(context.Background(), false)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if testsupport.FileExists(t, cfg.CredentialPath()) {
				t.Fatal("failed sign-in must not write the cache")
			}
		})
	}
}

func TestAcquireWithoutCredentials(t *testing.T) {
	fake := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))
	cfg.Plex.Username = ""
	cfg.Plex.Password = ""

	_, err := newManager(t, fake, cfg).Acquire(context.Background(), false)
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if len(fake.Requests()) != 0 {
		t.Fatal("expected no sign-in attempt without credentials")
	}
}

func TestNewSessionUsesDirectAddress(t *testing.T) {
	fake := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))
	cfg.Plex.Host = "192.168.1.10:32400"
	direct := "https://192-168-1-10.0123456789abcdef.plex.direct:32400"
	fake.Resources = fmt.Sprintf(`<MediaContainer size="2">
  <Device name="other" provides="server">
    <Connection protocol="https" address="10.0.0.5" port="32400" uri="https://10-0-0-5.feedface.plex.direct:32400"/>
  </Device>
  <Device name="home" provides="server">
    <Connection protocol="http" address="192.168.1.10" port="32400" uri="http://192.168.1.10:32400"/>
    <Connection protocol="https" address="192.168.1.10" port="32400" uri=%q/>
  </Device>
</MediaContainer>`, direct)

	manager := newManager(t, fake, cfg, plex.WithServerClient(testsupport.RedirectClient(fake.URL())))
	session, err := manager.NewSession(context.Background(), false)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if session.BaseURL() != direct {
		t.Fatalf("expected direct base url, got %q", session.BaseURL())
	}
	if fake.Count(http.MethodOptions, "/identity") != 1 {
		t.Fatalf("expected one identity probe, got %d", fake.Count(http.MethodOptions, "/identity"))
	}

	sections, err := session.ListSections(context.Background())
	if err != nil {
		t.Fatalf("ListSections through direct address: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("unexpected sections %+v", sections)
	}

	cached, ok := manager.Store().Load()
	if !ok || cached.DirectURL != direct {
		t.Fatalf("expected direct url cached, got %+v", cached)
	}
}

func TestNewSessionFallsBackWhenProbeFails(t *testing.T) {
	fake := testsupport.NewFakePlex(t)
	cfg := testsupport.NewConfig(t, testsupport.WithServer(fake))
	cfg.Plex.Host = "plexbox:32400"
	fake.IdentityStatus = http.StatusServiceUnavailable
	fake.Resources = `<MediaContainer><Device name="home"><Connection address="PlexBox" uri="https://10-0-0-9.abc.plex.direct:32400"/></Device></MediaContainer>`

	manager := newManager(t, fake, cfg, plex.WithServerClient(testsupport.RedirectClient(fake.URL())))
	session, err := manager.NewSession(context.Background(), false)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if fake.Count(http.MethodOptions, "/identity") != 1 {
		t.Fatal("expected a probe of the case-insensitively matching connection")
	}
	if session.BaseURL() != cfg.PlexBaseURL() {
		t.Fatalf("expected configured base url, got %q", session.BaseURL())
	}
}
