package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/familyhelper-app/console/internal/api"
	"github.com/familyhelper-app/console/internal/auth"
	"github.com/familyhelper-app/console/internal/config"
	"github.com/familyhelper-app/console/internal/routes"
)

func newTestApp(t *testing.T, creds auth.Credentials) App {
	t.Helper()
	cfg := &config.Config{
		APIBaseURL:            "https://api.familyhelper.test/api",
		RequestTimeoutSeconds: 5,
		PageSize:              config.DefaultPageSize,
	}
	store := auth.NewMemoryStore(creds)
	client := api.NewClient(cfg, store, nil)
	deps := loginDeps{
		store:       store,
		apiBaseURL:  cfg.APIBaseURL,
		redirectURI: "http://127.0.0.1:0/auth/callback",
		callbacks:   make(chan auth.CallbackResult),
		openURL:     func(string) error { return nil },
	}
	return NewApp(cfg, client, store, deps)
}

func update(t *testing.T, app App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	next, cmd := app.Update(msg)
	typed, ok := next.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", next)
	}
	return typed, cmd
}

func TestNoNavigationWhileSessionLoading(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{})
	match := routes.Resolve("/support/users")

	app, _ = update(t, app, navigateMsg{match: match})
	if app.current.Route.Name != routes.Landing {
		t.Fatalf("navigated to %s during session load", app.current.Route.Name)
	}
	if app.pending == nil || app.pending.Route.Name != routes.SupportUsers {
		t.Fatal("deep link was not queued for after the session check")
	}

	// Session resolves without credentials: the queued gated destination
	// falls back to sign-in.
	app, _ = update(t, app, sessionCheckedMsg{hasSession: false})
	if app.current.Route.Name != routes.Login {
		t.Fatalf("landed on %s, want %s", app.current.Route.Name, routes.Login)
	}
}

func TestUnauthenticatedWebAppResolvesToLogin(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{})
	app, _ = update(t, app, sessionCheckedMsg{hasSession: false})

	app, _ = update(t, app, navigateMsg{match: routes.Resolve("/web-app")})
	if app.current.Route.Name != routes.Login {
		t.Fatalf("landed on %s, want %s", app.current.Route.Name, routes.Login)
	}
	if app.current.Route.Chrome != routes.ChromeNone {
		t.Error("login route must render without drawer chrome")
	}
}

func TestSecretSantaNeverRequiresSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{})
	app, _ = update(t, app, sessionCheckedMsg{hasSession: false})

	app, cmd := update(t, app, navigateMsg{match: routes.Resolve("/secret-santa/evt-1")})
	if app.current.Route.Name != routes.SecretSanta {
		t.Fatalf("landed on %s, want %s", app.current.Route.Name, routes.SecretSanta)
	}
	if cmd == nil {
		t.Error("expected the event fetch to start")
	}
	if app.santa.token != "evt-1" {
		t.Errorf("santa token = %q", app.santa.token)
	}
}

func TestAuthenticatedSessionLandsOnHome(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{AccessToken: "tok"})
	app, _ = update(t, app, sessionCheckedMsg{hasSession: true})
	if app.current.Route.Name != routes.Home {
		t.Fatalf("landed on %s, want %s", app.current.Route.Name, routes.Home)
	}
	if app.current.Route.Chrome != routes.ChromeDrawer {
		t.Error("home must render inside the drawer")
	}

	app, cmd := update(t, app, navigateMsg{match: routes.Resolve("/support/users")})
	if app.current.Route.Name != routes.SupportUsers {
		t.Fatalf("landed on %s", app.current.Route.Name)
	}
	if cmd == nil {
		t.Error("first visit must trigger the page fetch")
	}

	// Second visit reuses the loaded screen.
	app, _ = update(t, app, navigateMsg{match: routes.Resolve("/home")})
	_, cmd = update(t, app, navigateMsg{match: routes.Resolve("/support/users")})
	if cmd != nil {
		t.Error("revisit refetched instead of reusing the screen state")
	}
}

func TestSignOutReturnsToLogin(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{AccessToken: "tok"})
	app, _ = update(t, app, sessionCheckedMsg{hasSession: true})

	app, cmd := update(t, app, signedOutMsg{})
	if app.session != sessionAbsent {
		t.Error("session still present after sign-out")
	}
	if app.current.Route.Name != routes.Login {
		t.Fatalf("landed on %s, want %s", app.current.Route.Name, routes.Login)
	}
	if cmd == nil {
		t.Error("expected a signed-out notice")
	}
}

func TestDisabledFeatureBlocksNavigation(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{})
	app.cfg.FeatureFlags = map[string]bool{"secret-santa": false}
	app, _ = update(t, app, sessionCheckedMsg{hasSession: false})

	before := app.current.Route.Name
	app, cmd := update(t, app, navigateMsg{match: routes.Resolve("/secret-santa/evt-1")})
	if app.current.Route.Name != before {
		t.Fatalf("navigated to %s with the feature disabled", app.current.Route.Name)
	}
	if cmd == nil {
		t.Error("expected a warning notice")
	}
}

func TestConfigReloadUpdatesFeatureGating(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{})
	app.cfg.FeatureFlags = map[string]bool{"secret-santa": false}
	app, _ = update(t, app, sessionCheckedMsg{hasSession: false})

	before := app.current.Route.Name
	app, _ = update(t, app, navigateMsg{match: routes.Resolve("/secret-santa/evt-1")})
	if app.current.Route.Name != before {
		t.Fatalf("navigated to %s with the feature disabled", app.current.Route.Name)
	}

	// A reloaded config re-enabling the flag takes effect without a restart.
	reloaded := &config.Config{
		APIBaseURL:            app.cfg.APIBaseURL,
		RequestTimeoutSeconds: app.cfg.RequestTimeoutSeconds,
		PageSize:              app.cfg.PageSize,
		FeatureFlags:          map[string]bool{"secret-santa": true},
	}
	app, _ = update(t, app, configReloadedMsg{cfg: reloaded})

	app, cmd := update(t, app, navigateMsg{match: routes.Resolve("/secret-santa/evt-1")})
	if app.current.Route.Name != routes.SecretSanta {
		t.Fatalf("landed on %s after the flag was re-enabled", app.current.Route.Name)
	}
	if cmd == nil {
		t.Error("expected the event fetch to start")
	}
}

func TestLoginScreenQuitKey(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{})
	app, _ = update(t, app, sessionCheckedMsg{hasSession: false})
	if app.current.Route.Name != routes.Login {
		t.Fatalf("landed on %s, want %s", app.current.Route.Name, routes.Login)
	}

	_, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q did nothing on the sign-in screen")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit on the sign-in screen")
	}
}

func TestNoticeBannerLifecycle(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, auth.Credentials{})
	app, _ = update(t, app, sessionCheckedMsg{hasSession: false})

	app, cmd := update(t, app, noticeMsg{kind: noticeSuccess, text: "Saved"})
	if cmd == nil {
		t.Fatal("banner did not schedule its expiry")
	}
	if app.banner.text != "Saved" {
		t.Fatalf("banner text = %q", app.banner.text)
	}

	// An expiry for an older banner must not clear a newer one.
	app, _ = update(t, app, noticeMsg{kind: noticeInfo, text: "Newer"})
	app, _ = update(t, app, noticeExpiredMsg{id: app.banner.id - 1})
	if app.banner.text != "Newer" {
		t.Fatal("stale expiry cleared the current banner")
	}
	app, _ = update(t, app, noticeExpiredMsg{id: app.banner.id})
	if app.banner.text != "" {
		t.Fatal("banner not cleared by its own expiry")
	}
}
