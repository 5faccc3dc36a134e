package tui

import (
	"context"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/familyhelper-app/console/internal/api"
	"github.com/familyhelper-app/console/internal/auth"
	"github.com/familyhelper-app/console/internal/config"
	"github.com/familyhelper-app/console/internal/routes"
)

// sessionState tracks the stored credential check. No navigation happens
// while the check is in flight; the pending destination is applied after.
type sessionState int

const (
	sessionLoading sessionState = iota
	sessionAbsent
	sessionPresent
)

type sessionCheckedMsg struct {
	hasSession bool
}

// navigateMsg moves the console to a resolved destination. The deep-link
// bridge injects these through the running program.
type navigateMsg struct {
	match routes.Match
}

type signedOutMsg struct {
	err error
}

// configReloadedMsg swaps in a freshly loaded config snapshot so feature
// gating and debug logging follow file edits without a restart.
type configReloadedMsg struct {
	cfg *config.Config
}

// App is the root bubbletea model: session gating, drawer chrome, and the
// per-route screen models.
type App struct {
	cfg      *config.Config
	client   *api.Client
	store    auth.Store
	notifier Notifier

	session sessionState
	current routes.Match
	// pending is a deep link that arrived while the session was loading.
	pending *routes.Match

	login  loginModel
	home   homeModel
	webApp webAppModel
	users  usersModel
	audit  auditModel

	// registry and santa are recreated per share token.
	registry registryModel
	santa    santaModel

	// visited tracks which gated screens have fetched their data.
	visited map[routes.Name]bool

	banner banner
	width  int
	height int
	ready  bool
}

// NewApp builds the root model. loginDeps carries the sign-in collaborators;
// the deep-link bridge supplies its callback channel and redirect URI.
func NewApp(cfg *config.Config, client *api.Client, store auth.Store, deps loginDeps) App {
	notifier := msgNotifier{}
	app := App{
		cfg:      cfg,
		client:   client,
		store:    store,
		notifier: notifier,
		session:  sessionLoading,
		login:    newLoginModel(deps),
		home:     newHomeModel(),
		webApp:   newWebAppModel(cfg.APIBaseURL),
		users:    newUsersModel(client, notifier),
		audit:    newAuditModel(client),
		visited:  make(map[routes.Name]bool),
	}
	landing, _ := routes.Lookup(routes.Landing)
	app.current = routes.Match{Route: landing}
	return app
}

func (a App) Init() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		return sessionCheckedMsg{hasSession: client.HasSession(context.Background())}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.users.table.width = msg.Width - 24
		a.audit.table.width = msg.Width - 24
		return a, nil

	case sessionCheckedMsg:
		if msg.hasSession {
			a.session = sessionPresent
		} else {
			a.session = sessionAbsent
		}
		target := a.defaultRoute()
		if a.pending != nil {
			target = *a.pending
			a.pending = nil
		}
		return a.navigate(target)

	case navigateMsg:
		if a.session == sessionLoading {
			match := msg.match
			a.pending = &match
			return a, nil
		}
		return a.navigate(msg.match)

	case configReloadedMsg:
		a.cfg = msg.cfg
		a.client.SetDebug(msg.cfg.Debug)
		return a, nil

	case noticeMsg:
		return a, a.banner.show(msg)
	case noticeExpiredMsg:
		a.banner.expire(msg)
		return a, nil

	case loginDoneMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err == nil {
			a.session = sessionPresent
			next, notice := a.navigate(a.defaultRoute())
			return next, tea.Batch(cmd, notice, a.notifier.Success("Signed in"))
		}
		return a, cmd

	case signedOutMsg:
		if msg.err != nil {
			return a, a.notifier.Error("Sign-out failed. Please try again.")
		}
		a.session = sessionAbsent
		a.visited = make(map[routes.Name]bool)
		login, _ := routes.Lookup(routes.Login)
		next, cmd := a.navigate(routes.Match{Route: login})
		return next, tea.Batch(cmd, a.notifier.Info("Signed out"))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "ctrl+d":
			if a.session == sessionPresent {
				client := a.client
				return a, func() tea.Msg {
					return signedOutMsg{err: client.SignOut(context.Background())}
				}
			}
		}
		if a.current.Route.RequiresSession && !a.typing() {
			if next, cmd, handled := a.drawerKeys(msg); handled {
				return next, cmd
			}
		}
		return a.dispatch(msg)
	}

	return a.dispatch(msg)
}

// typing reports whether the active screen currently owns raw key input, so
// drawer shortcuts do not swallow typed characters.
func (a App) typing() bool {
	switch a.current.Route.Name {
	case routes.SupportUsers:
		return a.users.table.filtering || a.users.editingDate != ""
	case routes.AuditLogs:
		return a.audit.table.filtering
	}
	return false
}

// drawerKeys handles navigation between the gated sections.
func (a App) drawerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	entries := routes.DrawerEntries()
	current := -1
	for i, r := range entries {
		if r.Name == a.current.Route.Name {
			current = i
		}
	}

	switch key := msg.String(); key {
	case "q":
		return a, tea.Quit, true
	case "tab":
		next := entries[(current+1+len(entries))%len(entries)]
		model, cmd := a.navigate(routes.Match{Route: next})
		return model, cmd, true
	case "shift+tab":
		next := entries[(current-1+len(entries))%len(entries)]
		model, cmd := a.navigate(routes.Match{Route: next})
		return model, cmd, true
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			idx := int(key[0] - '1')
			if idx < len(entries) {
				model, cmd := a.navigate(routes.Match{Route: entries[idx]})
				return model, cmd, true
			}
		}
	}
	return a, nil, false
}

// defaultRoute is where the console lands after the session check or a
// sign-in.
func (a App) defaultRoute() routes.Match {
	if a.session == sessionPresent {
		home, _ := routes.Lookup(routes.Home)
		return routes.Match{Route: home}
	}
	login, _ := routes.Lookup(routes.Login)
	return routes.Match{Route: login}
}

// navigate applies the gating policy and activates the destination screen.
func (a App) navigate(match routes.Match) (tea.Model, tea.Cmd) {
	if match.Route.RequiresSession && a.session != sessionPresent {
		log.WithField("route", string(match.Route.Name)).Debug("gated route without session, redirecting to sign-in")
		login, _ := routes.Lookup(routes.Login)
		match = routes.Match{Route: login}
	}
	if flag, flagged := featureFlag(match.Route.Name); flagged && !a.cfg.FeatureEnabled(flag) {
		return a, a.notifier.Warning("This feature is not available right now.")
	}
	a.current = match

	switch match.Route.Name {
	case routes.GiftRegistry:
		a.registry = newRegistryModel(a.client, a.notifier, api.GiftRegistry, match.Params["token"], a.shareURL(match))
		return a, a.registry.Init()
	case routes.ItemRegistry:
		a.registry = newRegistryModel(a.client, a.notifier, api.ItemRegistry, match.Params["token"], a.shareURL(match))
		return a, a.registry.Init()
	case routes.SecretSanta:
		a.santa = newSantaModel(a.client, a.notifier, match.Params["token"])
		return a, a.santa.Init()
	case routes.SupportUsers:
		if !a.visited[routes.SupportUsers] {
			a.visited[routes.SupportUsers] = true
			var cmd tea.Cmd
			a.users, cmd = a.users.start()
			return a, cmd
		}
	case routes.AuditLogs:
		if !a.visited[routes.AuditLogs] {
			a.visited[routes.AuditLogs] = true
			var cmd tea.Cmd
			a.audit, cmd = a.audit.start()
			return a, cmd
		}
	}
	return a, nil
}

// featureFlag maps optional routes to their config flag.
func featureFlag(name routes.Name) (string, bool) {
	switch name {
	case routes.SecretSanta:
		return "secret-santa", true
	case routes.ItemRegistry:
		return "item-registry", true
	}
	return "", false
}

// shareURL rebuilds the public web link for the current share route so it
// can be copied from the console.
func (a App) shareURL(match routes.Match) string {
	base := strings.TrimSuffix(a.cfg.APIBaseURL, "/api")
	path := match.Route.Pattern
	for key, value := range match.Params {
		path = strings.Replace(path, ":"+key, value, 1)
	}
	return base + path
}

// dispatch routes a message to the screen that owns it. Data messages carry
// their own type per screen, so delivery does not depend on which screen is
// active.
func (a App) dispatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch typed := msg.(type) {
	case pageDataMsg:
		if typed.table == "users" {
			a.users, cmd = a.users.Update(msg)
		} else {
			a.audit, cmd = a.audit.Update(msg)
		}
		return a, cmd
	case userActionMsg:
		a.users, cmd = a.users.Update(msg)
		return a, cmd
	case registryDataMsg, purchaseDoneMsg:
		a.registry, cmd = a.registry.Update(msg)
		return a, cmd
	case santaEventMsg, santaVerifiedMsg, santaDataMsg, santaPurchaseMsg:
		a.santa, cmd = a.santa.Update(msg)
		return a, cmd
	case browserOpenedMsg, callbackMsg:
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}

	// Everything else (keys, mostly) goes to the active screen.
	switch a.current.Route.Name {
	case routes.Landing, routes.Login, routes.AuthCallback:
		a.login, cmd = a.login.Update(msg)
	case routes.Home:
		a.home, cmd = a.home.Update(msg)
	case routes.WebApp:
		a.webApp, cmd = a.webApp.Update(msg)
	case routes.SupportUsers:
		a.users, cmd = a.users.Update(msg)
	case routes.AuditLogs:
		a.audit, cmd = a.audit.Update(msg)
	case routes.GiftRegistry, routes.ItemRegistry:
		a.registry, cmd = a.registry.Update(msg)
	case routes.SecretSanta:
		a.santa, cmd = a.santa.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if a.session == sessionLoading {
		return subtitleStyle.Render("\n  Loading session…\n")
	}

	content := a.screenView()
	if notice := a.banner.render(); notice != "" {
		content = notice + "\n\n" + content
	}

	if a.current.Route.Chrome == routes.ChromeNone {
		return content + "\n"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, a.drawerView(), content) + "\n"
}

func (a App) screenView() string {
	switch a.current.Route.Name {
	case routes.Landing, routes.Login, routes.AuthCallback:
		return a.login.View()
	case routes.Home:
		return a.home.View()
	case routes.WebApp:
		return a.webApp.View()
	case routes.SupportUsers:
		return a.users.View()
	case routes.AuditLogs:
		return a.audit.View()
	case routes.GiftRegistry, routes.ItemRegistry:
		return a.registry.View()
	case routes.SecretSanta:
		return a.santa.View()
	}
	return subtitleStyle.Render("Nothing here.")
}

func (a App) drawerView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Family Helper") + "\n")
	for i, r := range routes.DrawerEntries() {
		label := string(rune('1'+i)) + " " + r.Title
		if r.Name == a.current.Route.Name {
			b.WriteString(drawerActiveStyle.Render(label) + "\n")
		} else {
			b.WriteString(drawerInactiveStyle.Render(label) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("ctrl+d sign out"))
	return drawerStyle.Render(b.String())
}

// Bridge adapts a running program to the deep-link navigator. The program is
// attached after construction because the model must exist first.
type Bridge struct {
	mu   sync.Mutex
	prog *tea.Program
}

// Attach binds the running program.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prog = p
}

// Navigate injects a destination into the event loop. Links arriving before
// the program starts are dropped.
func (b *Bridge) Navigate(match routes.Match) {
	b.mu.Lock()
	prog := b.prog
	b.mu.Unlock()
	if prog == nil {
		log.Warn("deep link before UI start, ignoring")
		return
	}
	prog.Send(navigateMsg{match: match})
}

// ReloadConfig pushes a reloaded config snapshot into the event loop. Reloads
// before the program starts are dropped; the startup snapshot already matches
// the file.
func (b *Bridge) ReloadConfig(cfg *config.Config) {
	b.mu.Lock()
	prog := b.prog
	b.mu.Unlock()
	if prog == nil {
		return
	}
	prog.Send(configReloadedMsg{cfg: cfg})
}

// NewLoginDeps assembles the sign-in collaborators for NewApp.
func NewLoginDeps(provider *auth.IdentityProvider, store auth.Store, apiBaseURL, redirectURI string, callbacks <-chan auth.CallbackResult, openURL func(string) error) loginDeps {
	return loginDeps{
		provider:    provider,
		store:       store,
		apiBaseURL:  apiBaseURL,
		redirectURI: redirectURI,
		callbacks:   callbacks,
		openURL:     openURL,
	}
}
