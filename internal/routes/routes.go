// Package routes declares the navigable surface of the console as data: one
// table mapping route names to path patterns, session requirements, and
// chrome kinds. Gating decisions read the table instead of branching per
// screen, so the whole policy is testable in one place.
package routes

import "strings"

// Chrome selects the wrapper rendered around a screen.
type Chrome int

const (
	// ChromeNone renders the screen bare (landing, login, public shares).
	ChromeNone Chrome = iota
	// ChromeDrawer wraps the screen in the side navigation drawer.
	ChromeDrawer
	// ChromeDrawerFramed adds the device frame used by screens shared with
	// the companion mobile app, inside the drawer.
	ChromeDrawerFramed
)

// Name identifies a route independent of its path pattern.
type Name string

const (
	Landing      Name = "landing"
	Login        Name = "login"
	AuthCallback Name = "auth-callback"
	Home         Name = "home"
	WebApp       Name = "web-app"
	SupportUsers Name = "support-users"
	AuditLogs    Name = "audit-logs"
	GiftRegistry Name = "gift-registry"
	ItemRegistry Name = "item-registry"
	SecretSanta  Name = "secret-santa"
	NotFound     Name = "not-found"
)

// Route is one row of the navigation table.
type Route struct {
	Name Name
	// Pattern is the URL path with :param segments, e.g.
	// "/gift-registry/:token".
	Pattern string
	// RequiresSession gates the route behind a valid credential pair.
	RequiresSession bool
	Chrome          Chrome
	// Title is the human-readable label used by the drawer and deep-link
	// logging.
	Title string
}

// Table is the full navigable surface, in drawer order for the gated rows.
// Deep links resolve against this same table.
var Table = []Route{
	{Name: Landing, Pattern: "/", RequiresSession: false, Chrome: ChromeNone, Title: "Family Helper"},
	{Name: Login, Pattern: "/login", RequiresSession: false, Chrome: ChromeNone, Title: "Sign In"},
	{Name: AuthCallback, Pattern: "/auth/callback", RequiresSession: false, Chrome: ChromeNone, Title: "Signing In"},
	{Name: GiftRegistry, Pattern: "/gift-registry/:token", RequiresSession: false, Chrome: ChromeNone, Title: "Gift Registry"},
	{Name: ItemRegistry, Pattern: "/item-registry/:token", RequiresSession: false, Chrome: ChromeNone, Title: "Item Registry"},
	{Name: SecretSanta, Pattern: "/secret-santa/:token", RequiresSession: false, Chrome: ChromeNone, Title: "Secret Santa"},
	{Name: Home, Pattern: "/home", RequiresSession: true, Chrome: ChromeDrawer, Title: "Home"},
	{Name: WebApp, Pattern: "/web-app", RequiresSession: true, Chrome: ChromeDrawerFramed, Title: "Family Helper App"},
	{Name: SupportUsers, Pattern: "/support/users", RequiresSession: true, Chrome: ChromeDrawer, Title: "Users"},
	{Name: AuditLogs, Pattern: "/support/audit-logs", RequiresSession: true, Chrome: ChromeDrawer, Title: "Audit Logs"},
}

// Match is the result of resolving a URL path against the table.
type Match struct {
	Route  Route
	Params map[string]string
}

// Lookup returns the table row for a route name.
func Lookup(name Name) (Route, bool) {
	for _, r := range Table {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve maps a URL path onto the table, extracting :param segments. An
// unknown path resolves to NotFound with no chrome and no session
// requirement.
func Resolve(path string) Match {
	segments := splitPath(path)
	for _, r := range Table {
		params, ok := matchPattern(r.Pattern, segments)
		if ok {
			return Match{Route: r, Params: params}
		}
	}
	return Match{Route: Route{Name: NotFound, Pattern: path, Chrome: ChromeNone, Title: "Not Found"}}
}

// Destination decides where a navigation to path should land given the
// session state: gated routes without a session fall back to the login row,
// everything else resolves as-is. Callers must not invoke this while the
// stored session is still loading.
func Destination(path string, hasSession bool) Match {
	m := Resolve(path)
	if m.Route.RequiresSession && !hasSession {
		login, _ := Lookup(Login)
		return Match{Route: login}
	}
	return m
}

// DrawerEntries returns the gated routes in the order the drawer lists them.
func DrawerEntries() []Route {
	var entries []Route
	for _, r := range Table {
		if r.RequiresSession {
			entries = append(entries, r)
		}
	}
	return entries
}

func splitPath(path string) []string {
	path = strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchPattern(pattern string, segments []string) (map[string]string, bool) {
	want := splitPath(pattern)
	if len(want) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, part := range want {
		if strings.HasPrefix(part, ":") {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[part[1:]] = segments[i]
			continue
		}
		if part != segments[i] {
			return nil, false
		}
	}
	return params, true
}
