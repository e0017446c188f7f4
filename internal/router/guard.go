package router

import (
	"errors"
	"log/slog"
	"net/url"

	"github.com/nookcoder/clinic-console/internal/auth"
	"github.com/nookcoder/clinic-console/internal/logging"
	"github.com/nookcoder/clinic-console/internal/metrics"
)

// RedirectParam carries the originally requested full path to the login route.
const RedirectParam = "redirect"

type Outcome string

const (
	OutcomeProceed  Outcome = "proceed"
	OutcomeLogin    Outcome = "login"
	OutcomeHome     Outcome = "home"
	OutcomeNotFound Outcome = "not-found"
)

// Session is the read side of the session store the guard consults.
type Session interface {
	IsAuthenticated() bool
	Identity() *auth.Identity
}

// Location is a redirect destination.
type Location struct {
	Name  string     `json:"name"`
	Path  string     `json:"path"`
	Query url.Values `json:"query,omitempty"`
}

func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

type Decision struct {
	Outcome  Outcome   `json:"outcome"`
	Redirect *Location `json:"redirect,omitempty"`
}

func (d Decision) Proceed() bool { return d.Outcome == OutcomeProceed }

type GuardOptions struct {
	Table   *Table
	Session Session
	// Route names; default to "login", "dashboard" and "not-found".
	Login    string
	Home     string
	NotFound string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Guard struct {
	table    *Table
	session  Session
	login    string
	home     string
	notFound string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewGuard(opts GuardOptions) *Guard {
	g := &Guard{
		table:    opts.Table,
		session:  opts.Session,
		login:    opts.Login,
		home:     opts.Home,
		notFound: opts.NotFound,
		metrics:  opts.Metrics,
		logger:   logging.OrDefault(opts.Logger),
	}
	if g.login == "" {
		g.login = "login"
	}
	if g.home == "" {
		g.home = "dashboard"
	}
	if g.notFound == "" {
		g.notFound = "not-found"
	}
	return g
}

// Navigate resolves fullPath and evaluates it. A path no route matches is
// evaluated with an empty chain, which fails closed.
func (g *Guard) Navigate(fullPath string) (Target, Decision, error) {
	target, err := g.table.Resolve(fullPath)
	if err != nil && !errors.Is(err, ErrNoRoute) {
		return target, Decision{}, err
	}
	return target, g.Evaluate(target), nil
}

// Evaluate decides a single navigation against the current session.
// Rules, first match wins: unauthenticated on a protected route goes to
// login with the requested path, a role mismatch goes to not-found, an
// authenticated visit to login goes home, anything else proceeds.
func (g *Guard) Evaluate(to Target) Decision {
	authenticated := g.session.IsAuthenticated()

	var d Decision
	switch {
	case RequiresAuth(to) && !authenticated:
		d = g.redirect(OutcomeLogin, g.login, url.Values{RedirectParam: {to.FullPath}})
	case !g.rolesAllow(RequiredRoles(to)):
		d = Decision{Outcome: OutcomeNotFound, Redirect: &Location{Name: g.notFound, Path: g.pathOr(g.notFound, to.Path)}}
	case to.Name == g.login && authenticated:
		d = g.redirect(OutcomeHome, g.home, nil)
	default:
		d = Decision{Outcome: OutcomeProceed}
	}

	g.metrics.Navigation(string(d.Outcome))
	g.logger.Debug("navigation evaluated", "path", to.FullPath, "route", to.Name, "outcome", d.Outcome)
	return d
}

func (g *Guard) rolesAllow(required []string) bool {
	if len(required) == 0 {
		return true
	}
	return g.session.Identity().HasAnyRole(required...)
}

func (g *Guard) redirect(outcome Outcome, name string, query url.Values) Decision {
	return Decision{
		Outcome:  outcome,
		Redirect: &Location{Name: name, Path: g.pathOr(name, "/"), Query: query},
	}
}

func (g *Guard) pathOr(name, fallback string) string {
	if g.table == nil {
		return fallback
	}
	if p, err := g.table.PathFor(name); err == nil {
		return p
	}
	return fallback
}

// RequiresAuth reports whether any record in the chain declares
// RequiresAuth or the leaf is not marked public. An empty chain requires auth.
func RequiresAuth(to Target) bool {
	leaf, ok := to.Leaf()
	if !ok {
		return true
	}
	for _, rec := range to.Matched {
		if rec.Meta.RequiresAuth {
			return true
		}
	}
	return !leaf.Meta.Public
}

// RequiredRoles is the de-duplicated union of roles across the chain, in
// declaration order.
func RequiredRoles(to Target) []string {
	var roles []string
	seen := make(map[string]struct{})
	for _, rec := range to.Matched {
		for _, r := range rec.Meta.Roles {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			roles = append(roles, r)
		}
	}
	return roles
}
