// Package router holds the console's route table and the guard evaluated
// before every navigation.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrNoRoute     = errors.New("no route matches path")
	ErrUnknownName = errors.New("unknown route name")
)

// Meta is the static access metadata a route declares.
type Meta struct {
	Public       bool     `json:"public,omitempty" yaml:"public"`
	RequiresAuth bool     `json:"requiresAuth,omitempty" yaml:"requiresAuth"`
	Roles        []string `json:"roles,omitempty" yaml:"roles"`
}

// Route is one entry of the route configuration. Child paths are relative
// to their parent. Segments starting with ":" capture a parameter and a
// trailing "*" segment matches the rest of the path.
type Route struct {
	Name     string
	Path     string
	Meta     Meta
	Children []Route
}

// Record is a route with its absolute path pattern.
type Record struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Meta Meta   `json:"meta"`
}

// Target is a resolved navigation destination.
type Target struct {
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	FullPath string            `json:"fullPath"`
	Query    url.Values        `json:"query,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	// Matched is the route chain from the outermost parent to the leaf.
	Matched []Record `json:"matched"`
}

// Leaf returns the innermost matched record.
func (t Target) Leaf() (Record, bool) {
	if len(t.Matched) == 0 {
		return Record{}, false
	}
	return t.Matched[len(t.Matched)-1], true
}

type chain struct {
	records  []Record
	segments []string
	catchAll bool
}

// Table is an immutable, ordered route table.
type Table struct {
	chains []chain
	byName map[string]int
}

// NewTable flattens routes into match chains. Declaration order decides
// between overlapping patterns, except that catch-all routes are tried last.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{byName: make(map[string]int)}
	if err := t.add(nil, "", routes); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTable is NewTable for static configuration.
func MustTable(routes []Route) *Table {
	t, err := NewTable(routes)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(parents []Record, prefix string, routes []Route) error {
	for _, r := range routes {
		full := joinPath(prefix, r.Path)
		rec := Record{Name: r.Name, Path: full, Meta: r.Meta}
		records := append(append([]Record(nil), parents...), rec)

		segs := splitPath(full)
		for i, s := range segs {
			if s == "*" && i != len(segs)-1 {
				return fmt.Errorf("route %q: wildcard must be the last segment", full)
			}
		}
		if r.Name != "" {
			if _, dup := t.byName[r.Name]; dup {
				return fmt.Errorf("duplicate route name %q", r.Name)
			}
			t.byName[r.Name] = len(t.chains)
		}
		t.chains = append(t.chains, chain{
			records:  records,
			segments: segs,
			catchAll: len(segs) > 0 && segs[len(segs)-1] == "*",
		})

		if err := t.add(records, full, r.Children); err != nil {
			return err
		}
	}
	return nil
}

// Resolve matches a full path such as "/dashboard/patients?x=1".
func (t *Table) Resolve(fullPath string) (Target, error) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", fullPath, err)
	}
	path := normalizePath(u.Path)
	target := Target{
		Path:     path,
		FullPath: path,
		Query:    u.Query(),
	}
	if u.RawQuery != "" {
		target.FullPath += "?" + u.RawQuery
	}

	segs := splitPath(path)
	for _, wildcard := range []bool{false, true} {
		for _, c := range t.chains {
			if c.catchAll != wildcard {
				continue
			}
			if params, ok := c.match(segs); ok {
				leaf := c.records[len(c.records)-1]
				target.Name = leaf.Name
				target.Params = params
				target.Matched = append([]Record(nil), c.records...)
				return target, nil
			}
		}
	}
	return target, ErrNoRoute
}

// Lookup returns the record registered under name.
func (t *Table) Lookup(name string) (Record, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Record{}, false
	}
	c := t.chains[i]
	return c.records[len(c.records)-1], true
}

// PathFor returns the concrete path of a named route without parameters.
func (t *Table) PathFor(name string) (string, error) {
	rec, ok := t.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	for _, s := range splitPath(rec.Path) {
		if s == "*" || strings.HasPrefix(s, ":") {
			return "", fmt.Errorf("route %q has no static path", name)
		}
	}
	return rec.Path, nil
}

// Records lists every route in declaration order.
func (t *Table) Records() []Record {
	out := make([]Record, 0, len(t.chains))
	for _, c := range t.chains {
		out = append(out, c.records[len(c.records)-1])
	}
	return out
}

func (c chain) match(segs []string) (map[string]string, bool) {
	var params map[string]string
	for i, pat := range c.segments {
		if pat == "*" {
			if params == nil {
				params = make(map[string]string)
			}
			params["pathMatch"] = strings.Join(segs[i:], "/")
			return params, true
		}
		if i >= len(segs) {
			return nil, false
		}
		if strings.HasPrefix(pat, ":") {
			if params == nil {
				params = make(map[string]string)
			}
			params[pat[1:]] = segs[i]
			continue
		}
		if pat != segs[i] {
			return nil, false
		}
	}
	if len(segs) != len(c.segments) {
		return nil, false
	}
	return params, true
}

func joinPath(prefix, p string) string {
	if strings.HasPrefix(p, "/") || prefix == "" {
		return normalizePath(p)
	}
	if p == "" {
		return normalizePath(prefix)
	}
	return normalizePath(prefix + "/" + p)
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
