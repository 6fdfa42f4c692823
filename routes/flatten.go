// Package routes resolves a nested declarative route tree into a flat,
// ordered list of guarded routes, and evaluates the guards against a session
// snapshot. Resolution runs once at startup; the flat list is immutable
// configuration from then on.
package routes

import (
	"strings"

	"github.com/pkg/errors"
)

// ComponentRef identifies a page component. The routing core treats it as
// opaque; the presentation layer maps it to something renderable.
type ComponentRef string

// LayoutRef identifies a layout component, inherited from the nearest
// ancestor that declares one.
type LayoutRef string

// Wildcard is the catch-all route segment. It is terminal and never joined
// to a parent path.
const Wildcard = "*"

// ConflictingRouteErr marks a node that declares both a page component and a
// redirect target. That configuration is ambiguous and fatal at resolution
// time, before any route is registered.
var ConflictingRouteErr = errors.New("route declares both a page component and a redirect")

// RouteDefinition is one node of the declarative route tree.
type RouteDefinition struct {
	// Route is this node's path segment, joined onto the parent's path.
	Route string
	// Page is the component rendered at this path, if any.
	Page ComponentRef
	// Layout wraps this node and its descendants; empty inherits the
	// nearest ancestor's layout.
	Layout LayoutRef
	// RedirectTo makes this path a redirect. Mutually exclusive with Page.
	RedirectTo string
	// Protection rules for this node, merged with inherited rules.
	Protection *ProtectionRules
	// Children are nested definitions resolved under this node's path.
	Children []RouteDefinition
}

// RegisteredRoute is one flat, resolved entry. Path is absolute and
// normalized. Order in the resolved slice is declaration order: the first
// matching path wins in router semantics, so order is part of the contract.
type RegisteredRoute struct {
	Path       string
	Exact      bool
	Page       ComponentRef
	Layout     LayoutRef
	RedirectTo string
	Protection *ProtectionRules
}

// Flatten resolves the route tree. It fails on the first configuration
// error without registering anything.
func Flatten(defs []RouteDefinition) ([]RegisteredRoute, error) {
	return flatten(defs, "", "", nil)
}

func flatten(defs []RouteDefinition, parentPath string, layout LayoutRef, inherited *ProtectionRules) ([]RegisteredRoute, error) {
	out := make([]RegisteredRoute, 0, len(defs))
	for _, def := range defs {
		if def.Page != "" && def.RedirectTo != "" {
			return nil, errors.Wrapf(ConflictingRouteErr, "route %q", def.Route)
		}

		path := joinPath(parentPath, def.Route)
		nodeLayout := layout
		if def.Layout != "" {
			nodeLayout = def.Layout
		}
		rules := MergeRules(inherited, def.Protection)

		// A node may yield a redirect entry, a page entry, and child
		// entries independently: a redirect node can still have children
		// reachable at deeper paths.
		if def.RedirectTo != "" {
			out = append(out, RegisteredRoute{
				Path:       path,
				Exact:      path != Wildcard,
				Layout:     nodeLayout,
				RedirectTo: def.RedirectTo,
				Protection: rules,
			})
		}
		if def.Page != "" {
			out = append(out, RegisteredRoute{
				Path:       path,
				Exact:      path != Wildcard,
				Page:       def.Page,
				Layout:     nodeLayout,
				Protection: rules,
			})
		}

		children, err := flatten(def.Children, path, nodeLayout, rules)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	return out, nil
}

// joinPath appends a segment to an already-normalized absolute parent path.
// Duplicate slashes collapse to one, trailing slashes are trimmed (except
// root), and the wildcard segment ignores the parent entirely.
func joinPath(parentPath, segment string) string {
	if segment == Wildcard {
		return Wildcard
	}
	joined := parentPath + "/" + segment
	var b strings.Builder
	b.Grow(len(joined))
	prevSlash := false
	for _, r := range joined {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	path := b.String()
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}
