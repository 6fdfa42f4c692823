package routes

// Requirement is a boolean predicate over a set of keys: AnyOf is satisfied
// when empty or when at least one key holds, AllOf when empty or when every
// key holds. Both must be satisfied.
type Requirement struct {
	AnyOf []string
	AllOf []string
}

// IsZero reports whether the requirement constrains nothing.
func (r Requirement) IsZero() bool {
	return len(r.AnyOf) == 0 && len(r.AllOf) == 0
}

// SatisfiedBy evaluates the requirement against a membership predicate.
func (r Requirement) SatisfiedBy(has func(string) bool) bool {
	if len(r.AnyOf) > 0 {
		hit := false
		for _, key := range r.AnyOf {
			if has(key) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, key := range r.AllOf {
		if !has(key) {
			return false
		}
	}
	return true
}

func unionKeys(parent, child []string) []string {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(parent)+len(child))
	out := make([]string, 0, len(parent)+len(child))
	for _, key := range parent {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	for _, key := range child {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// ProtectionRules are the declarative access requirements attached to a
// route node. Descendant nodes inherit ancestor rules via MergeRules.
type ProtectionRules struct {
	// RequireAuth denies unauthenticated sessions.
	RequireAuth bool
	// RequireGuest denies authenticated sessions (login, register pages).
	RequireGuest bool
	// Permissions is checked against the session's permission map.
	Permissions Requirement
	// Roles is checked against the session's role names.
	Roles Requirement
	// DeniedRedirect is where a denied navigation is sent. Empty means the
	// caller picks the fallback (for auth failures the guard substitutes
	// the login path).
	DeniedRedirect string
}

// MergeRules combines an ancestor's rules with a node's own. The merge is
// monotonically restrictive: key lists are unioned, the auth flags are OR'd,
// so a descendant can never relax what an ancestor requires. The child's
// DeniedRedirect overrides the inherited one when present.
func MergeRules(parent, child *ProtectionRules) *ProtectionRules {
	if parent == nil && child == nil {
		return nil
	}
	if parent == nil {
		merged := *child
		return &merged
	}
	if child == nil {
		merged := *parent
		return &merged
	}
	merged := &ProtectionRules{
		RequireAuth:  parent.RequireAuth || child.RequireAuth,
		RequireGuest: parent.RequireGuest || child.RequireGuest,
		Permissions: Requirement{
			AnyOf: unionKeys(parent.Permissions.AnyOf, child.Permissions.AnyOf),
			AllOf: unionKeys(parent.Permissions.AllOf, child.Permissions.AllOf),
		},
		Roles: Requirement{
			AnyOf: unionKeys(parent.Roles.AnyOf, child.Roles.AnyOf),
			AllOf: unionKeys(parent.Roles.AllOf, child.Roles.AllOf),
		},
		DeniedRedirect: parent.DeniedRedirect,
	}
	if child.DeniedRedirect != "" {
		merged.DeniedRedirect = child.DeniedRedirect
	}
	return merged
}
