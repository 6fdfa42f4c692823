package session

// User is the backend's user record as cached in the session. The client
// treats it as mostly opaque; only the fields the session engine needs are
// mapped.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Roles     []UserRole `json:"roles,omitempty"`
}

// UserRole is a role membership embedded in the user record.
type UserRole struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// RoleNames returns the names of the roles embedded in the user record.
func (u *User) RoleNames() []string {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names
}

// StoredSession is the durable authentication state: the token pair plus the
// cached user, permission map and role names.
//
// Tokens == nil means logically unauthenticated regardless of the other
// fields. Tokens present with a nil User is a valid transient state during
// startup reconciliation.
type StoredSession struct {
	User        *User           `json:"user,omitempty"`
	Permissions map[string]bool `json:"permissions"`
	Roles       []string        `json:"roles"`
	Tokens      *TokenPair      `json:"tokens,omitempty"`
}

// Snapshot is the derived, read-only view of a StoredSession handed to
// consumers (route guards, UI). Never persisted; recomputed on every read so
// it cannot diverge from the stored record.
type Snapshot struct {
	User            *User
	Permissions     map[string]bool
	Roles           []string
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
}

// Snapshot projects the stored session into its read-only view. Safe on a
// nil receiver, which yields the unauthenticated snapshot.
func (s *StoredSession) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		User:        s.User,
		Permissions: s.Permissions,
		Roles:       s.Roles,
	}
	if s.Tokens != nil {
		snap.AccessToken = s.Tokens.AccessToken
		snap.RefreshToken = s.Tokens.RefreshToken
	}
	snap.IsAuthenticated = snap.AccessToken != ""
	return snap
}

// HasPermission reports whether the snapshot's permission map grants key.
func (s Snapshot) HasPermission(key string) bool {
	return s.Permissions[key]
}

// HasRole reports whether the snapshot carries the named role.
func (s Snapshot) HasRole(name string) bool {
	for _, r := range s.Roles {
		if r == name {
			return true
		}
	}
	return false
}
