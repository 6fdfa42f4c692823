package session

// Store is durable storage for the current session: pure get/set/clear with
// no network awareness.
//
// Read returns nil both for "nothing stored" and for malformed persisted
// data; corruption is treated as absence, never as an error. Write(nil)
// clears.
type Store interface {
	Read() *StoredSession
	Write(s *StoredSession) error
	Clear() error
}

// Normalize prepares a session for persistence: missing permission map and
// role list become empty (not nil), and the token expiry is stamped so it is
// fixed at write time rather than recomputed on each reload.
func Normalize(s *StoredSession) *StoredSession {
	if s == nil {
		return nil
	}
	if s.Permissions == nil {
		s.Permissions = map[string]bool{}
	}
	if s.Roles == nil {
		s.Roles = []string{}
	}
	s.Tokens.StampExpiry()
	return s
}
