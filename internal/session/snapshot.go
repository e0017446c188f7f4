package session

import "github.com/nookcoder/clinic-console/internal/auth"

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Token           string         `json:"-"`
	Identity        *auth.Identity `json:"identity,omitempty"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	Loading         bool           `json:"loading"`
	LastError       string         `json:"lastError,omitempty"`

	seq uint64
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// changedLocked records a state change and returns its snapshot. Caller holds s.mu.
func (s *Store) changedLocked() Snapshot {
	s.seq++
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Token:           s.token,
		Identity:        cloneIdentity(s.identity),
		IsAuthenticated: s.token != "",
		Loading:         s.inflight > 0,
		LastError:       s.lastError,
		seq:             s.seq,
	}
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns a copy of the decoded identity, or nil when signed out
// or when the token could not be decoded.
func (s *Store) Identity() *auth.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIdentity(s.identity)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

func cloneIdentity(id *auth.Identity) *auth.Identity {
	if id == nil {
		return nil
	}
	return &auth.Identity{
		Subject: id.Subject,
		Roles:   auth.NewRoleSet(id.Roles.Slice()...),
	}
}
