// Package session owns the console's single signed-in session: the bearer
// token, the identity derived from it and the sign-in UI state.
//
// The token has exactly one write path. Every write recomputes the identity
// and pushes the Authorization header to the HTTP client inside the same
// critical section, so no reader can observe a token without its matching
// identity or header. Concurrent writers are last-writer-wins: a 401-driven
// clear racing a sign-in may land either way. Overlapping sign-in attempts are
// counted, so Loading stays true until the last one returns.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/nookcoder/clinic-console/internal/auth"
	"github.com/nookcoder/clinic-console/internal/httpclient"
	"github.com/nookcoder/clinic-console/internal/logging"
	"github.com/nookcoder/clinic-console/internal/metrics"
	"github.com/nookcoder/clinic-console/internal/tokenstore"
)

// TopicChanged is published with a Snapshot after every state change.
const TopicChanged = "session:changed"

// DefaultSignInError is shown when a failed sign-in carries no server message.
const DefaultSignInError = "Unable to sign in."

var ErrMissingToken = errors.New("missing access token in response")

// persistTimeout bounds persistence writes triggered without a caller context.
const persistTimeout = 5 * time.Second

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthAPI is the remote login/logout contract.
type AuthAPI interface {
	// Login returns the issued token, or "" when the response carried none.
	Login(ctx context.Context, creds Credentials) (string, error)
	Logout(ctx context.Context) error
}

// HeaderSink receives every token write. An empty token means "remove the header".
type HeaderSink interface {
	SetAuthHeader(token string)
}

type Options struct {
	API     AuthAPI
	Header  HeaderSink
	Persist tokenstore.Store
	Bus     evbus.Bus
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type Store struct {
	api     AuthAPI
	header  HeaderSink
	persist tokenstore.Store
	bus     evbus.Bus
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu       sync.RWMutex
	token    string
	identity *auth.Identity
	inflight int
	// seq orders published snapshots; subscribers drop anything older than
	// what they already received.
	seq       uint64
	lastError string

	persistMu sync.Mutex
}

// New builds a signed-out store and removes any Authorization header from
// the sink so both start consistent. Call Restore to rehydrate.
func New(opts Options) *Store {
	bus := opts.Bus
	if bus == nil {
		bus = evbus.New()
	}
	s := &Store{
		api:     opts.API,
		header:  opts.Header,
		persist: opts.Persist,
		bus:     bus,
		metrics: opts.Metrics,
		logger:  logging.OrDefault(opts.Logger),
	}
	s.mu.Lock()
	s.applyLocked("")
	s.mu.Unlock()
	return s
}

// SignIn exchanges credentials for a token. On any failure the session is
// cleared, LastError holds a message for display and the error is returned.
func (s *Store) SignIn(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	s.inflight++
	s.lastError = ""
	snap := s.changedLocked()
	s.mu.Unlock()
	s.publish(snap)

	defer func() {
		s.mu.Lock()
		s.inflight--
		snap := s.changedLocked()
		s.mu.Unlock()
		s.publish(snap)
	}()

	token, err := s.api.Login(ctx, creds)
	if err == nil && token == "" {
		err = ErrMissingToken
	}
	if err != nil {
		msg := httpclient.Message(err)
		if msg == "" {
			msg = DefaultSignInError
		}
		s.logger.Info("sign-in failed", "username", creds.Username, "error", err)
		s.metrics.SignIn(false)

		s.mu.Lock()
		s.clearLocked()
		s.lastError = msg
		snap := s.changedLocked()
		s.mu.Unlock()
		s.persistCurrent(ctx)
		s.publish(snap)
		return err
	}

	s.setToken(ctx, token)
	s.metrics.SignIn(true)
	s.logger.Info("signed in", "subject", s.subject())
	return nil
}

// SignOut calls the logout endpoint best-effort and always clears the
// local session. Endpoint failures are logged, never returned.
func (s *Store) SignOut(ctx context.Context) {
	if s.api != nil {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("logout request failed", "error", err)
		}
	}
	s.clear(ctx)
	s.metrics.SignOut()
}

// ClearSession drops the token, identity and last error and removes the
// Authorization header.
func (s *Store) ClearSession() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	s.clear(ctx)
}

// Restore loads a persisted token and applies it without writing back.
// A missing record is not an error.
func (s *Store) Restore(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	rec, err := s.persist.Load(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.applyLocked(rec.Token)
	snap := s.changedLocked()
	s.mu.Unlock()
	s.publish(snap)
	return nil
}

// Subscribe registers fn for published snapshots. fn runs on its own
// goroutine, one snapshot at a time in change order, so it may sign out or
// issue requests itself. A snapshot older than one fn already received is
// skipped.
func (s *Store) Subscribe(fn func(Snapshot)) error {
	return s.bus.Subscribe(TopicChanged, newSubscriber(fn).enqueue)
}

func (s *Store) setToken(ctx context.Context, token string) {
	s.mu.Lock()
	s.applyLocked(token)
	snap := s.changedLocked()
	s.mu.Unlock()
	s.persistCurrent(ctx)
	s.publish(snap)
}

func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	s.clearLocked()
	snap := s.changedLocked()
	s.mu.Unlock()
	s.persistCurrent(ctx)
	s.publish(snap)
}

func (s *Store) clearLocked() {
	s.applyLocked("")
	s.lastError = ""
}

// applyLocked is the only place the token changes. Caller holds s.mu.
func (s *Store) applyLocked(token string) {
	s.token = token
	s.identity = s.deriveIdentity(token)
	if s.header != nil {
		s.header.SetAuthHeader(token)
	}
}

func (s *Store) deriveIdentity(token string) *auth.Identity {
	if token == "" {
		return nil
	}
	identity, err := auth.DecodeIdentity(token)
	if err != nil {
		s.logger.Warn("failed to decode token payload", "error", err)
		return nil
	}
	return identity
}

// persistCurrent writes whatever the state is now, so the last call always
// leaves storage matching memory even when writes interleave.
func (s *Store) persistCurrent(ctx context.Context) {
	if s.persist == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	snap := s.Snapshot()
	if snap.Token == "" {
		if err := s.persist.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear persisted session", "error", err)
		}
		return
	}

	rec := tokenstore.Record{Token: snap.Token, SavedAt: time.Now().UTC()}
	if snap.Identity != nil {
		rec.Subject = snap.Identity.Subject
		rec.Roles = snap.Identity.Roles.Slice()
	}
	if err := s.persist.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
}

func (s *Store) publish(snap Snapshot) {
	s.bus.Publish(TopicChanged, snap)
}

func (s *Store) subject() string {
	if id := s.Identity(); id != nil {
		return id.Subject
	}
	return ""
}
