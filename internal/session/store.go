package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/nao1215/origincheck/internal/api"
	"github.com/nao1215/origincheck/internal/model"
)

const (
	// MsgMissingCredentials is returned when email or password is empty.
	MsgMissingCredentials = "Missing email or password"

	// MsgMissingName is returned when Register is called without a name.
	MsgMissingName = "Missing name"

	// MsgLoginFailed is the fallback when login fails without a message.
	MsgLoginFailed = "Login failed"

	// MsgRegisterFailed is the fallback when registration fails without a message.
	MsgRegisterFailed = "Registration failed"

	// MsgSuperseded is returned when a newer sign-in or logout settled first.
	MsgSuperseded = "Session changed during sign in. Please try again."
)

const (
	opCheck    = "check"
	opLogin    = "login"
	opRegister = "register"
	opLogout   = "logout"
)

// Identity is the authentication surface of the analysis service.
// *api.Client implements it.
type Identity interface {
	Me(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, in api.LoginRequest) (*model.User, error)
	Register(ctx context.Context, in api.RegisterRequest) (*model.User, error)
	Logout(ctx context.Context) error
}

// Result is the outcome of Login or Register.
type Result struct {
	Success bool
	Error   string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the single authoritative session record.
type Store struct {
	identity Identity
	logger   *slog.Logger

	mu      sync.Mutex
	state   model.Session
	started uint64 // last generation handed out
	applied uint64 // generation of the last committed write
	lastOp  string // operation that made the last committed write
	subs    map[int]func(model.Session)
	nextSub int
}

// NewStore returns a Store in the initial loading state.
func NewStore(identity Identity, opts ...Option) *Store {
	s := &Store{
		identity: identity,
		logger:   slog.New(slog.DiscardHandler),
		state:    model.InitialSession(),
		subs:     make(map[int]func(model.Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to be called with every committed session.
// fn runs on the committing goroutine and must not call back into the Store
// synchronously. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(model.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Check asks the service who is signed in and commits the answer.
// Loading is true while the call is in flight and is cleared on every path.
// The loading write keeps the current user and authenticated flag, so views
// keep showing the last known identity until the answer settles it.
func (s *Store) Check(ctx context.Context) {
	gen := s.begin(func(cur model.Session) model.Session {
		cur.Loading = true
		return cur
	})

	next := model.SignedOut()
	defer func() {
		if r := recover(); r != nil {
			s.commit(gen, opCheck, model.SignedOut())
			panic(r)
		}
		s.commit(gen, opCheck, next)
	}()

	user, err := s.identity.Me(ctx)
	switch {
	case err == nil && user != nil:
		next = model.SignedIn(user)
	case err == nil:
		s.logger.Debug("not signed in")
	case errors.Is(err, api.ErrUnauthorized):
		s.logger.Debug("session rejected by server")
	default:
		s.logger.Error("failed to check session", slog.String("error", err.Error()))
	}
}

// Login signs in with email, password and the captcha answer.
// On failure the current session is left untouched.
func (s *Store) Login(ctx context.Context, email, password, captcha string) Result {
	if strings.TrimSpace(email) == "" || password == "" {
		return Result{Error: MsgMissingCredentials}
	}

	gen := s.begin(nil)
	user, err := s.identity.Login(ctx, api.LoginRequest{
		Email:        strings.TrimSpace(email),
		Password:     password,
		CaptchaInput: captcha,
	})
	return s.settleAuth(gen, opLogin, user, err, MsgLoginFailed)
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, email, password, name, captcha string) Result {
	if strings.TrimSpace(email) == "" || password == "" {
		return Result{Error: MsgMissingCredentials}
	}
	if strings.TrimSpace(name) == "" {
		return Result{Error: MsgMissingName}
	}

	gen := s.begin(nil)
	user, err := s.identity.Register(ctx, api.RegisterRequest{
		Email:        strings.TrimSpace(email),
		Password:     password,
		Name:         strings.TrimSpace(name),
		CaptchaInput: captcha,
	})
	return s.settleAuth(gen, opRegister, user, err, MsgRegisterFailed)
}

// Logout ends the session. The server call is best effort and the local
// session is always cleared.
func (s *Store) Logout(ctx context.Context) {
	gen := s.begin(nil)
	if err := s.identity.Logout(ctx); err != nil {
		s.logger.Warn("server logout failed", slog.String("error", err.Error()))
	}
	s.force(gen, opLogout, model.SignedOut())
}

// settleAuth commits a successful login or register and builds the Result.
func (s *Store) settleAuth(gen uint64, op string, user *model.User, err error, fallback string) Result {
	if err != nil {
		msg, ok := api.ServerMessage(err)
		if !ok {
			var apiErr *api.Error
			if errors.As(err, &apiErr) || err.Error() == "" {
				msg = fallback
			} else {
				msg = err.Error()
			}
		}
		s.logger.Debug(op+" failed", slog.String("error", err.Error()))
		return Result{Error: msg}
	}
	if user == nil {
		return Result{Error: fallback}
	}

	if !s.commitAuth(gen, op, model.SignedIn(user)) {
		return Result{Error: MsgSuperseded}
	}
	s.logger.Info(op+" succeeded", slog.String("email", user.Email))
	return Result{Success: true}
}

// begin hands out a new generation. When mutate is non-nil it is applied to
// the current state and published immediately.
func (s *Store) begin(mutate func(model.Session) model.Session) uint64 {
	s.mu.Lock()
	s.started++
	gen := s.started
	if mutate == nil {
		s.mu.Unlock()
		return gen
	}
	// The loading flag is not a settled write and does not advance applied.
	s.state = mutate(s.state.Clone())
	snap, subs := s.state.Clone(), s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
	return gen
}

// commit writes next unless a newer generation has already been committed.
func (s *Store) commit(gen uint64, op string, next model.Session) bool {
	s.mu.Lock()
	if gen < s.applied {
		applied := s.applied
		s.mu.Unlock()
		s.logger.Debug("discarding stale session update",
			slog.String("op", op),
			slog.Uint64("generation", gen),
			slog.Uint64("applied", applied))
		return false
	}
	s.state = next
	s.applied = gen
	s.lastOp = op
	snap, subs := s.state.Clone(), s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
	return true
}

// commitAuth writes a successful sign-in. The server answered it after any
// check that settled in the meantime, so only a newer login, register or
// logout makes it stale.
func (s *Store) commitAuth(gen uint64, op string, next model.Session) bool {
	s.mu.Lock()
	if gen < s.applied && s.lastOp != opCheck {
		applied, lastOp := s.applied, s.lastOp
		s.mu.Unlock()
		s.logger.Debug("discarding superseded sign-in",
			slog.String("op", op),
			slog.String("superseded_by", lastOp),
			slog.Uint64("generation", gen),
			slog.Uint64("applied", applied))
		return false
	}
	s.state = next
	s.applied = max(s.applied, gen)
	s.lastOp = op
	snap, subs := s.state.Clone(), s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
	return true
}

// force writes next regardless of ordering.
func (s *Store) force(gen uint64, op string, next model.Session) {
	s.mu.Lock()
	s.state = next
	s.applied = max(s.applied, gen)
	s.lastOp = op
	snap, subs := s.state.Clone(), s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
}

// subscribers copies the subscriber set. Caller holds mu.
func (s *Store) subscribers() []func(model.Session) {
	subs := make([]func(model.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(model.Session), snap model.Session) {
	for _, fn := range subs {
		fn(snap.Clone())
	}
}
