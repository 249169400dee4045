package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fivetwenty-io/paybill/internal/constants"
	"github.com/fivetwenty-io/paybill/pkg/paybill"
)

// Static errors for err113 compliance.
var (
	ErrSessionClosed = errors.New("session is closed")
)

// Session owns the token of one client. It moves from Unauthenticated through
// Authenticating to Ready on the first successful exchange and never leaves
// Ready afterwards. The token is renewed shortly before it expires.
type Session struct {
	source TokenSource
	clock  Clock
	policy paybill.RetryPolicy
	logger paybill.Logger

	identifyMu sync.Mutex

	mu         sync.RWMutex
	state      paybill.SessionState
	store      *TokenStore
	readySince time.Time
	observers  []func()
	renewal    Timer
	closed     bool

	ready     chan struct{}
	readyOnce sync.Once

	renewCtx    context.Context
	renewCancel context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock replaces the system clock.
func WithClock(clock Clock) SessionOption {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithLogger sets the logger for exchange failures and renewals.
func WithLogger(logger paybill.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryPolicy sets the exchange retry policy.
func WithRetryPolicy(policy *paybill.RetryPolicy) SessionOption {
	return func(s *Session) {
		if policy != nil {
			s.policy = *policy
		}
	}
}

// NewSession creates an unauthenticated session that exchanges through source.
func NewSession(source TokenSource, opts ...SessionOption) *Session {
	renewCtx, renewCancel := context.WithCancel(context.Background())

	session := &Session{
		source:      source,
		clock:       SystemClock(),
		policy:      *paybill.DefaultRetryPolicy(),
		logger:      noopLogger{},
		state:       paybill.StateUnauthenticated,
		store:       NewTokenStore(),
		ready:       make(chan struct{}),
		renewCtx:    renewCtx,
		renewCancel: renewCancel,
	}

	for _, opt := range opts {
		opt(session)
	}

	if session.policy.Cooldown < 0 {
		session.policy.Cooldown = 0
	}

	if session.policy.Multiplier < 1 {
		session.policy.Multiplier = constants.DefaultExchangeMultiplier
	}

	if session.policy.MaxInterval <= 0 {
		session.policy.MaxInterval = constants.DefaultExchangeMaxInterval
	}

	return session
}

// Identify runs the exchange loop and, on success, stores the token and
// schedules its renewal. Calling it while Ready exchanges again without
// notifying ready observers a second time.
func (s *Session) Identify(ctx context.Context) error {
	s.identifyMu.Lock()
	defer s.identifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return ErrSessionClosed
	}

	if s.state == paybill.StateUnauthenticated {
		s.state = paybill.StateAuthenticating
	}
	s.mu.Unlock()

	token, err := s.exchangeWithRetry(ctx)
	if err != nil {
		s.mu.Lock()
		if s.state == paybill.StateAuthenticating {
			s.state = paybill.StateUnauthenticated
		}
		s.mu.Unlock()

		s.logger.Error("Credential exchange failed", map[string]interface{}{
			"error": err.Error(),
		})

		return err
	}

	s.apply(token)

	return nil
}

func (s *Session) exchangeWithRetry(ctx context.Context) (*Token, error) {
	policy := s.policy

	expBackOff := backoff.NewExponentialBackOff()
	expBackOff.InitialInterval = policy.Cooldown
	expBackOff.Multiplier = policy.Multiplier
	expBackOff.MaxInterval = policy.MaxInterval
	expBackOff.MaxElapsedTime = policy.MaxElapsed
	expBackOff.RandomizationFactor = 0
	expBackOff.Clock = s.clock
	expBackOff.Reset()

	var lastErr error

	delay := policy.Cooldown
	attempts := 0

	for {
		err := s.sleep(ctx, delay)
		if err != nil {
			return nil, &paybill.AuthenticationError{Attempts: attempts, Err: err}
		}

		attempts++

		token, err := s.source.Exchange(ctx)
		if err == nil {
			return token, nil
		}

		if ctx.Err() != nil {
			return nil, &paybill.AuthenticationError{Attempts: attempts, Err: ctx.Err()}
		}

		lastErr = err

		s.logger.Warn("Credential exchange attempt failed", map[string]interface{}{
			"attempt": attempts,
			"error":   err.Error(),
		})

		if policy.MaxAttempts > 0 && attempts >= policy.MaxAttempts {
			return nil, &paybill.AuthenticationError{Attempts: attempts, Err: lastErr}
		}

		delay = expBackOff.NextBackOff()
		if delay == backoff.Stop {
			return nil, &paybill.AuthenticationError{Attempts: attempts, Err: lastErr}
		}
	}
}

// sleep waits d on the session clock or until ctx is done.
func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	done := make(chan struct{})
	timer := s.clock.AfterFunc(d, func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		timer.Stop()

		return ctx.Err()
	}
}

// apply stores token, reschedules renewal and fires ready observers on the first success.
func (s *Session) apply(token *Token) {
	now := s.clock.Now()
	token.ExpiresAt = now.Add(token.Lifetime())

	s.mu.Lock()

	s.store.Set(token)

	if !s.closed {
		s.scheduleLocked(s.renewalDelay(token))
	}

	var observers []func()

	first := s.state != paybill.StateReady
	if first {
		s.state = paybill.StateReady
		s.readySince = now
		observers = s.observers
		s.observers = nil
	}

	s.mu.Unlock()

	if !first {
		return
	}

	s.readyOnce.Do(func() { close(s.ready) })

	s.logger.Info("Session ready", map[string]interface{}{
		"expires_at": token.ExpiresAt,
	})

	for _, fn := range observers {
		fn()
	}
}

// renewalDelay is expires_in minus the renewal margin, at least the cooldown.
// A token too short-lived for either waits MaxInterval instead of renewing
// back to back.
func (s *Session) renewalDelay(token *Token) time.Duration {
	delay := token.Lifetime() - constants.RenewalMargin
	if delay < s.policy.Cooldown {
		delay = s.policy.Cooldown
	}

	if delay <= 0 {
		delay = s.policy.MaxInterval
	}

	return delay
}

// Must be called with lock held.
func (s *Session) scheduleLocked(delay time.Duration) {
	if s.renewal != nil {
		s.renewal.Stop()
	}

	s.renewal = s.clock.AfterFunc(delay, s.renew)
}

func (s *Session) renew() {
	s.mu.RLock()
	closed := s.closed
	ctx := s.renewCtx
	s.mu.RUnlock()

	if closed {
		return
	}

	token, err := s.source.Exchange(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return
		}

		s.logger.Warn("Token renewal failed, keeping current token", map[string]interface{}{
			"error":    err.Error(),
			"retry_in": s.policy.MaxInterval.String(),
		})

		s.scheduleLocked(s.policy.MaxInterval)

		return
	}

	s.apply(token)

	s.logger.Debug("Token renewed", map[string]interface{}{
		"expires_at": token.ExpiresAt,
	})
}

// State returns the current state.
func (s *Session) State() paybill.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Ready returns a channel closed when the session first becomes ready.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// OnReady registers fn to run once on the first transition to Ready. It runs
// immediately when the session is already ready.
func (s *Session) OnReady(fn func()) {
	s.mu.Lock()

	if s.state == paybill.StateReady {
		s.mu.Unlock()
		fn()

		return
	}

	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Token returns the bearer token when the session is ready.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != paybill.StateReady {
		return "", false
	}

	token := s.store.Get()
	if token == nil || token.AccessToken == "" {
		return "", false
	}

	return token.AccessToken, true
}

// ReadySince returns when the session first became ready, or the zero time.
func (s *Session) ReadySince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readySince
}

// ExpiresAt returns the expiry of the current token, or the zero time.
func (s *Session) ExpiresAt() time.Time {
	token := s.store.Get()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

// Close stops renewal. The current token stays readable.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.renewal != nil {
		s.renewal.Stop()
		s.renewal = nil
	}

	s.renewCancel()

	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}
