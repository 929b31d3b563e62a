// Package sessions holds the process-wide answer to "is someone logged in,
// and who are they". The controller derives its state from the token store,
// never the other way round: a non-empty stored access token means
// authenticated, full stop. Decoded claims are display state and may be nil
// even while authenticated.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lotusshop/go-storefront-session/authclient"
	"github.com/lotusshop/go-storefront-session/token"
	"github.com/lotusshop/go-storefront-session/tokenstore"
)

const (
	defaultCheckInterval = time.Minute
)

// Snapshot is the controller state at a point in time.
type Snapshot struct {
	Authenticated bool
	User          *token.Claims
	Loading       bool
}

// Authenticator is the slice of the auth client the controller needs.
type Authenticator interface {
	Login(ctx context.Context, creds authclient.Credentials) (*authclient.TokenResponse, error)
	Register(ctx context.Context, reg authclient.Registration) (*authclient.TokenResponse, error)
}

// RefreshCoordinator is the shared refresh entry point, implemented by
// transport.Coordinator. The controller's proactive timer and the
// transport's 401 path must go through the same instance so concurrent
// triggers share one refresh call.
type RefreshCoordinator interface {
	Refresh(ctx context.Context) (tokenstore.Pair, error)
}

// Controller owns the session state machine: Loading on construction, then
// Authenticated or Anonymous, flipping on login, logout, refresh failure and
// writes to the store observed from other processes.
type Controller struct {
	store       tokenstore.Store
	auth        Authenticator
	coordinator RefreshCoordinator

	checkInterval    time.Duration
	refreshThreshold time.Duration
	onLoginRedirect  func()
	logger           zerolog.Logger

	mu        sync.Mutex
	snapshot  Snapshot
	listeners []func(Snapshot)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithCheckInterval sets how often the proactive expiry check runs.
func WithCheckInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.checkInterval = d
	}
}

// WithRefreshThreshold sets how close to expiry a token is refreshed
// proactively.
func WithRefreshThreshold(d time.Duration) Option {
	return func(c *Controller) {
		c.refreshThreshold = d
	}
}

// WithLoginRedirect registers the navigation hook fired on logout. Wire the
// same hook into the coordinator's expired hook so a failed refresh lands on
// the same login entry point.
func WithLoginRedirect(hook func()) Option {
	return func(c *Controller) {
		c.onLoginRedirect = hook
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller in the Loading state. Call Start to resolve it.
func New(store tokenstore.Store, auth Authenticator, coordinator RefreshCoordinator, options ...Option) *Controller {
	c := &Controller{
		store:            store,
		auth:             auth,
		coordinator:      coordinator,
		checkInterval:    defaultCheckInterval,
		refreshThreshold: token.DefaultExpiryThreshold,
		logger:           zerolog.Nop(),
		snapshot:         Snapshot{Loading: true},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Start resolves the initial state synchronously from the store, then runs
// the proactive refresh timer and the store watcher until Close. Start
// returns once the initial state is resolved; Loading is false from then on.
func (c *Controller) Start(ctx context.Context) error {
	pair, err := tokenstore.Load(ctx, c.store)
	if err != nil {
		// The store being unreadable is indistinguishable from being empty
		// for auth purposes; resolve to anonymous rather than wedging the
		// caller in Loading.
		c.logger.Error().Err(err).Msg("initial token store read failed")
		pair = tokenstore.Pair{}
	}
	c.applyPair(pair)

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	watch, err := c.store.Watch(runCtx)
	if err != nil {
		cancel()
		return err
	}

	c.wg.Add(2)
	go c.watchLoop(runCtx, watch)
	go c.refreshLoop(runCtx)
	return nil
}

// Close stops the background timer and watcher.
func (c *Controller) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// OnChange registers a listener invoked after every state change. Listeners
// are called outside the controller lock and must not block for long.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Login exchanges credentials for a token pair and transitions to
// authenticated. It reports success; a failed login leaves the state
// anonymous and never surfaces an error, so callers branch on the boolean.
func (c *Controller) Login(ctx context.Context, creds authclient.Credentials) bool {
	response, err := c.auth.Login(ctx, creds)
	if err != nil {
		c.logger.Info().Err(err).Msg("login rejected")
		return false
	}
	return c.adoptTokens(ctx, response)
}

// Register creates an account; on success the returned pair signs the new
// user straight in, same shape as Login.
func (c *Controller) Register(ctx context.Context, reg authclient.Registration) bool {
	response, err := c.auth.Register(ctx, reg)
	if err != nil {
		c.logger.Info().Err(err).Msg("registration rejected")
		return false
	}
	return c.adoptTokens(ctx, response)
}

// Logout clears the stored tokens, drops to anonymous and fires the login
// redirect hook. Other processes sharing the store observe the clear through
// their watchers.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear token store on logout")
	}
	c.applyPair(tokenstore.Pair{})
	if c.onLoginRedirect != nil {
		c.onLoginRedirect()
	}
}

func (c *Controller) adoptTokens(ctx context.Context, response *authclient.TokenResponse) bool {
	pair := tokenstore.Pair{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
	}
	if err := c.store.Save(ctx, pair); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist token pair")
		return false
	}
	c.applyPair(pair)
	return true
}

// applyPair re-derives the snapshot from a stored pair. The decode is
// tolerated to fail: a present but undecodable access token still counts as
// authenticated, with no user claims to show.
func (c *Controller) applyPair(pair tokenstore.Pair) {
	next := Snapshot{
		Authenticated: pair.AccessToken != "",
		Loading:       false,
	}
	if next.Authenticated {
		next.User = token.Decode(pair.AccessToken)
	}

	c.mu.Lock()
	c.snapshot = next
	listeners := make([]func(Snapshot), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// watchLoop keeps this process in line with writes from elsewhere. Each
// notification is a snapshot to re-derive from, never a delta, so it needs
// no network call of its own.
func (c *Controller) watchLoop(ctx context.Context, watch <-chan tokenstore.Pair) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case pair, ok := <-watch:
			if !ok {
				return
			}
			c.applyPair(pair)
		}
	}
}

// refreshLoop proactively refreshes the access token shortly before it
// expires instead of waiting for a 401. An already-expired token is left to
// the transport's reactive path.
func (c *Controller) refreshLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkExpiry(ctx)
		}
	}
}

func (c *Controller) checkExpiry(ctx context.Context) {
	accessToken, err := c.store.AccessToken(ctx)
	if err != nil || accessToken == "" {
		return
	}
	if !token.ExpiringSoon(accessToken, c.refreshThreshold) {
		return
	}
	c.logger.Debug().Int64("seconds_remaining", token.TimeRemaining(accessToken)).Msg("access token expiring soon, refreshing")
	if _, err := c.coordinator.Refresh(ctx); err != nil {
		// The coordinator already cleared the store and fired its expired
		// hook; bring this controller to anonymous through the same logout
		// path so the redirect fires here too when no hook is shared.
		c.logger.Warn().Err(err).Msg("proactive refresh failed, logging out")
		c.Logout(ctx)
	}
}
