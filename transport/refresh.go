package transport

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	apierrors "github.com/lotusshop/go-storefront-session/internal/errors"
	"github.com/lotusshop/go-storefront-session/tokenstore"
)

// Refresher exchanges a refresh token for a new pair. Implemented by
// authclient.Client.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (tokenstore.Pair, error)
}

// Coordinator serialises token refresh. The proactive timer in the session
// controller and any number of 401-triggered retries can all ask for a
// refresh at the same moment near expiry; they must share one backend call
// and one outcome, not race each other with the same refresh token.
type Coordinator struct {
	store            tokenstore.Store
	refresher        Refresher
	group            singleflight.Group
	onSessionExpired func()
	logger           zerolog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithExpiredHook registers a callback fired exactly once per failed refresh,
// after the store has been cleared. The session controller uses it to drop to
// anonymous and trigger the login redirect.
func WithExpiredHook(hook func()) CoordinatorOption {
	return func(c *Coordinator) {
		c.onSessionExpired = hook
	}
}

// WithCoordinatorLogger sets the structured logger.
func WithCoordinatorLogger(logger zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a refresh coordinator over the given store.
func NewCoordinator(store tokenstore.Store, refresher Refresher, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Refresh performs (or joins) a single refresh cycle and returns the pair
// now held by the store. A failed refresh is fail-closed: both tokens are
// cleared and the expired hook fires before the error is returned. No
// refresh token stored returns apierrors.ErrNoRefreshToken without touching
// the store.
func (c *Coordinator) Refresh(ctx context.Context) (tokenstore.Pair, error) {
	result, err, _ := c.group.Do("refresh", func() (any, error) {
		return c.refreshOnce(ctx)
	})
	if err != nil {
		return tokenstore.Pair{}, err
	}
	return result.(tokenstore.Pair), nil
}

func (c *Coordinator) refreshOnce(ctx context.Context) (tokenstore.Pair, error) {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		return tokenstore.Pair{}, errors.Wrap(err, "[Coordinator.refreshOnce] read refresh token")
	}
	if refreshToken == "" {
		return tokenstore.Pair{}, apierrors.ErrNoRefreshToken
	}

	pair, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		// Session unrecoverable: clear both tokens and notify, then
		// surface the failure.
		c.logger.Warn().Err(err).Msg("token refresh failed, clearing session")
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.logger.Error().Err(clearErr).Msg("failed to clear token store")
		}
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
		return tokenstore.Pair{}, errors.Wrap(apierrors.ErrSessionUnrecoverable, err.Error())
	}

	if err := c.store.Save(ctx, pair); err != nil {
		return tokenstore.Pair{}, errors.Wrap(err, "[Coordinator.refreshOnce] save pair")
	}
	c.logger.Debug().Msg("token refresh succeeded")
	return pair, nil
}
