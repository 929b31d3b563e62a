// Package transport is the authenticated HTTP pipeline every API module
// shares. It attaches the stored access token as a bearer credential to each
// outgoing request and, on an unauthorized response, performs exactly one
// silent refresh-and-retry cycle before giving the outcome back to the
// caller.
package transport

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lotusshop/go-storefront-session/tokenstore"
)

const (
	requestIDHeader = "X-Request-ID"

	// DefaultTimeout bounds ordinary JSON calls.
	DefaultTimeout = 10 * time.Second
	// UploadTimeout bounds file uploads.
	UploadTimeout = 30 * time.Second
)

// Authenticated is an http.RoundTripper decorator. The retry is structural,
// not flag-guarded: the replay goes straight to the base transport, so a
// second 401 cannot re-enter the refresh path and is propagated unchanged.
// Network-level failures (timeout, DNS, refused) pass through without
// touching the refresh flow at all.
type Authenticated struct {
	base        http.RoundTripper
	store       tokenstore.Store
	coordinator *Coordinator
	logger      zerolog.Logger
}

var _ http.RoundTripper = (*Authenticated)(nil)

// Option configures an Authenticated transport.
type Option func(*Authenticated)

// WithBase sets the underlying transport, http.DefaultTransport otherwise.
func WithBase(base http.RoundTripper) Option {
	return func(t *Authenticated) {
		t.base = base
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Authenticated) {
		t.logger = logger
	}
}

// NewAuthenticated creates the shared authenticated transport.
func NewAuthenticated(store tokenstore.Store, coordinator *Coordinator, options ...Option) *Authenticated {
	t := &Authenticated{
		base:        http.DefaultTransport,
		store:       store,
		coordinator: coordinator,
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Authenticated) RoundTrip(req *http.Request) (*http.Response, error) {
	outgoing := t.decorate(req)

	response, err := t.base.RoundTrip(outgoing)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusUnauthorized {
		return response, nil
	}

	refreshToken, storeErr := t.store.RefreshToken(req.Context())
	if storeErr != nil || refreshToken == "" {
		// Nothing to refresh with: the original failure stands.
		return response, nil
	}

	pair, refreshErr := t.coordinator.Refresh(req.Context())
	if refreshErr != nil {
		// Fail-closed handling (store cleared, expired hook fired) already
		// happened inside the coordinator. The caller sees the original 401.
		return response, nil
	}

	retry, ok := t.rewind(req)
	if !ok {
		// Body cannot be replayed; the original failure stands.
		return response, nil
	}
	drain(response)

	retry.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	t.logger.Debug().Str("request_id", retry.Header.Get(requestIDHeader)).Msg("retrying request with refreshed token")
	return t.base.RoundTrip(retry)
}

// decorate clones the request, tags it with a request ID and attaches the
// current access token if one is stored. RoundTrippers must not mutate the
// caller's request.
func (t *Authenticated) decorate(req *http.Request) *http.Request {
	outgoing := req.Clone(req.Context())
	if outgoing.Header.Get(requestIDHeader) == "" {
		outgoing.Header.Set(requestIDHeader, uuid.New().String())
	}
	if accessToken, err := t.store.AccessToken(req.Context()); err == nil && accessToken != "" {
		outgoing.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return outgoing
}

// rewind produces a replayable copy of the request after its body has been
// consumed by the first attempt.
func (t *Authenticated) rewind(req *http.Request) (*http.Request, bool) {
	retry := t.decorate(req)
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

// drain discards and closes a response we are about to replace so the
// underlying connection can be reused.
func drain(response *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 4096))
	_ = response.Body.Close()
}

// NewHTTPClient builds the client API modules should share: authenticated
// transport, DefaultTimeout.
func NewHTTPClient(store tokenstore.Store, coordinator *Coordinator, options ...Option) *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: NewAuthenticated(store, coordinator, options...),
	}
}

// NewUploadClient is NewHTTPClient with the longer upload budget.
func NewUploadClient(store tokenstore.Store, coordinator *Coordinator, options ...Option) *http.Client {
	return &http.Client{
		Timeout:   UploadTimeout,
		Transport: NewAuthenticated(store, coordinator, options...),
	}
}
