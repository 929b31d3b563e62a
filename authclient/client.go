// Package authclient is the REST client for the storefront backend's
// authentication endpoints: login, register and token refresh. It owns the
// wire contract only; session state lives in the session package and token
// persistence in tokenstore.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	apierrors "github.com/lotusshop/go-storefront-session/internal/errors"
	"github.com/lotusshop/go-storefront-session/tokenstore"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	refreshPath  = "/auth/refresh"

	defaultTimeout = 10 * time.Second
)

// Credentials identifies a user to the login endpoint. ProviderUserID is a
// phone number or email address depending on the provider.
type Credentials struct {
	ProviderUserID string
	Password       string
}

// Registration carries the profile fields for account creation.
type Registration struct {
	Credentials
	Name  string
	Email string
	Phone string
}

// UserInfo is the profile block returned alongside a fresh token pair.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// TokenResponse is the backend's reply to a successful login or register.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int64     `json:"expiresIn"`
	UserInfo     *UserInfo `json:"userInfo,omitempty"`
}

type loginRequest struct {
	Provider       string `json:"provider"`
	ProviderUserID string `json:"providerUserId"`
	Password       string `json:"password"`
	Checksum       string `json:"checksum"`
	Language       string `json:"language"`
}

type registerRequest struct {
	loginRequest
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Client talks to the backend auth endpoints.
type Client struct {
	baseURL        string
	provider       string
	language       string
	checksumSecret string
	httpClient     *http.Client
	logger         zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The auth client must
// NOT share the authenticated transport: a refresh issued through a transport
// that itself triggers refresh on 401 would recurse.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithProvider sets the identity provider tag ("PHONE" or "EMAIL").
func WithProvider(provider string) ClientOption {
	return func(c *Client) {
		c.provider = provider
	}
}

// WithLanguage sets the language code sent with login and register.
func WithLanguage(language string) ClientOption {
	return func(c *Client) {
		c.language = language
	}
}

// WithChecksumSecret sets the shared secret mixed into the login checksum.
func WithChecksumSecret(secret string) ClientOption {
	return func(c *Client) {
		c.checksumSecret = secret
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates an auth client for the backend at baseURL.
func New(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		provider:   "PHONE",
		language:   "vi",
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token pair. Invalid credentials surface
// as apierrors.ErrInvalidCredentials so callers can branch without parsing
// status codes.
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	request := loginRequest{
		Provider:       c.provider,
		ProviderUserID: creds.ProviderUserID,
		Password:       creds.Password,
		Checksum:       Checksum(creds.ProviderUserID, creds.Password, c.checksumSecret),
		Language:       c.language,
	}
	var response TokenResponse
	if err := c.postJSON(ctx, loginPath, request, &response); err != nil {
		return nil, errors.Wrap(err, "[Client.Login]")
	}
	return &response, nil
}

// Register creates an account and returns the same token pair shape as Login.
func (c *Client) Register(ctx context.Context, reg Registration) (*TokenResponse, error) {
	request := registerRequest{
		loginRequest: loginRequest{
			Provider:       c.provider,
			ProviderUserID: reg.ProviderUserID,
			Password:       reg.Password,
			Checksum:       Checksum(reg.ProviderUserID, reg.Password, c.checksumSecret),
			Language:       c.language,
		},
		Name:  reg.Name,
		Email: reg.Email,
		Phone: reg.Phone,
	}
	var response TokenResponse
	if err := c.postJSON(ctx, registerPath, request, &response); err != nil {
		return nil, errors.Wrap(err, "[Client.Register]")
	}
	return &response, nil
}

// Refresh exchanges the refresh token for a new access token. When the
// backend rotates the refresh token the new one is returned; otherwise the
// pair keeps the token that was presented, so callers can persist the result
// unconditionally.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (tokenstore.Pair, error) {
	if refreshToken == "" {
		return tokenstore.Pair{}, apierrors.ErrNoRefreshToken
	}
	var response refreshResponse
	if err := c.postJSON(ctx, refreshPath, refreshRequest{RefreshToken: refreshToken}, &response); err != nil {
		return tokenstore.Pair{}, errors.Wrap(err, "[Client.Refresh]")
	}
	pair := tokenstore.Pair{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		c.logger.Debug().Str("path", path).Int("status", response.StatusCode).Msg("auth request rejected")
		return apierrors.ErrInvalidCredentials
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		c.logger.Debug().Str("path", path).Int("status", response.StatusCode).Msg("auth request failed")
		return errors.Wrapf(apierrors.ErrBackend, "%s returned %d: %s", path, response.StatusCode, snippet)
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
