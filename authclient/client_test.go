package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotusshop/go-storefront-session/authclient"
	apierrors "github.com/lotusshop/go-storefront-session/internal/errors"
)

const (
	testUser     = "0901234567"
	testPassword = "secret123"
	testSecret   = "shared-secret"
)

func TestChecksum(t *testing.T) {
	// Hex SHA-256 of providerUserID + password + secret.
	assert.Equal(t,
		"00166b538228bb3ffb9ecce24cf68e1daf44c0dc9fc74d412230a666927dd7cf",
		authclient.Checksum(testUser, testPassword, testSecret),
	)

	// Any input change produces a different checksum.
	assert.NotEqual(t,
		authclient.Checksum(testUser, testPassword, testSecret),
		authclient.Checksum(testUser, testPassword, "other"),
	)
}

func TestLoginSendsContractPayload(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
			"tokenType":    "Bearer",
			"expiresIn":    3600,
			"userInfo":     map[string]string{"id": "u1", "name": "Linh Tran"},
		})
	}))
	t.Cleanup(server.Close)

	client := authclient.New(server.URL,
		authclient.WithProvider("PHONE"),
		authclient.WithLanguage("vi"),
		authclient.WithChecksumSecret(testSecret),
	)

	response, err := client.Login(context.Background(), authclient.Credentials{
		ProviderUserID: testUser,
		Password:       testPassword,
	})
	require.NoError(t, err)

	assert.Equal(t, "PHONE", got["provider"])
	assert.Equal(t, testUser, got["providerUserId"])
	assert.Equal(t, testPassword, got["password"])
	assert.Equal(t, "vi", got["language"])
	assert.Equal(t, authclient.Checksum(testUser, testPassword, testSecret), got["checksum"])

	assert.Equal(t, "access-1", response.AccessToken)
	assert.Equal(t, "refresh-1", response.RefreshToken)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, int64(3600), response.ExpiresIn)
	require.NotNil(t, response.UserInfo)
	assert.Equal(t, "Linh Tran", response.UserInfo.Name)
}

func TestLoginRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := authclient.New(server.URL)
	_, err := client.Login(context.Background(), authclient.Credentials{ProviderUserID: testUser, Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrInvalidCredentials)
}

func TestRegisterSendsProfileFields(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "a", "refreshToken": "r"})
	}))
	t.Cleanup(server.Close)

	client := authclient.New(server.URL, authclient.WithChecksumSecret(testSecret))
	_, err := client.Register(context.Background(), authclient.Registration{
		Credentials: authclient.Credentials{ProviderUserID: testUser, Password: testPassword},
		Name:        "Linh Tran",
		Email:       "linh@example.com",
		Phone:       testUser,
	})
	require.NoError(t, err)

	assert.Equal(t, "Linh Tran", got["name"])
	assert.Equal(t, "linh@example.com", got["email"])
	assert.Equal(t, testUser, got["phone"])
	assert.Equal(t, authclient.Checksum(testUser, testPassword, testSecret), got["checksum"])
}

func TestRefreshKeepsTokenWhenNotRotated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, "refresh-1", request["refreshToken"])
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
	}))
	t.Cleanup(server.Close)

	client := authclient.New(server.URL)
	pair, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", pair.AccessToken)
	assert.Equal(t, "refresh-1", pair.RefreshToken)
}

func TestRefreshAdoptsRotatedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2", "refreshToken": "refresh-2"})
	}))
	t.Cleanup(server.Close)

	client := authclient.New(server.URL)
	pair, err := client.Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", pair.AccessToken)
	assert.Equal(t, "refresh-2", pair.RefreshToken)
}

func TestRefreshWithoutToken(t *testing.T) {
	client := authclient.New("http://unused")
	_, err := client.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, apierrors.ErrNoRefreshToken)
}

func TestBackendErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := authclient.New(server.URL)
	_, err := client.Refresh(context.Background(), "refresh-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrBackend)
}
