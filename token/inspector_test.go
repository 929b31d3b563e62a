package token_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotusshop/go-storefront-session/token"
)

// mintToken builds an unsigned compact token with the given payload. The
// inspector never checks the signature, so a fixed junk segment is enough.
func mintToken(t *testing.T, payload map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(body) + "." + enc.EncodeToString([]byte("sig"))
}

func TestDecodeClaims(t *testing.T) {
	raw := mintToken(t, map[string]any{
		"id":          "user-1",
		"name":        "Linh Tran",
		"email":       "linh@example.com",
		"phone":       "0901234567",
		"roles":       []string{"customer", "reviewer"},
		"permissions": []string{"orders:read"},
		"exp":         float64(1767225600),
	})

	claims := token.Decode(raw)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.ID)
	assert.Equal(t, "Linh Tran", claims.Name)
	assert.Equal(t, "linh@example.com", claims.Email)
	assert.Equal(t, "0901234567", claims.Phone)
	assert.Equal(t, []string{"customer", "reviewer"}, claims.Roles)
	assert.Equal(t, []string{"orders:read"}, claims.Permissions)
	assert.Equal(t, int64(1767225600), claims.Exp)
	assert.True(t, claims.HasRole("reviewer"))
	assert.False(t, claims.HasRole("admin"))
	assert.True(t, claims.HasPermission("orders:read"))
}

func TestDecodeFallsBackToSub(t *testing.T) {
	raw := mintToken(t, map[string]any{"sub": "user-9", "exp": float64(1767225600)})
	claims := token.Decode(raw)
	require.NotNil(t, claims)
	assert.Equal(t, "user-9", claims.ID)
}

func TestDecodeMalformedInputReturnsNil(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "no dots", raw: "nodotsatall"},
		{name: "two segments", raw: "abc.def"},
		{name: "four segments", raw: "a.b.c.d"},
		{name: "invalid base64 payload", raw: "eyJhbGciOiJIUzI1NiJ9.!!!not-base64!!!.sig"},
		{name: "payload not JSON", raw: mintTokenRawPayload("this is not json")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, token.Decode(tc.raw))
		})
	}
}

func mintTokenRawPayload(payload string) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestIsExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	aboutToExpire := mintToken(t, map[string]any{"id": "u", "exp": float64(now.Unix() + 1)})
	justExpired := mintToken(t, map[string]any{"id": "u", "exp": float64(now.Unix() - 1)})

	assert.False(t, token.IsExpired(aboutToExpire))
	assert.True(t, token.IsExpired(justExpired))

	// One second later the first token crosses the boundary.
	token.NowTimeFunc = func() time.Time { return now.Add(time.Second) }
	assert.True(t, token.IsExpired(aboutToExpire))

	assert.True(t, token.IsExpired("not-a-token"))
}

func TestExpiringSoon(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	in2m := mintToken(t, map[string]any{"id": "u", "exp": float64(now.Add(2 * time.Minute).Unix())})
	in10m := mintToken(t, map[string]any{"id": "u", "exp": float64(now.Add(10 * time.Minute).Unix())})
	expired := mintToken(t, map[string]any{"id": "u", "exp": float64(now.Add(-time.Minute).Unix())})

	assert.True(t, token.ExpiringSoon(in2m, 5*time.Minute))
	assert.False(t, token.ExpiringSoon(in10m, 5*time.Minute))
	// Already expired is not "expiring soon".
	assert.False(t, token.ExpiringSoon(expired, 5*time.Minute))
	assert.False(t, token.ExpiringSoon("garbage", 5*time.Minute))

	// Zero threshold falls back to the default five minutes.
	assert.True(t, token.ExpiringSoon(in2m, 0))
}

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { token.NowTimeFunc = time.Now })

	in90s := mintToken(t, map[string]any{"id": "u", "exp": float64(now.Add(90 * time.Second).Unix())})
	expired := mintToken(t, map[string]any{"id": "u", "exp": float64(now.Add(-time.Second).Unix())})

	assert.Equal(t, int64(90), token.TimeRemaining(in90s))
	assert.Equal(t, int64(-1), token.TimeRemaining(expired))
	assert.Equal(t, int64(-1), token.TimeRemaining("garbage"))
}
