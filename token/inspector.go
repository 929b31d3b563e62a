package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/lotusshop/go-storefront-session/internal/utils"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DefaultExpiryThreshold is how close to expiry a token counts as "expiring
// soon" and becomes eligible for proactive refresh.
const DefaultExpiryThreshold = 5 * time.Minute

// Decode extracts the claims from the payload segment of a compact signed
// token without verifying the signature. It returns nil on any malformed
// input: wrong segment count, invalid base64url, invalid JSON. Decoding is
// best-effort; a nil result never blocks authentication.
func Decode(raw string) *Claims {
	if raw == "" {
		return nil
	}
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil
	}
	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil
	}

	id, _ := mapClaims["id"].(string)
	if id == "" {
		id, _ = mapClaims["sub"].(string)
	}
	name, _ := mapClaims["name"].(string)
	email, _ := mapClaims["email"].(string)
	phone, _ := mapClaims["phone"].(string)
	exp, _ := mapClaims["exp"].(float64)

	var roles, permissions []string
	if claimRoles, ok := mapClaims["roles"].([]any); ok {
		roles = utils.ToStringSlice(claimRoles)
	}
	if claimPerms, ok := mapClaims["permissions"].([]any); ok {
		permissions = utils.ToStringSlice(claimPerms)
	}

	return &Claims{
		ID:          id,
		Name:        name,
		Email:       email,
		Phone:       phone,
		Roles:       roles,
		Permissions: permissions,
		Exp:         int64(exp),
	}
}

// IsExpired reports whether the token's exp claim is in the past. An
// undecodable token counts as expired.
func IsExpired(raw string) bool {
	claims := Decode(raw)
	if claims == nil {
		return true
	}
	return !NowTimeFunc().Before(claims.ExpiresAt())
}

// ExpiringSoon reports whether the token is still valid but will expire
// within threshold. A threshold <= 0 uses DefaultExpiryThreshold. Expired or
// undecodable tokens are not "expiring soon" — they are past saving and take
// the reactive 401 path instead.
func ExpiringSoon(raw string, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultExpiryThreshold
	}
	claims := Decode(raw)
	if claims == nil {
		return false
	}
	remaining := claims.ExpiresAt().Sub(NowTimeFunc())
	return remaining > 0 && remaining < threshold
}

// TimeRemaining returns the whole seconds until expiry, or -1 if the token
// is undecodable or already expired.
func TimeRemaining(raw string) int64 {
	claims := Decode(raw)
	if claims == nil {
		return -1
	}
	remaining := claims.ExpiresAt().Sub(NowTimeFunc())
	if remaining <= 0 {
		return -1
	}
	return int64(remaining.Seconds())
}
