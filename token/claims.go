// Package token inspects the access token issued by the storefront backend.
// The payload segment is decoded without verifying the signature: the claims
// feed display state and expiry scheduling only, never an authorization
// decision. Only the backend's acceptance of the bearer token is
// authoritative.
package token

import (
	"time"

	"github.com/lotusshop/go-storefront-session/internal/utils"
)

// Claims is the identity payload embedded in an access token.
type Claims struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Exp         int64    `json:"exp"` // Expiry, epoch seconds
}

// ExpiresAt returns the expiry instant.
func (c *Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// HasRole reports whether the decoded roles include role.
func (c *Claims) HasRole(role string) bool {
	return utils.Contains(c.Roles, role)
}

// HasPermission reports whether the decoded permissions include perm.
func (c *Claims) HasPermission(perm string) bool {
	return utils.Contains(c.Permissions, perm)
}
