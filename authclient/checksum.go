package authclient

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum computes the login checksum the backend validates: the hex SHA-256
// of providerUserID + password + secret concatenated in that order.
//
// The secret ships inside client configuration, so this is a compatibility
// handshake with the backend rather than a cryptographic proof — anyone with
// the client binary has the secret. The backend contract requires it, and
// replacing it (e.g. with a server-issued challenge) would change the wire
// contract, so it is reproduced as-is.
func Checksum(providerUserID, password, secret string) string {
	sum := sha256.Sum256([]byte(providerUserID + password + secret))
	return hex.EncodeToString(sum[:])
}
