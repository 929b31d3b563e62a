package config

import "time"

// SessionConfig tunes the session controller and its stores.
type SessionConfig interface {
	GetRefreshThreshold() time.Duration
	GetCheckInterval() time.Duration
	GetLoginPath() string
	GetRedisAddr() string
}

type Session struct{}

var _ SessionConfig = Session{}

// GetRefreshThreshold is how close to expiry the proactive refresh kicks in.
func (Session) GetRefreshThreshold() time.Duration {
	return getDuration("SESSION_REFRESH_THRESHOLD", 5*time.Minute)
}

// GetCheckInterval is how often the controller inspects the stored token.
func (Session) GetCheckInterval() time.Duration {
	return getDuration("SESSION_CHECK_INTERVAL", time.Minute)
}

// GetLoginPath is where the route guard and logout send anonymous viewers.
func (Session) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/login")
}

// GetRedisAddr enables the Redis token store when non-empty; otherwise the
// file store is used.
func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}
