package config

import "time"

// BackendConfig describes the remote storefront API this client talks to.
type BackendConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetUploadTimeout() time.Duration
	GetProvider() string
	GetLanguage() string
	GetChecksumSecret() string
}

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBaseURL returns the backend API root, e.g. "https://api.lotusshop.vn".
func (Backend) GetBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:8080")
}

func (Backend) GetRequestTimeout() time.Duration {
	return getDuration("API_TIMEOUT", 10*time.Second)
}

// GetUploadTimeout is the longer budget used for file uploads.
func (Backend) GetUploadTimeout() time.Duration {
	return getDuration("API_UPLOAD_TIMEOUT", 30*time.Second)
}

// GetProvider is the identity provider tag sent with login and register
// requests ("PHONE" or "EMAIL").
func (Backend) GetProvider() string {
	return GetEnv("AUTH_PROVIDER", "PHONE")
}

func (Backend) GetLanguage() string {
	return GetEnv("AUTH_LANGUAGE", "vi")
}

// GetChecksumSecret is the shared secret mixed into the login checksum. It
// ships in client configuration, so it is not a real secret; the backend
// contract requires it regardless. See the README for why this is kept as-is.
func (Backend) GetChecksumSecret() string {
	return GetEnv("AUTH_CHECKSUM_SECRET", "")
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
