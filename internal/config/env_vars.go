package config

import (
	"os"
	"path/filepath"
)

const (
	appNameVar = "APP_NAME"
	envVar     = "ENV"
)

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetDataFolder() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Lotus Storefront")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(envVar)
	if env == "" {
		return "DEV"
	}
	return env
}

// GetDataFolder returns where client state (the token file) lives.
func (EnvVars) GetDataFolder() string {
	if folder := os.Getenv("FOLDER"); folder != "" {
		return folder
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".storectl")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
