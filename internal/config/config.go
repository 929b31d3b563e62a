package config

type Config interface {
	EnvConfig
	BackendConfig
	SessionConfig
}

type mainConfig struct {
	EnvVars
	Backend
	Session
}

func New() Config {
	return mainConfig{}
}
