package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/lotusshop/go-storefront-session/authclient"
	"github.com/lotusshop/go-storefront-session/internal/config"
	"github.com/lotusshop/go-storefront-session/sessions"
	"github.com/lotusshop/go-storefront-session/tokenstore"
	"github.com/lotusshop/go-storefront-session/tokenstore/redisstore"
	"github.com/lotusshop/go-storefront-session/transport"
)

// fileConfig is the optional YAML config file. Anything left empty falls
// back to environment configuration.
type fileConfig struct {
	BaseURL        string `yaml:"base_url"`
	Provider       string `yaml:"provider"`
	Language       string `yaml:"language"`
	ChecksumSecret string `yaml:"checksum_secret"`
	LoginPath      string `yaml:"login_path"`
	RedisAddr      string `yaml:"redis_addr"`
}

// app wires the full stack: store, auth client, refresh coordinator,
// authenticated HTTP client and session controller.
type app struct {
	cfg         config.Config
	file        fileConfig
	store       tokenstore.Store
	auth        *authclient.Client
	coordinator *transport.Coordinator
	controller  *sessions.Controller
}

func newApp(configPath string) (*app, error) {
	a := &app{cfg: config.New()}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &a.file); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}

	if addr := a.redisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		a.store = redisstore.New(client, "storectl")
	} else {
		a.store = tokenstore.NewFile(filepath.Join(a.cfg.GetDataFolder(), "tokens.json"))
	}

	a.auth = authclient.New(a.baseURL(),
		authclient.WithProvider(a.provider()),
		authclient.WithLanguage(a.language()),
		authclient.WithChecksumSecret(a.checksumSecret()),
		authclient.WithLogger(log.Logger),
	)

	// One coordinator serves both the controller's proactive timer and the
	// authenticated transport, so concurrent refresh triggers collapse into
	// a single backend call.
	a.coordinator = transport.NewCoordinator(a.store, a.auth,
		transport.WithCoordinatorLogger(log.Logger),
	)
	a.controller = sessions.New(a.store, a.auth, a.coordinator,
		sessions.WithLogger(log.Logger),
		sessions.WithRefreshThreshold(a.cfg.GetRefreshThreshold()),
		sessions.WithCheckInterval(a.cfg.GetCheckInterval()),
	)
	return a, nil
}

func (a *app) baseURL() string {
	if a.file.BaseURL != "" {
		return a.file.BaseURL
	}
	return a.cfg.GetBaseURL()
}

func (a *app) provider() string {
	if a.file.Provider != "" {
		return a.file.Provider
	}
	return a.cfg.GetProvider()
}

func (a *app) language() string {
	if a.file.Language != "" {
		return a.file.Language
	}
	return a.cfg.GetLanguage()
}

func (a *app) checksumSecret() string {
	if a.file.ChecksumSecret != "" {
		return a.file.ChecksumSecret
	}
	return a.cfg.GetChecksumSecret()
}

func (a *app) loginPath() string {
	if a.file.LoginPath != "" {
		return a.file.LoginPath
	}
	return a.cfg.GetLoginPath()
}

func (a *app) redisAddr() string {
	if a.file.RedisAddr != "" {
		return a.file.RedisAddr
	}
	return a.cfg.GetRedisAddr()
}
