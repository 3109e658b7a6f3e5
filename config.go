package cleanroom

import (
	"errors"
	"fmt"
	"os"

	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/pkg/storage"
	"github.com/absmach/cleanroom/query"
	"github.com/pelletier/go-toml"
)

type Config struct {
	LogLevel string         `env:"DCR_LOG_LEVEL" envDefault:"info" toml:"log_level"`
	Remote   sdk.Config     `toml:"remote"`
	Store    storage.Config `toml:"store"`
	Cache    query.Policy   `toml:"cache"`
	Upload   UploadConfig   `toml:"upload"`
}

type UploadConfig struct {
	// Rate is the number of pushes per second PushAll may issue. Zero disables pacing.
	Rate  float64 `env:"DCR_UPLOAD_RATE"  envDefault:"0" toml:"rate"`
	Burst int     `env:"DCR_UPLOAD_BURST" envDefault:"1" toml:"burst"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Remote: sdk.Config{
			URL:             sdk.DefURL,
			Timeout:         sdk.DefTimeout,
			TLSVerification: true,
		},
		Store: storage.Config{
			Backend: storage.BackendBadger,
			Dir:     "./data",
		},
		Cache: query.DefaultPolicy(),
		Upload: UploadConfig{
			Burst: 1,
		},
	}
}

// LoadConfig reads a TOML file. Keys absent from the file keep their
// DefaultConfig values and a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	def := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &def, nil
	case err != nil:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Remote.Timeout < 0 {
		return nil, fmt.Errorf("invalid remote timeout %s", cfg.Remote.Timeout)
	}

	cfg.LogLevel = or(cfg.LogLevel, def.LogLevel)
	cfg.Remote.URL = or(cfg.Remote.URL, def.Remote.URL)
	cfg.Remote.Timeout = or(cfg.Remote.Timeout, def.Remote.Timeout)
	if !tree.Has("remote.tls_verification") {
		cfg.Remote.TLSVerification = def.Remote.TLSVerification
	}
	cfg.Store.Backend = or(cfg.Store.Backend, def.Store.Backend)
	cfg.Store.Dir = or(cfg.Store.Dir, def.Store.Dir)
	if !tree.Has("cache.retries") {
		cfg.Cache.Retries = def.Cache.Retries
	}
	if !tree.Has("cache.mutation_retries") {
		cfg.Cache.MutationRetries = def.Cache.MutationRetries
	}
	if !tree.Has("cache.stale_time") {
		cfg.Cache.StaleTime = def.Cache.StaleTime
	}
	cfg.Cache.InitialBackoff = or(cfg.Cache.InitialBackoff, def.Cache.InitialBackoff)
	cfg.Cache.MaxBackoff = or(cfg.Cache.MaxBackoff, def.Cache.MaxBackoff)
	cfg.Upload.Burst = or(cfg.Upload.Burst, def.Upload.Burst)

	return &cfg, nil
}

func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}

	return v
}
