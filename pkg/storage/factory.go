package storage

import "fmt"

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendBolt   = "bolt"
)

type Config struct {
	Backend string `env:"DCR_STORE_BACKEND" envDefault:"badger" toml:"backend"`
	Dir     string `env:"DCR_STORE_DIR"     envDefault:"./data"  toml:"dir"`
}

func New(cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewInMemoryStorage(), nil
	case BackendBadger:
		return NewBadgerStorage(cfg.Dir)
	case BackendBolt:
		return NewBoltStorage(cfg.Dir)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
