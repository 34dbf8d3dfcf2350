package store

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/CAR235/ConnexaLabPDF/config"
)

// Driver selects the record store backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
)

// NewStore builds the configured record store. The server and worker
// share one instance per process.
func NewStore(driver Driver) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		cfg := config.GetRedisConfig()
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Addr,
			DB:   cfg.DB,
		})
		return NewRedisStore(client), nil
	case DriverPostgres:
		return NewPostgresStore(config.GetStorageConfig().PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
