package store

import (
	"fmt"
	"strings"

	"marketplace-bulk-api/internal/config"
)

// Open creates the backend named by cfg.Type.
func Open(cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(RedisConfig{
			Addr:     cfg.RedisAddress(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "mysql":
		return NewMySQLStore(cfg.MySQLDSN())
	case "postgres", "postgresql":
		return NewPostgresStore(cfg.PostgresDSN())
	case "mongodb", "mongo":
		return NewMongoStore(MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	case "sqlite", "":
		return NewSQLiteStore(cfg.Path)
	}
	return nil, fmt.Errorf("unsupported store type %q", cfg.Type)
}
