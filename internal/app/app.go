package app

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"go-workforce/internal/shared/connection"
)

// Infra holds the shared infrastructure handles every entrypoint needs.
type Infra struct {
	GormDB *gorm.DB
	SQLDB  *sql.DB
	Redis  *redis.Client
}

func ConnectInfra() (*Infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return nil, err
	}

	return &Infra{GormDB: gormDB, SQLDB: sqlDB, Redis: redisClient}, nil
}

func (i *Infra) Close() {
	if i.SQLDB != nil {
		i.SQLDB.Close()
	}
	if i.Redis != nil {
		i.Redis.Close()
	}
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
