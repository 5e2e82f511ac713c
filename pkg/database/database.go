package database

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects to Postgres with bounded pool settings. TLS is
// required in production; local and test databases speak plaintext.
func NewPool(dsn string, production bool) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MaxConnIdleTime = 20 * time.Second
	config.ConnConfig.ConnectTimeout = 10 * time.Second
	if production && config.ConnConfig.TLSConfig == nil {
		config.ConnConfig.TLSConfig = &tls.Config{
			ServerName: config.ConnConfig.Host,
			MinVersion: tls.VersionTLS12,
		}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Database connected successfully")
	return pool, nil
}
