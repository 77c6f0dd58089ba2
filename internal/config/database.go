package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

var retryDelay = 2 * time.Second

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Connect opens the Postgres pool and waits for it to answer a ping,
// retrying up to cfg.Retries times.
func Connect(ctx context.Context, cfg DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	log.Info("connecting to database", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	attempts := cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for counter := 1; counter <= attempts; counter++ {
		db, err := sql.Open("pgx", cfg.DSN())
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
			if err == nil {
				log.Info("database connected")
				return db, nil
			}
			_ = db.Close()
		}
		lastErr = err

		log.Warn("retrying connect database",
			zap.Int("attempt", counter),
			zap.Int("of", attempts),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed connect to database: %w", lastErr)
}
