// Package redis connects the shared redis client used for the
// resolver's request cache.
package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

const (
	connectAttempts = 5
	connectTimeout  = 3 * time.Second
)

// Connect dials redis with a short retry loop so a container that
// comes up alongside the service has time to accept connections.
func Connect(cfg Config) (*redislib.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redislib.NewClient(&redislib.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		lastErr = client.Ping(ctx).Err()
		cancel()

		if lastErr == nil {
			log.WithField("addr", addr).Debug("redis connected")
			return client, nil
		}
		if attempt < connectAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("redis connect %s: %w", addr, lastErr)
}
