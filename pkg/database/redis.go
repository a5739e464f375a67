package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Wetende/crossview-sub004/internal/config"
)

const (
	RedisModeSingle   = "single"
	RedisModeSentinel = "sentinel"
	RedisModeCluster  = "cluster"

	redisPingTimeout = 5 * time.Second
)

// RedisOptions собирает опции клиента из конфигурации и возвращает нормализованный режим.
// Адреса очищаются от пробелов и пустых элементов (REDIS_ADDRS приходит строкой через запятую).
// В режиме single допустим ровно один адрес: лишние адреса считаются ошибкой конфигурации.
func RedisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	addrs := cleanAddrs(cfg.Addrs)
	if len(addrs) == 0 {
		// addr учитывается только при пустом addrs
		addrs = cleanAddrs([]string{cfg.Addr})
	}
	if len(addrs) == 0 {
		return nil, "", fmt.Errorf("redis configuration error: addrs or addr must be provided")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = RedisModeSingle
	}

	options := &redis.UniversalOptions{
		Addrs:      addrs,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.MinRetryBackoff != 0 {
		options.MinRetryBackoff = time.Duration(cfg.MinRetryBackoff) * time.Millisecond
	}
	if cfg.MaxRetryBackoff != 0 {
		options.MaxRetryBackoff = time.Duration(cfg.MaxRetryBackoff) * time.Millisecond
	}

	switch mode {
	case RedisModeSingle:
		if len(addrs) > 1 {
			return nil, "", fmt.Errorf("redis single mode accepts one address, got %d (%v); use mode cluster or sentinel", len(addrs), addrs)
		}
	case RedisModeSentinel:
		if cfg.MasterName == "" {
			return nil, "", fmt.Errorf("redis sentinel mode requires master_name")
		}
		options.MasterName = cfg.MasterName
	case RedisModeCluster:
		if cfg.DB != 0 {
			return nil, "", fmt.Errorf("redis cluster mode supports only db 0, got %d", cfg.DB)
		}
		if len(addrs) < 2 {
			log.Printf("[Redis] WARNING: режим cluster с одним адресом %v", addrs)
		}
	default:
		return nil, "", fmt.Errorf("unsupported redis mode: %s", cfg.Mode)
	}
	return options, mode, nil
}

func cleanAddrs(in []string) []string {
	var out []string
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// NewUniversalRedisClient создает клиент Redis в режиме single, sentinel или cluster и проверяет подключение.
// Режим задаётся явно: клиент кластера создаётся и для одного адреса-точки входа.
func NewUniversalRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	options, mode, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch mode {
	case RedisModeSentinel:
		client = redis.NewFailoverClient(options.Failover())
	case RedisModeCluster:
		client = redis.NewClusterClient(options.Cluster())
	default:
		client = redis.NewClient(options.Simple())
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (mode: %s, addrs: %v): %w", mode, options.Addrs, err)
	}
	log.Printf("[Redis] Подключение установлено (mode: %s, addrs: %v)", mode, options.Addrs)
	return client, nil
}
