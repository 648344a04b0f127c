// Copyright 2024-2026 Aiku AI

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dev-launchers/Slack-Message-Exchange/pkg/metrics"
)

// DefaultKeyPrefix namespaces every key the relay reads.
const DefaultKeyPrefix = "slack-relay:"

// RedisStore reads channel mappings and user tables from Redis.
//
// Key layout:
//
//	<prefix>channel:<channel id>          JSON {"webhook": "...", "channel": "..."}
//	<prefix>user:<directory>:<user id>    display name
type RedisStore struct {
	client *redis.Client
	prefix string
}

var (
	_ Registry  = (*RedisStore)(nil)
	_ UserTable = (*RedisStore)(nil)
)

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisStoreFromClient(client, prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) channelKey(channelID string) string {
	return r.prefix + "channel:" + channelID
}

func (r *RedisStore) userKey(directory, userID string) string {
	return r.prefix + "user:" + directory + ":" + userID
}

// Lookup implements Registry.
func (r *RedisStore) Lookup(ctx context.Context, channelID string) (m ChannelMapping, found bool, err error) {
	defer metrics.ObserveUpstream("registry.lookup", time.Now(), &err)

	raw, err := r.client.Get(ctx, r.channelKey(channelID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ChannelMapping{}, false, nil
	} else if err != nil {
		return ChannelMapping{}, false, fmt.Errorf("failed to read channel mapping %s: %w", channelID, err)
	}

	if err := json.Unmarshal(raw, &m); err != nil {
		return ChannelMapping{}, false, fmt.Errorf("invalid channel mapping for %s: %w", channelID, err)
	}
	if m.IsZero() {
		return ChannelMapping{}, false, nil
	}
	return m, true, nil
}

// DisplayName implements UserTable.
func (r *RedisStore) DisplayName(ctx context.Context, directory, userID string) (name string, found bool, err error) {
	defer metrics.ObserveUpstream("identity.lookup", time.Now(), &err)

	name, err = r.client.Get(ctx, r.userKey(directory, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("failed to read display name for %s: %w", userID, err)
	}
	if name == "" {
		return "", false, nil
	}
	return name, true, nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
