package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	notificationKeyPrefix = "bugboard:notify:"    // bugboard:notify:{scope}:{id}
	scopeIndexPrefix      = "bugboard:notify-ix:" // set of ids per scope
)

// RedisStore keeps each notification in its own key with PX set to its
// duration, so Redis does the dismissing. Loading notifications get no TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) key(scope, id string) string { return notificationKeyPrefix + scope + ":" + id }

func (r *RedisStore) indexKey(scope string) string { return scopeIndexPrefix + scope }

func (r *RedisStore) Add(ctx context.Context, scope string, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(scope, n.ID), data, n.Duration)
	pipe.SAdd(ctx, r.indexKey(scope), n.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, scope, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(scope, id))
	pipe.SRem(ctx, r.indexKey(scope), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove notification: %w", err)
	}
	return nil
}

// List reads every indexed id and drops index entries whose key expired.
func (r *RedisStore) List(ctx context.Context, scope string) ([]Notification, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(scope)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notification ids: %w", err)
	}
	if len(ids) == 0 {
		return []Notification{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(scope, id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	out := make([]Notification, 0, len(vals))
	var stale []interface{}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var n Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			stale = append(stale, ids[i])
			continue
		}
		out = append(out, n)
	}
	if len(stale) > 0 {
		if err := r.client.SRem(ctx, r.indexKey(scope), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune notification index: %w", err)
		}
	}
	sortNotifications(out)
	return out, nil
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
