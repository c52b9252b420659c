// Package redisq enqueues notifications on a Redis list for the delivery worker.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/redis/go-redis/v9"
)

type Queue struct {
	client redis.Cmdable
	key    string
}

func NewQueue(client redis.Cmdable, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Connect parses a redis:// URL and pings the server before returning the queue
func Connect(ctx context.Context, url, key string) (*Queue, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewQueue(client, key), client, nil
}

// Notify pushes the JSON-encoded notification to the tail of the list
func (q *Queue) Notify(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key, data).Err()
}

var _ interfaces.Notifier = (*Queue)(nil)
