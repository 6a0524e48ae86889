package prefstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis implements Driver on a Redis client. Keys live under the
// "prefstore:<name>:" namespace and every mutation publishes the changed
// key on the "prefstore:<name>" channel, so listeners also observe writes
// made by other processes sharing the store.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	channel string
}

// NewRedis creates a Redis-backed Driver for the named store. The client's
// lifecycle stays with the caller.
func NewRedis(client redis.UniversalClient, name string) *Redis {
	return &Redis{
		client:  client,
		prefix:  "prefstore:" + name + ":",
		channel: "prefstore:" + name,
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, key).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	n, err := r.client.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return r.client.Publish(ctx, r.channel, key).Err()
}

func (r *Redis) Contains(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	return n > 0, err
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	return keys, iter.Err()
}

func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := r.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) Listen(fn func(key string)) (stop func(), err error) {
	sub := r.client.Subscribe(context.Background(), r.channel)
	if _, err := sub.Receive(context.Background()); err != nil {
		_ = sub.Close()
		return nil, err
	}

	msgs := sub.Channel()
	go func() {
		for msg := range msgs {
			fn(msg.Payload)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { _ = sub.Close() })
	}, nil
}

var _ Driver = (*Redis)(nil)
