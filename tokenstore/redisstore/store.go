// Package redisstore backs the token store with Redis so several processes
// (or hosts) share one session, with pub/sub carrying the change
// notifications that browser storage events carry between tabs.
package redisstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/lotusshop/go-storefront-session/tokenstore"
)

const (
	accessTokenKey  = "accessToken"
	refreshTokenKey = "refreshToken"
	changedChannel  = "tokens.changed"
)

// Store persists the token pair under a key prefix and publishes a
// notification on every mutation.
type Store struct {
	client *redis.Client
	prefix string
}

var _ tokenstore.Store = (*Store)(nil)

// New creates a Redis-backed store. prefix namespaces the keys, typically
// per application or per user account.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Save writes both tokens in one transaction, then publishes the change.
func (s *Store) Save(ctx context.Context, pair tokenstore.Pair) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(accessTokenKey), pair.AccessToken, 0)
		pipe.Set(ctx, s.key(refreshTokenKey), pair.RefreshToken, 0)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[redisstore.Save] tx pipeline")
	}
	return s.publish(ctx)
}

// Clear removes both tokens, then publishes the change.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(accessTokenKey), s.key(refreshTokenKey)).Err(); err != nil {
		return errors.Wrap(err, "[redisstore.Clear] del")
	}
	return s.publish(ctx)
}

func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, accessTokenKey)
}

func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, refreshTokenKey)
}

// Watch subscribes to the change channel and delivers the current pair on
// every notification. The subscription ends when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan tokenstore.Pair, error) {
	sub := s.client.Subscribe(ctx, s.key(changedChannel))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Wrap(err, "[redisstore.Watch] subscribe")
	}

	ch := make(chan tokenstore.Pair, 8)
	go func() {
		defer close(ch)
		defer sub.Close()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				pair, err := tokenstore.Load(ctx, s)
				if err != nil {
					continue
				}
				select {
				case ch <- pair:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "[redisstore.get] %s", key)
	}
	return value, nil
}

func (s *Store) publish(ctx context.Context) error {
	if err := s.client.Publish(ctx, s.key(changedChannel), "changed").Err(); err != nil {
		return errors.Wrap(err, "[redisstore.publish]")
	}
	return nil
}

func (s *Store) key(suffix string) string {
	return s.prefix + ":" + suffix
}
