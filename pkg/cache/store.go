package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the few Redis patterns the services share. A Store built on a
// nil client is inert: reservations always succeed and reads always miss.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) enabled() bool {
	return s != nil && s.client != nil
}

func FreePostKey(userID string) string {
	return "free_post:" + userID
}

func ListingKey(listingID string) string {
	return "listing:" + listingID
}

func ViewKey(listingID, viewerID string) string {
	return fmt.Sprintf("listing_view:%s:%s", listingID, viewerID)
}

// Reserve claims key for ttl. It reports false when someone already holds it.
func (s *Store) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !s.enabled() {
		return true, nil
	}
	ok, err := s.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", key, err)
	}
	return ok, nil
}

// TTL returns how long key stays reserved, zero when it is free.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	if !s.enabled() {
		return 0, nil
	}
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if !s.enabled() || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// GetJSON decodes key into dst and reports whether it was present.
func (s *Store) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	if !s.enabled() {
		return false, nil
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// ReviewChannel carries moderation updates to connected moderators.
const ReviewChannel = "moderation:reviews"

var ErrDisabled = errors.New("redis is not configured")

// PublishJSON sends value to channel subscribers. It is a no-op without Redis.
func (s *Store) PublishJSON(ctx context.Context, channel string, value interface{}) error {
	if !s.enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", channel, err)
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe listens on channel until ctx is done or the returned close func is called.
func (s *Store) Subscribe(ctx context.Context, channel string) (<-chan *redis.Message, func() error, error) {
	if !s.enabled() {
		return nil, nil, ErrDisabled
	}
	pubsub := s.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return pubsub.Channel(), pubsub.Close, nil
}
