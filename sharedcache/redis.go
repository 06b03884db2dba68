package sharedcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"train-reservation/pricing"
)

// DefaultExpiration bounds how long a replica can serve a record it did not compute
const DefaultExpiration = 24 * time.Hour

// Connect opens a Redis client and checks it answers
func Connect(ctx context.Context, address, password string, database int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", address, err)
	}

	log.Info().Str("address", address).Int("database", database).Msg("Connected to redis")
	return client, nil
}

// RedisMirror shares consistency records between replicas through Redis.
// Records are stored as JSON and tagged with their train so a schedule change drops them all at once.
type RedisMirror struct {
	Cache *cache.Cache[string]

	client     *redis.Client
	expiration time.Duration
}

// NewRedisMirror builds a mirror on an open client
func NewRedisMirror(client *redis.Client, expiration time.Duration) *RedisMirror {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &RedisMirror{
		Cache:      cache.New[string](redisStore),
		client:     client,
		expiration: expiration,
	}
}

// Publish stores a record; an existing entry for the leg is left in place.
// The key is claimed with SETNX so only the first replica writes it, the winner then registers the train tag.
func (m *RedisMirror) Publish(ctx context.Context, record pricing.ConsistencyRecord) error {
	key := recordKey(record.TrainID, record.OriginStationID, record.DestinationStationID)

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return err
	}

	claimed, err := m.client.SetNX(ctx, key, string(recordJSON), m.expiration).Result()
	if err != nil {
		return fmt.Errorf("failed to claim shared record: %w", err)
	}
	if !claimed {
		return nil
	}

	return m.Cache.Set(ctx, key, string(recordJSON), store.WithTags([]string{trainTag(record.TrainID)}))
}

// Lookup returns the shared record of a leg, if any replica published one
func (m *RedisMirror) Lookup(ctx context.Context, trainID, originID, destinationID int) (pricing.ConsistencyRecord, bool, error) {
	value, err := m.Cache.Get(ctx, recordKey(trainID, originID, destinationID))
	if err != nil {
		if errors.Is(err, store.NotFound{}) {
			return pricing.ConsistencyRecord{}, false, nil
		}
		return pricing.ConsistencyRecord{}, false, err
	}

	var record pricing.ConsistencyRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return pricing.ConsistencyRecord{}, false, fmt.Errorf("corrupt shared record: %w", err)
	}
	return record, true, nil
}

// Invalidate drops every shared record of a train
func (m *RedisMirror) Invalidate(ctx context.Context, trainID int) error {
	return m.Cache.Invalidate(ctx, store.WithInvalidateTags([]string{trainTag(trainID)}))
}

func recordKey(trainID, originID, destinationID int) string {
	return fmt.Sprintf("consistency:%d:%d:%d", trainID, originID, destinationID)
}

func trainTag(trainID int) string {
	return fmt.Sprintf("train:%d", trainID)
}
