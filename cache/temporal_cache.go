package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const temporalKey = "topics:temporal"

// NewClient verbindet sich mit Redis und prüft die Verbindung per Ping.
func NewClient(ctx context.Context, addr, password string, db int) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}
	return client, nil
}

// TemporalCache hält das fürs Charting umgeformte Temporal-Ergebnis kurz im
// Speicher, damit wiederholte Abfragen nicht jedes Mal pivotieren müssen.
type TemporalCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

// NewTemporalCache erstellt den Cache mit der gegebenen TTL.
func NewTemporalCache(client *redisv9.Client, ttl time.Duration) *TemporalCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &TemporalCache{client: client, ttl: ttl}
}

// Get liest das gecachte Pivot-Ergebnis. Zweiter Rückgabewert: Treffer ja/nein.
func (c *TemporalCache) Get(ctx context.Context) ([]map[string]interface{}, bool, error) {
	raw, err := c.client.Get(ctx, temporalKey).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get temporal failed: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached temporal failed: %w", err)
	}
	return rows, true, nil
}

// Set schreibt das Pivot-Ergebnis mit TTL.
func (c *TemporalCache) Set(ctx context.Context, rows []map[string]interface{}) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal temporal cache failed: %w", err)
	}
	if err := c.client.Set(ctx, temporalKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set temporal failed: %w", err)
	}
	return nil
}

// Invalidate wirft das gecachte Ergebnis weg (nach einem Trainingslauf).
func (c *TemporalCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, temporalKey).Err(); err != nil {
		return fmt.Errorf("redis delete temporal failed: %w", err)
	}
	return nil
}
