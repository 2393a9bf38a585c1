package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// Redis is a Cache on top of a radix connection pool.
type Redis struct {
	client radix.Client
}

// NewRedis dials a pool of size connections to addr.
func NewRedis(addr string, size int) (*Redis, error) {
	if size <= 0 {
		size = 10
	}
	pool, err := radix.NewPool("tcp", addr, size)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Redis{client: pool}, nil
}

func (r *Redis) Get(_ context.Context, key string, dst any) (bool, error) {
	var raw []byte
	mn := radix.MaybeNil{Rcv: &raw}
	if err := r.client.Do(radix.Cmd(&mn, "GET", key)); err != nil {
		return false, err
	}
	if mn.Nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	secs := int(ttl / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return r.client.Do(radix.FlatCmd(nil, "SET", key, raw, "EX", secs))
}

func (r *Redis) Invalidate(_ context.Context, prefix string) error {
	scanner := radix.NewScanner(r.client, radix.ScanOpts{Command: "SCAN", Pattern: prefix + "*", Count: 100})
	var (
		key  string
		keys []string
	)
	for scanner.Next(&key) {
		keys = append(keys, key)
	}
	if err := scanner.Close(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Do(radix.Cmd(nil, "DEL", keys...))
}

func (r *Redis) Close() error {
	return r.client.Close()
}
