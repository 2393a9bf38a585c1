// Package cache keeps short-lived JSON snapshots of catalog reads.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values under string keys.
type Cache interface {
	// Get decodes the value stored at key into dst and reports whether it was there.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	// Invalidate drops every key that starts with prefix.
	Invalidate(ctx context.Context, prefix string) error
}

// Nop never stores anything. It is used when no Redis is configured.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Nop) Invalidate(context.Context, string) error              { return nil }
