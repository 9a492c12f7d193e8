// Package cachetest backs cache stores with an in-process miniredis server.
package cachetest

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bigp7952/siggil-sub002/internal/cache"
)

// New returns a redis store talking to a miniredis server that lives as long
// as the test.
func New(t testing.TB) cache.Store {
	store, _ := NewWithServer(t)
	return store
}

// NewWithServer also returns the server, e.g. to fast-forward expiry.
func NewWithServer(t testing.TB) (cache.Store, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedis(client, time.Minute), srv
}
