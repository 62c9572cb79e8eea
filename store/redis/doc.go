// Package redis implements store.Store using go-redis. Suitable for
// deployments where several processes share one sync queue. Jobs and
// drop-log entries are stored as Redis Hashes, with Sets tracking IDs for
// enumeration; UpdateJob runs its read-transform-write cycle inside a
// WATCH-guarded optimistic transaction.
//
// The caller owns the client lifecycle -- redis never closes it. Pass the
// client through the constructor:
//
//	import (
//	    goredis "github.com/redis/go-redis/v9"
//	    "github.com/xraph/syncengine/store/redis"
//	)
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	store := redis.New(client)
//	if err := store.Ping(ctx); err != nil { ... }
package redis
