// Package redis connects to an optional Redis server used as the shared
// backend for rate limiting.
//
// Configuration is read from the environment through the Config struct:
//
//	REDIS_URL              connection URL, empty disables Redis
//	REDIS_RETRY_ATTEMPTS   ping attempts before giving up (default 3)
//	REDIS_RETRY_INTERVAL   pause between attempts (default 2s)
//	REDIS_CONNECT_TIMEOUT  overall deadline (default 10s)
//
// Usage:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	probe := redis.Healthcheck(client)
//
// Errors are sentinel values joined with the underlying go-redis error, so
// errors.Is works against ErrRedisNotReady and friends.
package redis
