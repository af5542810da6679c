package config

import (
	"github.com/redis/go-redis/v9"
)

// SetRedisClientForTest sets the Redis client for testing purposes.
// This function is only available for testing and should not be used in production code.
func SetRedisClientForTest(client *redis.Client) {
	redisMu.Lock()
	defer redisMu.Unlock()
	redisClient = client
}

// SetRedisClientForTesting is an alias kept for older tests.
func SetRedisClientForTesting(client *redis.Client) {
	SetRedisClientForTest(client)
}

// ResetRedisClientForTest resets the Redis client singleton for testing purposes.
// This function is only available for testing and should not be used in production code.
func ResetRedisClientForTest() {
	SetRedisClientForTest(nil)
}
