package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

const lockPrefix = "docquery:lock:"

// ErrNotHeld is returned when extending a lock this instance does not
// hold, either because it expired or another worker owns it.
var ErrNotHeld = errors.New("lock not held by this instance")

// Lock is a Redis-backed DistributedLock. Each value carries its own
// owner token, so release and extend only affect locks this instance
// actually holds. The worker takes one lock per document, named
// "document:<id>", to keep re-vectorization runs from overlapping.
type Lock struct {
	client  *redis.Client
	ownerID string
}

// NewLock creates a lock instance with a fresh owner token.
func NewLock(client *redis.Client) *Lock {
	hostname, _ := os.Hostname()
	return &Lock{
		client:  client,
		ownerID: hostname + ":" + uuid.NewString(),
	}
}

func (l *Lock) key(name string) string {
	return lockPrefix + name
}

// Acquire takes the named lock for at most ttl. It reports false,
// without error, when another instance currently holds it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// The check-then-delete must be atomic or a lock that expired and was
// re-acquired by another worker could be deleted out from under it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release drops the named lock if this instance holds it. Releasing a
// lock that expired or was never acquired is not an error.
func (l *Lock) Release(ctx context.Context, name string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key(name)}, l.ownerID).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Extend resets the TTL of a lock this instance holds. Long-running
// vectorizations call this to outlive the initial TTL without letting
// a crashed worker block the document forever.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	result, err := extendScript.Run(ctx, l.client, []string{l.key(name)}, l.ownerID, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if result.(int64) == 0 {
		return fmt.Errorf("extend lock %s: %w", name, ErrNotHeld)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID returns this instance's owner token, for logging.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
