package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-booking/internal/logger"
)

const keyPrefix = "ticket_lock:"

var ErrLockTimeout = errors.New("timed out waiting for ticket lock")

// releaseScript deletes the key only while it still belongs to the owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	// RetryInterval is the pause between SetNX attempts while a lock is held
	// by another request.
	RetryInterval time.Duration
	Logger        *logger.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		Client:        client,
		TTL:           ttl,
		RetryInterval: 25 * time.Millisecond,
		Logger:        log,
	}
}

func lockKey(code string) string {
	return keyPrefix + code
}

// IsTicketLocked reports whether another request currently holds the ticket.
func (r *Redis) IsTicketLocked(ctx context.Context, code string) (bool, error) {
	_, err := r.Client.Get(ctx, lockKey(code)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LockTicket tries once to take the ticket for owner.
func (r *Redis) LockTicket(ctx context.Context, code, owner string) (bool, error) {
	return r.Client.SetNX(ctx, lockKey(code), owner, r.TTL).Result()
}

// UnlockTicket releases the ticket if owner still holds it.
func (r *Redis) UnlockTicket(ctx context.Context, code, owner string) error {
	return releaseScript.Run(ctx, r.Client, []string{lockKey(code)}, owner).Err()
}

// LockTickets takes every code or none, without waiting.
func (r *Redis) LockTickets(ctx context.Context, codes []string, owner string) (bool, error) {
	locked := make([]string, 0, len(codes))
	for _, code := range codes {
		ok, err := r.LockTicket(ctx, code, owner)
		if err != nil || !ok {
			for _, l := range locked {
				_ = r.UnlockTicket(ctx, l, owner)
			}
			return false, err
		}
		locked = append(locked, code)
	}
	return true, nil
}

// UnlockTickets releases every code and returns the first failure.
func (r *Redis) UnlockTickets(ctx context.Context, codes []string, owner string) error {
	var firstErr error
	for _, code := range codes {
		if err := r.UnlockTicket(ctx, code, owner); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Acquire takes the codes one by one in the given order, waiting on each
// until it frees up. It gives up after TTL or when ctx ends, releasing what
// it already holds.
func (r *Redis) Acquire(ctx context.Context, codes []string, owner string) error {
	deadline := time.Now().Add(r.TTL)
	locked := make([]string, 0, len(codes))

	release := func() {
		if err := r.UnlockTickets(context.Background(), locked, owner); err != nil {
			r.Logger.Warn("REDIS", fmt.Sprintf("Failed to roll back ticket locks %v: %v", locked, err))
		}
	}

	for _, code := range codes {
		for {
			ok, err := r.LockTicket(ctx, code, owner)
			if err != nil {
				release()
				return fmt.Errorf("lock ticket %s: %w", code, err)
			}
			if ok {
				locked = append(locked, code)
				break
			}
			if time.Now().After(deadline) {
				release()
				return fmt.Errorf("%w: %s", ErrLockTimeout, code)
			}
			select {
			case <-ctx.Done():
				release()
				return ctx.Err()
			case <-time.After(r.RetryInterval):
			}
		}
	}

	r.Logger.Debug("REDIS", fmt.Sprintf("Locked tickets %v for %s", codes, owner))
	return nil
}
