package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/skillnavigator/roadmap-service/internal/logging"
	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

//go:embed decrement.lua
var decrementLuaScript string

var decrementScript = redis.NewScript(decrementLuaScript)

const creditKeyPrefix = "credits:" // {prefix}credits:{user_id}

// RedisLedger keeps balances as integer keys. Redis runs the decrement
// script atomically, which serialises concurrent settlements per key.
type RedisLedger struct {
	client *redis.Client
	prefix string
}

func NewRedisLedger(client *redis.Client, prefix string) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix}
}

func (r *RedisLedger) Check(ctx context.Context, userID string) bool {
	logger := logging.New(ctx).With("user_id", userID)
	key := r.key(userID)

	credits, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := r.client.SetNX(ctx, key, 0, 0).Err(); err != nil {
			logger.LogError("ledger_check_create", err)
		}
		return false
	}
	if err != nil {
		logger.LogError("ledger_check", err)
		return false
	}
	return credits >= 1
}

func (r *RedisLedger) Decrement(ctx context.Context, userID string) (int64, error) {
	res, err := decrementScript.Run(ctx, r.client, []string{r.key(userID)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: redis decrement: %w", domain.ErrLedgerUnavailable, err)
	}
	if res < 0 {
		return 0, domain.ErrInsufficientCredits
	}
	return res, nil
}

func (r *RedisLedger) key(userID string) string {
	return r.prefix + creditKeyPrefix + userID
}
