// Package redis caches derived account balances in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SscSPs/estate_ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
)

const namespace = "estate_ledger:balance"

// BalanceCache stores AccountBalance values as JSON under a per-account key.
type BalanceCache struct {
	client redis.UniversalClient // works with both single and cluster
	ttl    time.Duration
}

var _ portsrepo.BalanceCache = (*BalanceCache)(nil)

// NewBalanceCache wraps an existing client. A zero ttl keeps entries until invalidated.
func NewBalanceCache(client redis.UniversalClient, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

// NewClient opens a single-node client and checks it answers.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

// Both keys of an account share a hash slot so WATCH and MULTI work on a cluster.
func key(accountID string) string {
	return namespace + ":{" + accountID + "}"
}

func versionKey(accountID string) string {
	return namespace + ":{" + accountID + "}:version"
}

func (c *BalanceCache) Get(ctx context.Context, accountID string) (*domain.AccountBalance, bool, error) {
	raw, err := c.client.Get(ctx, key(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("balance cache get %s: %w", accountID, err)
	}
	var balance domain.AccountBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return nil, false, fmt.Errorf("balance cache decode %s: %w", accountID, err)
	}
	return &balance, true, nil
}

// Version returns the account's invalidation counter, 0 when never invalidated.
func (c *BalanceCache) Version(ctx context.Context, accountID string) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(accountID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance cache version %s: %w", accountID, err)
	}
	return version, nil
}

// Set stores balance under WATCH on the version key. A version that moved
// since it was read, before or during the transaction, drops the write.
func (c *BalanceCache) Set(ctx context.Context, balance domain.AccountBalance, version int64) error {
	raw, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("balance cache encode %s: %w", balance.AccountID, err)
	}
	vKey := versionKey(balance.AccountID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(balance.AccountID), raw, c.ttl)
			return nil
		})
		return err
	}, vKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("balance cache set %s: %w", balance.AccountID, err)
	}
}

var errStaleVersion = errors.New("balance version changed")

// Invalidate bumps each account's version and drops its cached balance,
// one MULTI per account.
func (c *BalanceCache) Invalidate(ctx context.Context, accountIDs ...string) error {
	var errs []error
	for _, id := range accountIDs {
		_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, versionKey(id))
			pipe.Del(ctx, key(id))
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("balance cache invalidate %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
