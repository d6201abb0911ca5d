package threadstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vasifvortex/azercell-project3/domain"
)

const (
	redisThreadsKey = "chat:threads"
	redisSeqKey     = "chat:threads:seq"
	redisTurnsKey   = "chat:thread:"
)

// Redis keeps each thread as a list of JSON turns and the thread order in a
// sorted set.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Append(ctx context.Context, threadID string, turn domain.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encoding turn: %w", err)
	}

	err = r.client.ZScore(ctx, redisThreadsKey, threadID).Err()
	switch {
	case errors.Is(err, redis.Nil):
		seq, err := r.client.Incr(ctx, redisSeqKey).Result()
		if err != nil {
			return fmt.Errorf("allocating thread position: %w", err)
		}
		if err := r.client.ZAddNX(ctx, redisThreadsKey, redis.Z{Score: float64(seq), Member: threadID}).Err(); err != nil {
			return fmt.Errorf("registering thread: %w", err)
		}
	case err != nil:
		return fmt.Errorf("looking up thread: %w", err)
	}

	if err := r.client.RPush(ctx, redisTurnsKey+threadID, payload).Err(); err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, threadID string) ([]domain.Turn, error) {
	raw, err := r.client.LRange(ctx, redisTurnsKey+threadID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("loading thread: %w", err)
	}

	turns := make([]domain.Turn, 0, len(raw))
	for _, item := range raw {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decoding turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.ZRange(ctx, redisThreadsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	return ids, nil
}

func (r *Redis) Delete(ctx context.Context, threadID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisTurnsKey+threadID)
		pipe.ZRem(ctx, redisThreadsKey, threadID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
