package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationPrefix = "revocation:"

// RedisRepo is the revocation cache. Every entry is written with its own
// TTL so the denylist never outlives the tokens it denies.
type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// * Get возвращает маркер отзыва по jti
func (r *RedisRepo) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "storage.redis.Get"

	val, err := r.client.Get(ctx, revocationPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return val, true, nil
}

// * SetWithExpiration сохраняет маркер с TTL, равным оставшемуся сроку жизни токена
func (r *RedisRepo) SetWithExpiration(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "storage.redis.SetWithExpiration"

	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, revocationPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * SetIfAbsent атомарно записывает маркер через SETNX
// Возвращает true если запись создана этим вызовом
// Возвращает false если ключ уже существовал
func (r *RedisRepo) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	const op = "storage.redis.SetIfAbsent"

	if ttl <= 0 {
		return false, nil
	}

	success, err := r.client.SetNX(ctx, revocationPrefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return success, nil
}

// * Close закрывает соединение с базой данных.
func (r *RedisRepo) Close() {
	r.client.Close()
}
