// Package rediscache хранит в redis отметки об уже обработанных референсах платежей. Это быстрый путь перед
// проверкой в postgres; источником истины остается уникальный индекс таблицы purchases.
package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultReferenceTTL = 72 * time.Hour
	referenceKeyPrefix  = "chartcredits:payment_reference:"
	pingTimeout         = 5 * time.Second
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect создает клиент redis и проверяет соединение.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

type ReferenceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewReferenceCache(client redis.Cmdable, ttl time.Duration) *ReferenceCache {
	if ttl <= 0 {
		ttl = DefaultReferenceTTL
	}
	return &ReferenceCache{client: client, ttl: ttl}
}

// Seen сообщает, отмечен ли референс как обработанный.
func (r *ReferenceCache) Seen(ctx context.Context, reference string) (bool, error) {
	n, err := r.client.Exists(ctx, referenceKey(reference)).Result()
	if err != nil {
		return false, fmt.Errorf("[rediscache] exists `%s`: %w", reference, err)
	}
	return n > 0, nil
}

// Remember отмечает референс как обработанный на время ttl.
func (r *ReferenceCache) Remember(ctx context.Context, reference string) error {
	if err := r.client.SetNX(ctx, referenceKey(reference), time.Now().UTC().Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("[rediscache] setnx `%s`: %w", reference, err)
	}
	return nil
}

func referenceKey(reference string) string {
	return referenceKeyPrefix + reference
}
