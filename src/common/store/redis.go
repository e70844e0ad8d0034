package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisBackend struct {
	rdb         *redis.Client
	key         string
	revisionKey string
}

func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	return &RedisBackend{
		rdb:         rdb,
		key:         key,
		revisionKey: key + ":revision",
	}
}

func (r *RedisBackend) Read(ctx context.Context) ([]byte, int64, error) {
	var blobCmd *redis.StringCmd
	var revisionCmd *redis.StringCmd

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		blobCmd = pipe.Get(ctx, r.key)
		revisionCmd = pipe.Get(ctx, r.revisionKey)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	revision, err := revisionCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	blob, err := blobCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, revision, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	return blob, revision, nil
}

func (r *RedisBackend) Write(ctx context.Context, blob []byte, expected int64) (int64, error) {
	var next int64

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, r.revisionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != expected {
			return ErrStaleRevision
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, blob, 0)
			pipe.Set(ctx, r.revisionKey, current+1, 0)
			return nil
		})
		if err != nil {
			return err
		}

		next = current + 1
		return nil
	}, r.key, r.revisionKey)

	if errors.Is(err, redis.TxFailedErr) {
		return 0, ErrStaleRevision
	}
	if err != nil {
		return 0, err
	}

	return next, nil
}

func (r *RedisBackend) Close() error {
	return r.rdb.Close()
}
