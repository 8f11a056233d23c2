package kvstore

import (
	"context"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
	"github.com/launchgate-inc/launchgate-engine/pkg/retry"
)

// retryingStore decorates a driver with bounded exponential backoff. Only
// transient I/O failures are retried; ErrNotFound and ErrConflict pass
// through on the first attempt because retrying them cannot change the
// outcome. Whatever survives the retries is wrapped in a StorageError
// carrying the operation context, so nothing reaches a handler as a bare
// driver error.
type retryingStore struct {
	inner Store
	cfg   *retry.Config
}

// NewRetryingStore wraps inner with the store layer's retry policy. A nil
// cfg uses the default: 3 retries, 100ms initial delay, doubling, jittered.
func NewRetryingStore(inner Store, cfg *retry.Config) Store {
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}
	return &retryingStore{inner: inner, cfg: cfg}
}

func (s *retryingStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := retry.DoIfRetryable(ctx, s.cfg, func() error {
		var err error
		value, err = s.inner.Get(ctx, collection, key)
		return err
	})
	if err != nil {
		return nil, apperrors.NewStorageError("get", collection, key, err)
	}
	return value, nil
}

func (s *retryingStore) Set(ctx context.Context, collection, key string, value []byte) error {
	err := retry.DoIfRetryable(ctx, s.cfg, func() error {
		return s.inner.Set(ctx, collection, key, value)
	})
	return apperrors.NewStorageError("set", collection, key, err)
}

func (s *retryingStore) SetNX(ctx context.Context, collection, key string, value []byte) error {
	err := retry.DoIfRetryable(ctx, s.cfg, func() error {
		return s.inner.SetNX(ctx, collection, key, value)
	})
	return apperrors.NewStorageError("setnx", collection, key, err)
}

func (s *retryingStore) Delete(ctx context.Context, collection, key string) error {
	err := retry.DoIfRetryable(ctx, s.cfg, func() error {
		return s.inner.Delete(ctx, collection, key)
	})
	return apperrors.NewStorageError("delete", collection, key, err)
}

func (s *retryingStore) List(ctx context.Context, collection string) (map[string][]byte, error) {
	var out map[string][]byte
	err := retry.DoIfRetryable(ctx, s.cfg, func() error {
		var err error
		out, err = s.inner.List(ctx, collection)
		return err
	})
	if err != nil {
		return nil, apperrors.NewStorageError("list", collection, "", err)
	}
	return out, nil
}

var _ Store = (*retryingStore)(nil)
