package repositories

import (
	"context"
	"database/sql"

	"github.com/desertthunder/vibra/internal/shared"
)

// TokenRepository persists the bearer token under one fixed key.
//
// It implements session.Store.
type TokenRepository struct {
	kv  *KeyValueRepository
	key string
}

// NewTokenRepository stores the token under key, or [shared.DefaultStorageKey] when key is empty.
func NewTokenRepository(db *sql.DB, key string) *TokenRepository {
	if key == "" {
		key = shared.DefaultStorageKey
	}
	return &TokenRepository{kv: NewKeyValueRepository(db), key: key}
}

// Key returns the storage key.
func (r *TokenRepository) Key() string { return r.key }

func (r *TokenRepository) Load(ctx context.Context) (string, error) {
	return r.kv.Get(ctx, r.key)
}

func (r *TokenRepository) Save(ctx context.Context, token string) error {
	return r.kv.Set(ctx, r.key, token)
}

func (r *TokenRepository) Clear(ctx context.Context) error {
	return r.kv.Delete(ctx, r.key)
}
