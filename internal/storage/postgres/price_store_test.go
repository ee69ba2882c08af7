package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

func TestPriceStore_Postgres(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPriceStore(pool)

	t.Run("missing day", func(t *testing.T) {
		_, err := store.GetByDay(ctx, 1599955200)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, &domain.CoinPrice{TimestampDay: 1599955200, Price: 4.2}))
		require.NoError(t, store.Upsert(ctx, &domain.CoinPrice{TimestampDay: 1599955200, Price: 4.5}))

		got, err := store.GetByDay(ctx, 1599955200)
		require.NoError(t, err)
		assert.Equal(t, int64(1599955200), got.TimestampDay)
		assert.Equal(t, 4.5, got.Price)
	})

	t.Run("nil price", func(t *testing.T) {
		assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	})
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, translate(plain))
}
