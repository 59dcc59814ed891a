package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	gdb := testutil.NewDB(t)
	_, rdb := testutil.NewRedis(t)
	store := NewStore(gdb, rdb)

	v, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultValues(), v)
	assert.Equal(t, 10.0, v.CommissionPercent)
	assert.Equal(t, 2, v.MaxReschedules)
}

func TestUpdateInvalidatesSnapshot(t *testing.T) {
	gdb := testutil.NewDB(t)
	srv, rdb := testutil.NewRedis(t)
	store := NewStore(gdb, rdb)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, srv.Exists(cacheKey))

	require.NoError(t, store.Update(ctx, map[string]float64{CommissionPercent: 15, MaxReschedules: 3}))
	assert.False(t, srv.Exists(cacheKey))

	v, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15.0, v.CommissionPercent)
	assert.Equal(t, 3, v.MaxReschedules)

	// second update of the same row goes through the upsert path
	require.NoError(t, store.Update(ctx, map[string]float64{CommissionPercent: 12}))
	v, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.0, v.CommissionPercent)
}

func TestUpdateValidation(t *testing.T) {
	gdb := testutil.NewDB(t)
	store := NewStore(gdb, nil)
	ctx := context.Background()

	cases := map[string]map[string]float64{
		"empty":         {},
		"unknown":       {"surge_multiplier": 2},
		"negative":      {PouchHoldHours: -1},
		"percent > 100": {DepositPercent: 120},
		"fractional":    {MaxReschedules: 2.5},
		"late > free":   {LateCancelHours: 30},
	}
	for name, changes := range cases {
		t.Run(name, func(t *testing.T) {
			err := store.Update(ctx, changes)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
		})
	}

	v, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30.0, v.DepositPercent)
}

func TestUpdateChecksWindowsAgainstStoredValues(t *testing.T) {
	gdb := testutil.NewDB(t)
	_, rdb := testutil.NewRedis(t)
	store := NewStore(gdb, rdb)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, map[string]float64{FreeCancelHours: 6}))

	err := store.Update(ctx, map[string]float64{LateCancelHours: 8})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	// both windows moved together
	require.NoError(t, store.Update(ctx, map[string]float64{FreeCancelHours: 48, LateCancelHours: 30}))
	v, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 48.0, v.FreeCancelHours)
	assert.Equal(t, 30.0, v.LateCancelHours)

	err = store.Update(ctx, map[string]float64{FreeCancelHours: 12})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	require.NoError(t, store.Update(ctx, map[string]float64{MaxReschedules: 4}))
}
