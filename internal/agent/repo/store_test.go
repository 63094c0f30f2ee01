package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placefinder/server/internal/agent/model"
	errx "github.com/placefinder/server/internal/core/error"
	"github.com/placefinder/server/pkg/places"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Hour, "test"), mr
}

func stores(t *testing.T) map[string]model.Store {
	rs, _ := newRedisStore(t)
	return map[string]model.Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestStoreSearchLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			search := &model.SearchData{Parameters: model.SearchParameters{
				Location:  &places.Place{ID: "loc", DisplayName: &places.LocalizedText{Text: "Rome"}},
				PlaceType: "pizzeria",
			}}

			key, err := s.AddSearch(ctx, search)
			require.NoError(t, err)
			require.NotEmpty(t, key)

			got, err := s.GetSearch(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, "pizzeria", got.Parameters.PlaceType)
			assert.Equal(t, "Rome", got.Parameters.Location.Name())
			assert.Nil(t, got.Results)

			got.Results = []places.Place{{ID: "p1"}}
			require.NoError(t, s.UpdateSearch(ctx, key, got))

			again, err := s.GetSearch(ctx, key)
			require.NoError(t, err)
			require.Len(t, again.Results, 1)
			assert.Equal(t, "p1", again.Results[0].ID)

			require.NoError(t, s.DeleteSearch(ctx, key))
			_, err = s.GetSearch(ctx, key)
			assert.ErrorIs(t, err, errx.ErrNotFound)
		})
	}
}

func TestStoreMissingKeys(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.ErrorIs(t, s.UpdateSearch(ctx, "nope", &model.SearchData{}), errx.ErrNotFound)
			assert.ErrorIs(t, s.DeleteSearch(ctx, "nope"), errx.ErrNotFound)
			_, err := s.GetBooking(ctx, "nope")
			assert.ErrorIs(t, err, errx.ErrNotFound)
			assert.ErrorIs(t, s.UpdateBooking(ctx, "nope", &model.BookingData{}), errx.ErrNotFound)
			assert.ErrorIs(t, s.DeleteBooking(ctx, "nope"), errx.ErrNotFound)
		})
	}
}

func TestStoreBookingLifecycle(t *testing.T) {
	date := time.Date(2030, 5, 17, 20, 30, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key, err := s.AddBooking(ctx, &model.BookingData{Parameters: model.BookingParameters{
				Place:     places.Place{ID: "p"},
				Date:      date,
				NumPeople: 3,
				Author:    "Ann",
			}})
			require.NoError(t, err)

			got, err := s.GetBooking(ctx, key)
			require.NoError(t, err)
			assert.True(t, date.Equal(got.Parameters.Date))
			assert.Equal(t, 3, got.Parameters.NumPeople)

			got.Parameters.NumPeople = 5
			require.NoError(t, s.UpdateBooking(ctx, key, got))
			got, err = s.GetBooking(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, 5, got.Parameters.NumPeople)

			require.NoError(t, s.DeleteBooking(ctx, key))
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key, err := s.AddSearch(ctx, &model.SearchData{Parameters: model.SearchParameters{PlaceType: "bar"}})
	require.NoError(t, err)

	got, err := s.GetSearch(ctx, key)
	require.NoError(t, err)
	got.Parameters.PlaceType = "pub"

	again, err := s.GetSearch(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "bar", again.Parameters.PlaceType)
}

func TestMemoryStoreRegeneratesCollidingKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	keys := []string{"k", "k", "k2"}
	s.newKey = func() string {
		k := keys[0]
		keys = keys[1:]
		return k
	}

	k1, err := s.AddSearch(ctx, &model.SearchData{})
	require.NoError(t, err)
	k2, err := s.AddSearch(ctx, &model.SearchData{})
	require.NoError(t, err)
	assert.Equal(t, "k", k1)
	assert.Equal(t, "k2", k2)
}

func TestRedisStoreKeysAndTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	key, err := s.AddBooking(ctx, &model.BookingData{})
	require.NoError(t, err)

	rk := "test:booking:" + key
	assert.True(t, mr.Exists(rk))
	assert.Equal(t, time.Hour, mr.TTL(rk))

	mr.FastForward(30 * time.Minute)
	require.NoError(t, s.UpdateBooking(ctx, key, &model.BookingData{}))
	assert.Equal(t, time.Hour, mr.TTL(rk))

	mr.FastForward(2 * time.Hour)
	_, err = s.GetBooking(ctx, key)
	assert.ErrorIs(t, err, errx.ErrNotFound)
}
