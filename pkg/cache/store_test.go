package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func TestStore_Reserve(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	key := FreePostKey("user-1")

	ok, err := store.Reserve(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := store.TTL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(time.Hour + time.Second)
	ok, err = store.Reserve(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, key))
	ttl, err = store.TTL(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestStore_JSON(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	type listing struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	var got listing
	found, err := store.GetJSON(ctx, ListingKey("l-1"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetJSON(ctx, ListingKey("l-1"), listing{ID: "l-1", Title: "Courier"}, time.Minute))
	found, err = store.GetJSON(ctx, ListingKey("l-1"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Courier", got.Title)
}

func TestStore_NilClientIsInert(t *testing.T) {
	var store *Store
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)

	found, err := NewStore(nil).GetJSON(ctx, "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, store.SetJSON(ctx, "k", 1, time.Minute))
	assert.NoError(t, store.Delete(ctx, "k"))
	assert.NoError(t, store.PublishJSON(ctx, ReviewChannel, 1))

	_, _, err = store.Subscribe(ctx, ReviewChannel)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestStore_PublishSubscribe(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	messages, closeSub, err := store.Subscribe(ctx, ReviewChannel)
	require.NoError(t, err)
	defer closeSub()

	require.NoError(t, store.PublishJSON(ctx, ReviewChannel, map[string]string{"listing_id": "l-1"}))

	select {
	case msg := <-messages:
		assert.JSONEq(t, `{"listing_id":"l-1"}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "free_post:u1", FreePostKey("u1"))
	assert.Equal(t, "listing:l1", ListingKey("l1"))
	assert.Equal(t, "listing_view:l1:u1", ViewKey("l1", "u1"))
}
