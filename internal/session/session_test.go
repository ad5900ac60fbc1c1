package session_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashrafalve/ecommerce-store-go/internal/session"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/memory"
)

func TestSetGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Sessions()
	sess := session.New(store)

	require.NoError(t, sess.Set(ctx, "greeting", "hello"))

	reloaded, err := session.Open(ctx, store, sess.ID)
	require.NoError(t, err)
	var got string
	require.True(t, reloaded.Get("greeting", &got))
	assert.Equal(t, "hello", got)
}

func TestGetToleratesMissingAndMalformed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Sessions()

	require.NoError(t, store.Save(ctx, "sid-1", session.Data{
		"cart": json.RawMessage(`"not a mapping"`),
	}))
	sess, err := session.Open(ctx, store, "sid-1")
	require.NoError(t, err)

	var m map[string]int
	assert.False(t, sess.Get("cart", &m))
	assert.False(t, sess.Get("absent", &m))

	// The malformed slot is overwritten by the next Set.
	require.NoError(t, sess.Set(ctx, "cart", map[string]int{"1": 2}))
	require.True(t, sess.Get("cart", &m))
	assert.Equal(t, 2, m["1"])
}

func TestRotateCarriesDataAndDropsOldID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Sessions()
	sess := session.New(store)
	require.NoError(t, sess.Set(ctx, "user_id", 7))

	oldID := sess.ID
	require.NoError(t, sess.Rotate(ctx))
	assert.NotEqual(t, oldID, sess.ID)

	var id int64
	require.True(t, sess.Get("user_id", &id))
	assert.Equal(t, int64(7), id)

	old, err := store.Load(ctx, oldID)
	require.NoError(t, err)
	assert.Empty(t, old)
}
