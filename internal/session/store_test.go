package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqui-ai/loqui/internal/engine"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func TestStore_AppendAndHistory(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "c1", engine.PriorMessage{Role: engine.RoleUser, Content: "hello"}))
	require.NoError(t, store.Append(ctx, "c1", engine.PriorMessage{Role: engine.RoleAssistant, Content: "hi there"}))

	msgs, err := store.History(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, engine.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, engine.RoleAssistant, msgs[1].Role)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestStore_HistoryLimitReturnsNewest(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "c1", engine.PriorMessage{
			Role: engine.RoleUser, Content: fmt.Sprintf("msg-%d", i),
		}))
	}

	msgs, err := store.History(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "msg-3", msgs[0].Content)
	assert.Equal(t, "msg-4", msgs[1].Content)
}

func TestStore_TrimsToMaxMessages(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for i := 0; i < DefaultMaxMessages+5; i++ {
		require.NoError(t, store.Append(ctx, "c1", engine.PriorMessage{
			Role: engine.RoleUser, Content: fmt.Sprintf("msg-%d", i),
		}))
	}

	msgs, err := store.History(ctx, "c1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, DefaultMaxMessages)
	// The oldest messages were trimmed away.
	assert.Equal(t, "msg-5", msgs[0].Content)
}

func TestStore_HistoryTTL(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "c1", engine.PriorMessage{Role: engine.RoleUser, Content: "hello"}))
	assert.Equal(t, DefaultHistoryTTL, mr.TTL("conv:c1"))

	mr.FastForward(DefaultHistoryTTL + time.Second)

	msgs, err := store.History(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_HistorySkipsMalformedEntries(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	mr.RPush("conv:c1", "not json")
	require.NoError(t, store.Append(ctx, "c1", engine.PriorMessage{Role: engine.RoleUser, Content: "hello"}))

	msgs, err := store.History(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestStore_Clear(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "c1", engine.PriorMessage{Role: engine.RoleUser, Content: "hello"}))
	require.NoError(t, store.Clear(ctx, "c1"))

	msgs, err := store.History(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetProfile(ctx, "u1", Profile{Name: "Lin Wei", Company: "Acme"}))

	p, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Lin Wei", p.Name)
	assert.Equal(t, "Acme", p.Company)
	assert.False(t, p.UpdatedAt.IsZero())
	assert.Equal(t, DefaultProfileTTL, mr.TTL("profile:u1"))
}

func TestStore_GetProfileMissingReturnsNil(t *testing.T) {
	store, _ := setupStore(t)

	p, err := store.GetProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStore_UpdateProfileMergesNonEmptyFields(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetProfile(ctx, "u1", Profile{Name: "Lin Wei", Company: "Acme"}))
	require.NoError(t, store.UpdateProfile(ctx, "u1", Profile{Phone: "+886-912-345-678"}))

	p, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Lin Wei", p.Name)
	assert.Equal(t, "Acme", p.Company)
	assert.Equal(t, "+886-912-345-678", p.Phone)
}

func TestStore_UpdateProfileCreatesWhenAbsent(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateProfile(ctx, "u2", Profile{Email: "wei@acme.example"}))

	p, err := store.GetProfile(ctx, "u2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "wei@acme.example", p.Email)
}
