package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, opts ...StoreOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, err := NewRedisStoreWithClient(client, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTripWithTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestRedisStore(t, WithKeyPrefix("test:"), WithTTL(time.Minute))

	conv := NewConversation("thread-1", time.Now())
	require.NoError(t, conv.Append(schema.UserMessage("hi"), schema.AssistantMessage("Hello!", nil)))
	conv.MessageType = MessageTypeGeneral
	conv.SetTask(TaskLoan, []string{"name", "loan_amount"})
	require.NoError(t, store.Save(ctx, conv))

	require.True(t, mr.Exists("test:thread-1"))
	require.Equal(t, time.Minute, mr.TTL("test:thread-1"))

	loaded, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	require.Equal(t, "thread-1", loaded.ThreadID)
	require.Len(t, loaded.Messages, 2)
	require.Equal(t, "Hello!", loaded.Messages[1].Content)
	require.Equal(t, MessageTypeGeneral, loaded.MessageType)
	require.Equal(t, TaskLoan, loaded.Task.Kind)
}

func TestRedisStoreDefaultTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.Save(ctx, NewConversation("thread-2", time.Now())))
	require.Equal(t, defaultStoreTTL, mr.TTL(defaultStoreKeyPrefix+"thread-2"))
}

func TestRedisStoreNotFoundAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrStateNotFound)

	require.NoError(t, store.Save(ctx, NewConversation("thread-3", time.Now())))
	require.NoError(t, store.Delete(ctx, "thread-3"))
	require.False(t, mr.Exists(defaultStoreKeyPrefix+"thread-3"))

	_, err = store.Load(ctx, "thread-3")
	require.ErrorIs(t, err, ErrStateNotFound)

	_, err = store.Load(ctx, " ")
	require.ErrorIs(t, err, ErrInvalidThread)
}

func TestRedisStoreRejectsCorruptPayload(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set(defaultStoreKeyPrefix+"thread-4", "not json"))

	_, err := store.Load(context.Background(), "thread-4")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrStateNotFound)
}
