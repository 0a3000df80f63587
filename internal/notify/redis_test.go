package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/newswatch/internal/notify"
)

func TestRedisNotifier_PublishesEvent(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := notify.NewRedisClient(ctx, notify.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sub := client.Subscribe(ctx, "newswatch:articles")
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	n := notify.NewRedisNotifier(client, "newswatch:articles")
	assert.Equal(t, "redis", n.Name())

	article := articleA
	article.DiscoveredAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, n.Notify(ctx, article))

	select {
	case msg := <-sub.Channel():
		var event notify.ArticleEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, article.Title, event.Title)
		assert.Equal(t, article.Link, event.Link)
		assert.Equal(t, "CM7", event.Source)
		assert.True(t, article.DiscoveredAt.Equal(event.DiscoveredAt))
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestRedisNotifier_ServerDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := notify.NewRedisClient(ctx, notify.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()

	n := notify.NewRedisNotifier(client, "newswatch:articles")
	assert.Error(t, n.Notify(ctx, articleA))
}

func TestNewRedisClient_RequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := notify.NewRedisClient(context.Background(), notify.RedisConfig{})
	assert.ErrorIs(t, err, notify.ErrEmptyRedisAddress)
}
