package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T, store *cache.Store) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/moderation/feed", NewReviewFeedHandler(store, logger.Discard()).Feed)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestReviewFeed_RelaysNotices(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := cache.NewStore(client)

	srv := feedServer(t, store)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/moderation/feed"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the subscription is live before the upgrade completes
	require.NoError(t, store.PublishJSON(context.Background(), cache.ReviewChannel, map[string]string{
		"type": "review_requested", "listing_id": "l-1",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"review_requested","listing_id":"l-1"}`, string(data))
}

func TestReviewFeed_WithoutRedis(t *testing.T) {
	srv := feedServer(t, cache.NewStore(nil))

	resp, err := http.Get(srv.URL + "/moderation/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
