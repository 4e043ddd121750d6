package http

import (
	"errors"
	"net/http"
	"time"

	"tg-market/pkg/cache"
	"tg-market/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ReviewFeedHandler streams review notices to moderators over a websocket.
type ReviewFeedHandler struct {
	store  *cache.Store
	logger *logger.Logger
}

func NewReviewFeedHandler(store *cache.Store, logger *logger.Logger) *ReviewFeedHandler {
	return &ReviewFeedHandler{
		store:  store,
		logger: logger,
	}
}

// Feed godoc
// @Summary      Live review feed
// @Description  Websocket that pushes a JSON notice whenever a listing enters manual review or a moderator decides on one
// @Tags         moderation
// @Security     BasicAuth
// @Success      101
// @Failure      503  {object}  map[string]string
// @Router       /moderation/feed [get]
func (h *ReviewFeedHandler) Feed(c *gin.Context) {
	ctx := c.Request.Context()

	messages, closeSub, err := h.store.Subscribe(ctx, cache.ReviewChannel)
	if errors.Is(err, cache.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live feed is unavailable"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to subscribe to review feed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open review feed"})
		return
	}
	defer closeSub()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Info("[FEED] moderator connected from %s", c.ClientIP())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("[FEED] moderator disconnected")
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				h.logger.Warn("WebSocket ping failed: %v", err)
				return
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.logger.Error("Failed to write WebSocket message: %v", err)
				return
			}
		}
	}
}
