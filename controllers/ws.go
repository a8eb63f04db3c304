package controllers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mamacare/middleware"
	"mamacare/models"
	"mamacare/pkg/realtime"
	"mamacare/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// ConversationFeed handles GET /ws/conversations/:conversation_id.
// Authenticates via ?token=JWT, then streams every message inserted into
// the conversation as it lands:
//
//	<- {type: "message", id, sender_type, content, timestamp}
//	<- {type: "error", error: string}
func ConversationFeed(db *gorm.DB, cs *store.ChatStore, broker *realtime.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing token query"})
			return
		}
		userIDStr, _, err := middleware.ParseUserToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid or revoked token"})
			return
		}
		uid64, _ := strconv.ParseUint(userIDStr, 10, 64)
		uid := uint(uid64)

		cid, _ := strconv.Atoi(c.Param("conversation_id"))
		conv, err := cs.GetConversation(c.Request.Context(), uid, uint(cid))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(1 << 20)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})

		sub := broker.Subscribe(conv.ID)
		defer sub.Cancel()

		// reader goroutine: we never expect client frames, but reading is
		// what surfaces a closed connection
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			}
		}()

		pinger := time.NewTicker(30 * time.Second)
		defer pinger.Stop()

		for {
			select {
			case <-closed:
				return
			case <-pinger.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				var msg models.Message
				if err := db.First(&msg, ev.MessageID).Error; err != nil {
					continue
				}
				payload := gin.H{
					"type":        "message",
					"id":          msg.ID,
					"sender_type": msg.SenderType,
					"content":     msg.Content,
					"timestamp":   msg.Timestamp,
				}
				if err := conn.WriteJSON(payload); err != nil {
					return
				}
			}
		}
	}
}
