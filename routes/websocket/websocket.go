package websocket

import (
	"mamacare/controllers"
	"mamacare/pkg/realtime"
	"mamacare/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(r *gin.Engine, db *gorm.DB, cs *store.ChatStore, broker *realtime.Broker) {
	r.GET("/ws/conversations/:conversation_id", controllers.ConversationFeed(db, cs, broker))
}
