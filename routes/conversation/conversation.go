package conversation

import (
	"mamacare/controllers"
	"mamacare/pkg/store"

	"github.com/gin-gonic/gin"
)

// Register registers conversation routes (protected)
func Register(g *gin.RouterGroup, cs *store.ChatStore) {
	g.GET("/conversations", controllers.ListConversations(cs))
	g.GET("/conversations/:conversation_id", controllers.GetConversation(cs))
	g.DELETE("/conversations/:conversation_id", controllers.DeleteConversation(cs))
}
