package functions

import (
	"mamacare/controllers"
	"mamacare/middleware"
	"mamacare/pkg/config"
	svc "mamacare/pkg/services"
	"mamacare/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterProtected registers the client-facing bridge endpoints. Rate
// limited: these are the endpoints every send fans out to.
func RegisterProtected(g *gin.RouterGroup, db *gorm.DB, cs *store.ChatStore, ai svc.Responder, tg controllers.NurseChannel) {
	g.POST("/functions/ai-response", middleware.RateLimit(), controllers.AIResponse(db, cs, ai))
	g.POST("/functions/nurse-notify", middleware.RateLimit(), controllers.NurseNotify(db, cs, tg))
}

// RegisterPublic registers the Telegram webhook. Telegram cannot present a
// user JWT; the URL is the secret.
func RegisterPublic(r *gin.Engine, db *gorm.DB, cs *store.ChatStore, tg controllers.NurseChannel) {
	r.POST("/functions/telegram-webhook", controllers.TelegramWebhook(db, cs, tg, config.TelegramGroupID))
}
