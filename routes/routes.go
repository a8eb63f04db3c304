package routes

import (
	"mamacare/middleware"
	"mamacare/pkg/realtime"
	"mamacare/pkg/services"
	"mamacare/pkg/store"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "mamacare/routes/auth"
	convRoutes "mamacare/routes/conversation"
	functionsRoutes "mamacare/routes/functions"
	listingsRoutes "mamacare/routes/listings"
	paymentRoutes "mamacare/routes/payment"
	profileRoutes "mamacare/routes/profile"
	uploadsRoutes "mamacare/routes/uploads"
	websocketRoutes "mamacare/routes/websocket"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "MamaCare backend running"})
	})

	broker := realtime.Default()
	cs := store.New(db, broker)
	ai := services.NewGroqService()
	tg := services.NewTelegramService()
	pay := services.NewPaymentService()
	storage := services.NewAvatarStorage("./uploads", "/uploads")

	uploadsRoutes.Register(r)
	websocketRoutes.Register(r, db, cs, broker)
	authRoutes.RegisterPublic(r, db)
	functionsRoutes.RegisterPublic(r, db, cs, tg)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(protected, db)
	profileRoutes.Register(protected, db, storage)
	convRoutes.Register(protected, cs)
	functionsRoutes.RegisterProtected(protected, db, cs, ai, tg)
	paymentRoutes.Register(protected, db, pay)

	// Catalog routes - accessible to all authenticated users
	listingsRoutes.Register(protected, db)
}
