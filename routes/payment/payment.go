package payment

import (
	"mamacare/controllers"
	svc "mamacare/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers premium checkout routes (protected)
func Register(g *gin.RouterGroup, db *gorm.DB, pay *svc.PaymentService) {
	g.POST("/premium/checkout", controllers.StartCheckout(db, pay))
	g.GET("/premium/verify", controllers.VerifyCheckout(db, pay))
}
