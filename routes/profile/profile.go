package profile

import (
	"mamacare/controllers"
	"mamacare/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers profile routes (protected)
func Register(g *gin.RouterGroup, db *gorm.DB, storage *services.AvatarStorage) {
	g.GET("/profile", controllers.Profile(db))
	g.PUT("/profile", controllers.Profile(db))
	g.POST("/profile/avatar", controllers.UploadAvatar(db, storage))
}
