package listings

import (
	"log"

	"mamacare/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers the read-only catalog routes (protected)
func Register(g *gin.RouterGroup, db *gorm.DB) {
	ctrl, err := controllers.NewListingsController()
	if err != nil {
		log.Printf("[listings] catalog unavailable, routes not registered: %v", err)
		return
	}

	g.GET("/marketplace", ctrl.GetMarketplace)
	g.GET("/articles", ctrl.GetArticles(db))
	g.GET("/medical-centers", ctrl.GetMedicalCenters)
	g.GET("/forum/topics", ctrl.GetForumTopics)
}
