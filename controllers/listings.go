package controllers

import (
	"net/http"
	"strings"

	"mamacare/middleware"
	"mamacare/models"
	"mamacare/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ListingsController struct {
	catalog *services.CatalogService
}

func NewListingsController() (*ListingsController, error) {
	catalog, err := services.NewCatalogService()
	if err != nil {
		return nil, err
	}
	return &ListingsController{catalog: catalog}, nil
}

// NewListingsControllerWith wires an existing catalog, for tests.
func NewListingsControllerWith(catalog *services.CatalogService) *ListingsController {
	return &ListingsController{catalog: catalog}
}

// GetMarketplace handles GET /marketplace?category=&q=
func (ctrl *ListingsController) GetMarketplace(c *gin.Context) {
	var items []models.MarketplaceItem
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		items = ctrl.catalog.SearchMarketplace(q)
	} else {
		items = ctrl.catalog.Marketplace(strings.TrimSpace(c.Query("category")))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"total":   len(items),
	})
}

// GetArticles handles GET /articles?category=. Premium articles are listed
// for everyone; only premium users see them marked readable.
func (ctrl *ListingsController) GetArticles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		var user models.User
		isPremium := false
		if err := db.First(&user, uid).Error; err == nil {
			isPremium = user.IsPremium
		}

		articles := ctrl.catalog.Articles(strings.TrimSpace(c.Query("category")))
		out := make([]gin.H, 0, len(articles))
		for _, a := range articles {
			out = append(out, gin.H{
				"id":        a.ID,
				"title":     a.Title,
				"summary":   a.Summary,
				"category":  a.Category,
				"read_time": a.ReadTime,
				"premium":   a.Premium,
				"readable":  !a.Premium || isPremium,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    out,
			"total":   len(out),
		})
	}
}

// GetMedicalCenters handles GET /medical-centers?state=
func (ctrl *ListingsController) GetMedicalCenters(c *gin.Context) {
	centers := ctrl.catalog.MedicalCenters(strings.TrimSpace(c.Query("state")))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    centers,
		"total":   len(centers),
	})
}

// GetForumTopics handles GET /forum/topics
func (ctrl *ListingsController) GetForumTopics(c *gin.Context) {
	topics := ctrl.catalog.ForumTopics()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    topics,
		"total":   len(topics),
	})
}
