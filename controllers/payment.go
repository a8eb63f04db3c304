package controllers

import (
	"mamacare/middleware"
	"mamacare/models"
	svc "mamacare/pkg/services"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// premium subscription price, in kobo
const premiumPriceKobo = 500000

// StartCheckout handles POST /premium/checkout: initialize an upstream
// checkout and hand the authorization URL back to the client.
func StartCheckout(db *gorm.DB, pay *svc.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}
		if user.IsPremium {
			c.JSON(http.StatusConflict, gin.H{"msg": "Already premium"})
			return
		}

		authURL, reference, err := pay.InitializeCheckout(c.Request.Context(), user.Email, premiumPriceKobo)
		if err != nil {
			if err == svc.ErrPaymentNotConfigured {
				c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "payments are not configured"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"msg": "failed to start checkout: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"authorization_url": authURL, "reference": reference})
	}
}

// VerifyCheckout handles GET /premium/verify?reference=. A verified payment
// flips is_premium and nothing else.
func VerifyCheckout(db *gorm.DB, pay *svc.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		reference := strings.TrimSpace(c.Query("reference"))
		if reference == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "reference is required"})
			return
		}

		paid, err := pay.VerifyReference(c.Request.Context(), reference)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"msg": "failed to verify payment: " + err.Error()})
			return
		}
		if !paid {
			c.JSON(http.StatusPaymentRequired, gin.H{"msg": "payment not completed", "is_premium": false})
			return
		}

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}
		user.IsPremium = true
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update subscription"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "Premium activated", "is_premium": true})
	}
}
