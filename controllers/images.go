package controllers

import (
	"mamacare/middleware"
	"mamacare/models"
	"mamacare/pkg/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UploadAvatar handles POST /profile/avatar (multipart form, field "avatar").
func UploadAvatar(db *gorm.DB, storage *services.AvatarStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}

		file, header, err := c.Request.FormFile("avatar")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "avatar file is required"})
			return
		}
		defer file.Close()

		url, err := storage.SaveAvatar(uid, file, header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
			return
		}

		user.AvatarURL = url
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "Avatar updated", "avatar_url": url})
	}
}
