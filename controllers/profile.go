package controllers

import (
	"mamacare/middleware"
	"mamacare/models"
	"mamacare/pkg/utils"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func profileJSON(user *models.User) gin.H {
	out := gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"full_name":    user.FullName,
		"phone_number": user.PhoneNumber,
		"avatar_url":   user.AvatarURL,
		"is_premium":   user.IsPremium,
	}
	if user.LMPDate != nil {
		out["lmp_date"] = user.LMPDate.Format("2006-01-02")
	}
	if user.DueDate != nil {
		out["due_date"] = user.DueDate.Format("2006-01-02")
		out["pregnancy_week"] = user.PregnancyWeek(time.Now())
	}
	return out
}

// Profile handles GET and PUT on the current user's profile. PUT is a
// partial patch: absent fields keep their value. is_premium is never
// patchable here; it only flips through payment verification.
func Profile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, profileJSON(&user))
			return
		}

		// PUT
		var body struct {
			FullName    *string `json:"full_name"`
			PhoneNumber *string `json:"phone_number"`
			LMPDate     *string `json:"lmp_date"`
			DueDate     *string `json:"due_date"`
			Password    string  `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		if body.FullName != nil {
			name := strings.TrimSpace(*body.FullName)
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "full_name cannot be empty"})
				return
			}
			user.FullName = name
		}
		if body.PhoneNumber != nil {
			user.PhoneNumber = strings.TrimSpace(*body.PhoneNumber)
		}

		if body.LMPDate != nil {
			lmp, err := time.Parse("2006-01-02", *body.LMPDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "lmp_date must be YYYY-MM-DD"})
				return
			}
			user.LMPDate = &lmp
			// due date follows the last period unless set explicitly below
			due := utils.DueDateFromLMP(lmp)
			user.DueDate = &due
		}
		if body.DueDate != nil {
			due, err := time.Parse("2006-01-02", *body.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "due_date must be YYYY-MM-DD"})
				return
			}
			user.DueDate = &due
		}

		if body.Password != "" {
			if !utils.HasLetter(body.Password) || !utils.HasNumber(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "New password must contain at least one letter and one number"})
				return
			}
			if err := user.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
				return
			}
		}

		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}

		c.JSON(http.StatusOK, profileJSON(&user))
	}
}
