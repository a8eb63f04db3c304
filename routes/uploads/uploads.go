package uploads

import (
	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine) {
	r.Static("/uploads", "./uploads")
}
