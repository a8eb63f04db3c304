package controllers

import (
	"mamacare/middleware"
	"mamacare/models"
	"mamacare/pkg/cache"
	"mamacare/pkg/config"
	svc "mamacare/pkg/services"
	"mamacare/pkg/store"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AIResponse handles POST /functions/ai-response. The presence of
// conversation_id selects the mode:
//
//   - chat (conversation_id given): generate a reply for that conversation
//     and persist it as one ai message. Either the full reply lands in the
//     log or nothing does.
//   - analysis (no conversation_id): structured symptom analysis,
//     premium-gated. Nothing is persisted; results are cached per
//     (message, premium, week).
func AIResponse(db *gorm.DB, cs *store.ChatStore, ai svc.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		var body struct {
			Message        string `json:"message"`
			ConversationID *uint  `json:"conversation_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		message := strings.TrimSpace(body.Message)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if body.ConversationID == nil {
			analyzeSymptoms(c, &user, ai, message)
			return
		}
		conv, err := cs.GetConversation(c.Request.Context(), uid, *body.ConversationID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}

		if !middleware.DuplicateGuard(strconv.Itoa(int(uid)), message) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "duplicate message"})
			return
		}

		reply, err := ai.Reply(c.Request.Context(), message)
		if err != nil {
			if err == svc.ErrGroqDisabled {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI service is not configured"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "AI service failed: " + err.Error()})
			return
		}

		aiMsg := models.Message{
			ConversationID: conv.ID,
			SenderType:     models.SenderAI,
			Content:        reply,
		}
		if err := cs.AppendMessage(c.Request.Context(), &aiMsg); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save reply"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply, "message_id": aiMsg.ID})
	}
}

func analyzeSymptoms(c *gin.Context, user *models.User, ai svc.Responder, message string) {
	week := user.PregnancyWeek(time.Now())

	ck := cache.KeyFromStrings("symptom-analysis",
		strings.ToLower(message),
		strconv.FormatBool(user.IsPremium),
		strconv.Itoa(week),
	)
	if v, ok := cache.Default().Get(ck); ok {
		if cached, ok2 := v.(*svc.SymptomAnalysis); ok2 {
			c.JSON(http.StatusOK, gin.H{"success": true, "analysis": cached, "cached": true})
			return
		}
	}

	analysis, err := ai.Analyze(c.Request.Context(), message, user.IsPremium, week)
	if err != nil {
		if err == svc.ErrGroqDisabled {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI service is not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "symptom analysis failed: " + err.Error()})
		return
	}

	cache.Default().Set(ck, analysis, time.Duration(config.AnalysisCacheTTLSeconds)*time.Second)
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}
