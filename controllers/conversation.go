package controllers

import (
	"mamacare/middleware"
	"mamacare/pkg/store"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func ListConversations(cs *store.ChatStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		convs, err := cs.ListConversations(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}

		result := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			result = append(result, gin.H{
				"id":         conv.ID,
				"status":     conv.Status,
				"created_at": conv.CreatedAt,
				"updated_at": conv.UpdatedAt,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

func GetConversation(cs *store.ChatStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		cid, _ := strconv.Atoi(c.Param("conversation_id"))

		conv, err := cs.GetConversation(c.Request.Context(), uid, uint(cid))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
			return
		}
		msgs, err := cs.ListMessages(c.Request.Context(), conv.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to load messages"})
			return
		}

		messages := make([]gin.H, 0, len(msgs))
		for _, m := range msgs {
			messages = append(messages, gin.H{
				"id":          m.ID,
				"sender_type": m.SenderType,
				"content":     m.Content,
				"timestamp":   m.Timestamp,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"conversation_id": conv.ID,
			"status":          conv.Status,
			"messages":        messages,
		})
	}
}

func DeleteConversation(cs *store.ChatStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)
		cid, _ := strconv.Atoi(c.Param("conversation_id"))

		if err := cs.DeleteConversation(c.Request.Context(), uid, uint(cid)); err != nil {
			if err == store.ErrNotFound {
				c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to delete conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "conversation deleted"})
	}
}
