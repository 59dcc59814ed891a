package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
)

// MessageRequest sends a message to a customer or stylist
type MessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	Body        string `json:"body" binding:"required,max=2000"`
}

// SendMessageHandler opens the pair's conversation on first contact and appends a message
func SendMessageHandler(db *gorm.DB, pub Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		var req MessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var sender, recipient domain.User
		if err := db.First(&sender, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := db.First(&recipient, req.RecipientID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
			return
		}
		// Conversations are between one customer and one stylist
		var pair domain.Conversation
		switch {
		case sender.Role == domain.RoleCustomer && recipient.Role == domain.RoleStylist:
			pair = domain.Conversation{CustomerID: sender.ID, StylistID: recipient.ID}
		case sender.Role == domain.RoleStylist && recipient.Role == domain.RoleCustomer:
			pair = domain.Conversation{CustomerID: recipient.ID, StylistID: sender.ID}
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Conversations are between a customer and a stylist"})
			return
		}
		var conv domain.Conversation
		var msg domain.Message
		err := db.Transaction(func(tx *gorm.DB) error {
			// Racing first messages both land on the unique pair index
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pair).Error; err != nil {
				return err
			}
			if err := tx.Where("customer_id = ? AND stylist_id = ?", pair.CustomerID, pair.StylistID).First(&conv).Error; err != nil {
				return err
			}
			msg = domain.Message{ConversationID: conv.ID, SenderID: userID, Body: req.Body}
			if err := tx.Create(&msg).Error; err != nil {
				return err
			}
			return tx.Model(&conv).Update("updated_at", msg.CreatedAt).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
			return
		}
		pub.Publish([]uint{recipient.ID}, events.Event{Type: events.MessageCreated, Data: msg})
		c.JSON(http.StatusCreated, gin.H{"conversation": conv, "message": msg})
	}
}

// ListConversationsHandler returns the caller's conversations, most recent first
func ListConversationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		var list []domain.Conversation
		if err := db.Where("customer_id = ? OR stylist_id = ?", userID, userID).
			Order("updated_at desc").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": list})
	}
}

// ListMessagesHandler returns a page of a conversation's messages to its participants
func ListMessagesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := mustUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var conv domain.Conversation
		if err := db.First(&conv, id).Error; err != nil || (conv.CustomerID != userID && conv.StylistID != userID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		page, pageSize, offset := pageParams(c)
		var total int64
		if err := db.Model(&domain.Message{}).Where("conversation_id = ?", conv.ID).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count messages"})
			return
		}
		var msgs []domain.Message
		if err := db.Where("conversation_id = ?", conv.ID).
			Order("created_at desc").Order("id desc").
			Offset(offset).Limit(pageSize).
			Find(&msgs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
			return
		}
		c.JSON(http.StatusOK, pageResponse("messages", msgs, page, pageSize, total))
	}
}
