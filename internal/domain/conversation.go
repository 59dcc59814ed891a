package domain

// Conversation between a customer and a stylist, one per pair.
type Conversation struct {
	ID         uint  `gorm:"primaryKey" json:"id"`
	CustomerID uint  `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"customer_id"`
	StylistID  uint  `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"stylist_id"`
	CreatedAt  int64 `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt  int64 `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// Message Model
type Message struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ConversationID uint   `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint   `gorm:"not null" json:"sender_id"`
	Body           string `gorm:"not null" json:"body"`
	CreatedAt      int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}
