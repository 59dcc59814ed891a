package domain

// Review Model
type Review struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	AppointmentID uint   `gorm:"uniqueIndex;not null" json:"appointment_id"` // One review per appointment
	CustomerID    uint   `gorm:"index;not null" json:"customer_id"`
	StylistID     uint   `gorm:"index;not null" json:"stylist_id"`
	Rating        int    `gorm:"not null" json:"rating"` // 1 to 5
	Comment       string `json:"comment"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}
