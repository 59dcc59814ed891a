package domain

// Portfolio is a service a stylist offers for booking.
type Portfolio struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	StylistID       uint    `gorm:"index;not null" json:"stylist_id"`
	Title           string  `gorm:"size:191;not null" json:"title"`
	Description     string  `json:"description"`
	Price           float64 `gorm:"not null" json:"price"`
	DurationMinutes int     `gorm:"not null" json:"duration_minutes"`
	Active          bool    `gorm:"not null;default:true" json:"active"`
	CreatedAt       int64   `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt       int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`
}
