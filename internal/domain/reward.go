package domain

// Reward kinds
const (
	RewardEarn   = "earn"
	RewardRedeem = "redeem"
)

// Reward is one entry of a user's reward point ledger.
type Reward struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        uint   `gorm:"index;not null" json:"user_id"`
	AppointmentID *uint  `json:"appointment_id,omitempty"`
	Points        int64  `gorm:"not null" json:"points"`
	Kind          string `gorm:"size:16;not null" json:"kind"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}
