package domain

// Pouch statuses
const (
	PouchHeld     = "held"     // Waiting for release
	PouchFrozen   = "frozen"   // Under dispute
	PouchReleased = "released" // Paid out to the stylist
	PouchRefunded = "refunded" // Nothing owed to the stylist
)

// Pouch holds a stylist's earnings for one appointment until release.
// Amount is net of Commission. ReleaseAt is zero until the appointment ends
// in completion or cancellation.
type Pouch struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	AppointmentID uint    `gorm:"uniqueIndex;not null" json:"appointment_id"`
	StylistID     uint    `gorm:"index;not null" json:"stylist_id"`
	Amount        float64 `gorm:"not null" json:"amount"`
	Commission    float64 `gorm:"not null;default:0" json:"commission"`
	Status        string  `gorm:"size:16;index;not null" json:"status"`
	ReleaseAt     int64   `gorm:"index;not null;default:0" json:"release_at"`
	ReleasedAt    int64   `json:"released_at,omitempty"`
	CreatedAt     int64   `gorm:"autoCreateTime:milli" json:"created_at"`
}
