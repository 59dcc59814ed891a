package domain

// Dispute statuses
const (
	DisputeOpen     = "open"
	DisputeResolved = "resolved"
)

// Dispute is a customer's challenge to a completed appointment's payout.
type Dispute struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	AppointmentID uint    `gorm:"uniqueIndex;not null" json:"appointment_id"`
	OpenedBy      uint    `gorm:"not null" json:"opened_by"`
	Reason        string  `gorm:"not null" json:"reason"`
	Status        string  `gorm:"size:16;index;not null" json:"status"`
	Resolution    string  `json:"resolution,omitempty"`
	CustomerShare float64 `json:"customer_share"` // Percent of the paid amount returned to the customer
	ResolvedBy    *uint   `json:"resolved_by,omitempty"`
	ResolvedAt    int64   `json:"resolved_at,omitempty"`
	CreatedAt     int64   `gorm:"autoCreateTime:milli" json:"created_at"`
}
