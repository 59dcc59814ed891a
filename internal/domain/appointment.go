package domain

// Appointment statuses
const (
	AppointmentPending   = "pending"
	AppointmentApproved  = "approved"
	AppointmentDeclined  = "declined"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
	AppointmentExpired   = "expired"
)

// Payment modes
const (
	PaymentFull    = "full"    // Whole price charged at booking
	PaymentDeposit = "deposit" // Part of the price charged at booking, rest on completion
)

// Appointment is a booking of a stylist's service by a customer.
// ScheduledAt, CompletedAt and the audit timestamps are unix milliseconds.
type Appointment struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Reference       string  `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	CustomerID      uint    `gorm:"index;not null" json:"customer_id"`
	StylistID       uint    `gorm:"index;not null" json:"stylist_id"`
	PortfolioID     uint    `gorm:"index;not null" json:"portfolio_id"`
	ScheduledAt     int64   `gorm:"index;not null" json:"scheduled_at"`
	DurationMinutes int     `gorm:"not null" json:"duration_minutes"`
	Amount          float64 `gorm:"not null" json:"amount"`      // Service price
	AmountPaid      float64 `gorm:"not null" json:"amount_paid"` // Charged towards the price so far
	FeesPaid        float64 `gorm:"not null;default:0" json:"fees_paid"`
	PaymentMode     string  `gorm:"size:16;not null" json:"payment_mode"`
	Commission      float64 `gorm:"not null;default:0" json:"commission"`
	Status          string  `gorm:"size:16;index;not null" json:"status"`
	PendingSince    int64   `gorm:"index;not null;default:0" json:"pending_since"` // When the booking last started waiting for approval
	RescheduleCount int     `gorm:"not null;default:0" json:"reschedule_count"`
	CancelledBy     string  `gorm:"size:16" json:"cancelled_by,omitempty"`
	CancelReason    string  `json:"cancel_reason,omitempty"`
	PenaltyAmount   float64 `gorm:"not null;default:0" json:"penalty_amount"`
	RefundAmount    float64 `gorm:"not null;default:0" json:"refund_amount"`
	CompletedAt     int64   `json:"completed_at,omitempty"`
	CreatedAt       int64   `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt       int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

// EndsAt returns the unix millisecond at which the appointment slot ends.
func (a Appointment) EndsAt() int64 {
	return a.ScheduledAt + int64(a.DurationMinutes)*60_000
}

// IsParticipant reports whether userID is the customer or the stylist.
func (a Appointment) IsParticipant(userID uint) bool {
	return a.CustomerID == userID || a.StylistID == userID
}
