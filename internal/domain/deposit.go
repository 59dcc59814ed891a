package domain

// Deposit statuses
const (
	DepositHeld      = "held"
	DepositApplied   = "applied"
	DepositRefunded  = "refunded"
	DepositForfeited = "forfeited"
)

// Deposit records the partial pre-payment taken for a deposit-mode booking.
type Deposit struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	AppointmentID uint    `gorm:"uniqueIndex;not null" json:"appointment_id"`
	CustomerID    uint    `gorm:"index;not null" json:"customer_id"`
	Amount        float64 `gorm:"not null" json:"amount"`
	Status        string  `gorm:"size:16;not null" json:"status"`
	CreatedAt     int64   `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt     int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`
}
