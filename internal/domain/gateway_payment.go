package domain

// Gateway payment statuses
const (
	GatewayPending   = "pending"
	GatewayComplete  = "complete"
	GatewayFailed    = "failed"
	GatewayCancelled = "cancelled"
)

// GatewayPayment tracks a wallet top-up made through the payment gateway.
type GatewayPayment struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Reference        string  `gorm:"size:64;uniqueIndex;not null" json:"reference"` // Sent to the gateway as m_payment_id
	UserID           uint    `gorm:"index;not null" json:"user_id"`
	Amount           float64 `gorm:"not null" json:"amount"`
	Status           string  `gorm:"size:16;not null" json:"status"`
	GatewayPaymentID string  `gorm:"size:64" json:"gateway_payment_id,omitempty"`
	CreatedAt        int64   `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt        int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`
}
