package domain

// Withdrawal statuses
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// Withdrawal is a stylist's request to cash out wallet funds.
type Withdrawal struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Reference string  `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	StylistID uint    `gorm:"index;not null" json:"stylist_id"`
	Amount    float64 `gorm:"not null" json:"amount"`
	Status    string  `gorm:"size:16;index;not null" json:"status"`
	CreatedAt int64   `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`
}
