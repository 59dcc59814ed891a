package domain

// Transaction types
const (
	TxTopup              = "topup"               // Gateway payment credited to a wallet
	TxBooking            = "booking"             // Upfront payment for an appointment
	TxBalancePayment     = "balance_payment"     // Remaining amount charged on completion
	TxRescheduleFee      = "reschedule_fee"      // Fee for a late reschedule
	TxRefund             = "refund"              // Money returned to a customer
	TxPayout             = "payout"              // Pouch released to a stylist
	TxTip                = "tip"                 // Customer to stylist transfer
	TxReward             = "reward"              // Reward points redeemed into the wallet
	TxWithdrawal         = "withdrawal"          // Stylist cash-out request
	TxWithdrawalReversal = "withdrawal_reversal" // Rejected withdrawal returned
)

// Transaction Model
type Transaction struct {
	ID            uint    `gorm:"primaryKey" json:"id"`                   // Primary key
	FromWalletID  *uint   `gorm:"index" json:"from_wallet_id"`            // Foreign key to Wallet of the sender
	ToWalletID    *uint   `gorm:"index" json:"to_wallet_id"`              // Foreign key to Wallet of the receiver
	AppointmentID *uint   `gorm:"index" json:"appointment_id,omitempty"`  // Appointment the movement settles, if any
	Amount        float64 `json:"amount"`                                 // Amount of the transaction
	Type          string  `gorm:"size:32;index" json:"type"`              // One of the Tx* constants
	Reference     string  `gorm:"size:64" json:"reference,omitempty"`     // External or booking reference
	CreatedAt     int64   `gorm:"autoCreateTime:milli" json:"created_at"` // Timestamp of creation in milliseconds
}
