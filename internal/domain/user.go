package domain

// User roles
const (
	RoleCustomer = "customer" // Books appointments
	RoleStylist  = "stylist"  // Offers services
	RoleAdmin    = "admin"    // Platform operator
)

// User Model
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`                                    // Primary key
	Username     string `gorm:"unique;not null" json:"username"`                         // Unique username
	Email        string `gorm:"size:191" json:"email"`                                   // Contact email
	Password     string `gorm:"not null" json:"-"`                                       // Hashed password
	Role         string `gorm:"default:customer" json:"role"`                            // Role: customer, stylist or admin
	RewardPoints int64  `gorm:"not null;default:0" json:"reward_points"`                 // Unredeemed reward points
	Wallet       Wallet `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"` // One-to-one relationship with Wallet
	CreatedAt    int64  `gorm:"autoCreateTime:milli" json:"created_at"`                  // Timestamp of creation in milliseconds
}
