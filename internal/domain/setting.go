package domain

// Setting is an admin-tunable numeric platform setting.
type Setting struct {
	Name  string  `gorm:"primaryKey;size:64" json:"name"`
	Value float64 `gorm:"not null" json:"value"`
}
