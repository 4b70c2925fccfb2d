package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	FullName    string    `gorm:"not null;column:full_name" json:"full_name"`
	Locale      string    `gorm:"column:locale;not null;default:'en'" json:"locale"`
	DateFormat  string    `gorm:"column:date_format;not null;default:'MM/DD/YYYY'" json:"date_format"`
	CountryCode string    `gorm:"column:country_code" json:"country_code"`

	// The agent identity users mention in comments is a regular user row
	// flagged as system. Exactly one row should carry the flag.
	IsSystem bool `gorm:"column:is_system;not null;default:false;index" json:"is_system"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
