// internal/models/profile.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Shop struct {
	BaseModel
	Name string `json:"name" gorm:"size:255;not null"`
}

func (Shop) TableName() string { return "shops" }

// Profile is a login account bound to one shop. Role is free text; see
// permissions.IsManager for how it is interpreted.
type Profile struct {
	BaseModel
	ShopID       uuid.UUID  `json:"shop_id" gorm:"type:uuid;not null;index"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	FullName     string     `json:"full_name" gorm:"size:255"`
	Role         string     `json:"role" gorm:"size:50;not null;default:'cashier'"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hashedPassword)
	return nil
}

func (p *Profile) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password))
}
