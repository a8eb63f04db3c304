package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	FullName    string `gorm:"size:120"`
	PhoneNumber string `gorm:"size:32"`
	AvatarURL   string `gorm:"size:500"`

	// LMPDate is the first day of the last menstrual period; DueDate is
	// derived from it (LMP + 280 days) unless set explicitly.
	LMPDate *time.Time
	DueDate *time.Time

	IsPremium bool `gorm:"not null;default:false"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// PregnancyWeek returns the current gestational week derived from LMPDate,
// or 0 when the LMP is unknown.
func (u *User) PregnancyWeek(now time.Time) int {
	if u.LMPDate == nil {
		return 0
	}
	days := int(now.Sub(*u.LMPDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}

// PasswordReset backs the forgot-password flow. Tokens are single use and
// short lived.
type PasswordReset struct {
	gorm.Model
	UserID    uint   `gorm:"not null;index"`
	Token     string `gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time
}
