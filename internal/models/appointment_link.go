package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// DefaultLinkExpiryDays is applied when a link is created without an expiry.
const DefaultLinkExpiryDays = 90

// AppointmentLink is a shareable bearer token that lets an unauthenticated
// patient schedule an appointment. A link becomes permanently unusable once it
// is deactivated, expires, or reaches its use limit.
type AppointmentLink struct {
	BaseModel
	Token       string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	DoctorID    *string    `gorm:"size:36" json:"doctorId"` // nil means any active doctor
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	MaxUses     int        `gorm:"default:1" json:"maxUses"`
	CurrentUses int        `gorm:"default:0" json:"currentUses"`

	// Relations
	Doctor *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

// BeforeCreate generates the bearer token and default expiry when absent.
func (l *AppointmentLink) BeforeCreate(tx *gorm.DB) error {
	if err := l.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if l.Token == "" {
		token, err := GenerateLinkToken()
		if err != nil {
			return err
		}
		l.Token = token
	}
	if l.ExpiresAt == nil {
		expires := time.Now().AddDate(0, 0, DefaultLinkExpiryDays)
		l.ExpiresAt = &expires
	}
	return nil
}

// GenerateLinkToken returns a hex-encoded 32-byte random token.
func GenerateLinkToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
