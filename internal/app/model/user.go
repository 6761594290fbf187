package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User signs in with one-time codes only; there is no password.
type User struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Email           *string        `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone           *string        `gorm:"uniqueIndex" json:"phone,omitempty"` // normalized +91XXXXXXXXXX
	Name            string         `json:"name"`
	Role            UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"`
	OTPHash         string         `gorm:"column:otp_hash" json:"-"` // bcrypt hash of the pending code
	OTPExpiresAt    *time.Time     `gorm:"column:otp_expires_at" json:"-"`
	LastOTPSentAt   *time.Time     `gorm:"column:last_otp_sent_at" json:"-"`
	OTPRequestCount int            `gorm:"column:otp_request_count;default:0" json:"-"`
	OTPRequestDate  *time.Time     `gorm:"column:otp_request_date" json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Addresses []Address `gorm:"foreignKey:UserID" json:"addresses,omitempty"`
}

func (User) TableName() string {
	return "users"
}
