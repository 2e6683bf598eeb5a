package models

import "time"

// User is a registered account. Email is the identity and is unique at the
// storage layer. An unverified user holds the OTP code that was mailed at
// signup; verification sets Verified and clears the code.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty" gorm:"primaryKey"`
	Name         string    `json:"name" bson:"name" gorm:"not null"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" bson:"password" gorm:"not null"` // Never exposed in API responses
	Verified     bool      `json:"verified" bson:"is_verified" gorm:"not null;default:false"`
	OTPCode      string    `json:"-" bson:"otp_code,omitempty" gorm:"column:otp_code"` // Empty once the account is verified
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
