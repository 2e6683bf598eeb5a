package models

import "time"

// ContactMessage is a write-only archive entry from the public contact form.
// The application stores these and never reads them back.
type ContactMessage struct {
	ID        string    `json:"id" bson:"_id,omitempty" gorm:"primaryKey"`
	Name      string    `json:"name" bson:"name" gorm:"not null"`
	Email     string    `json:"email" bson:"email" gorm:"not null"`
	Phone     string    `json:"phone" bson:"phone,omitempty"`
	Message   string    `json:"message" bson:"message" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" bson:"timestamp"`
}
