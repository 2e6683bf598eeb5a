package models

import "time"

// Mark records one completed quiz attempt. Marks are immutable: written once
// when a score is submitted, never updated or deleted.
type Mark struct {
	ID        string    `json:"id" bson:"_id,omitempty" gorm:"primaryKey"`
	UserID    string    `json:"user_id" bson:"user_id" gorm:"index;not null"`
	Score     int       `json:"score" bson:"score" gorm:"not null"`
	Total     int       `json:"total" bson:"total" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" bson:"timestamp"`
}
