// Package model contains the records persisted by the nasweb store.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber is a contact-form submission.
type Subscriber struct {
	Id          string    `json:"id" gorm:"primaryKey;type:text"`
	FirstName   string    `json:"firstName" gorm:"column:first_name;not null"`
	LastName    string    `json:"lastName" gorm:"column:last_name;not null"`
	Email       string    `json:"email" gorm:"not null"`
	SubmittedAt time.Time `json:"submittedAt" gorm:"index"`
}

func (s *Subscriber) BeforeCreate(tx *gorm.DB) error {
	if s.Id == "" {
		s.Id = uuid.NewString()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	return nil
}
