package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department is an organizational unit a grievance may be routed to.
type Department struct {
	ID        string    `json:"_id" bson:"_id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" bson:"name" gorm:"uniqueIndex;size:255;not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
