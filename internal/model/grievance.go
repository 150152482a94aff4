package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GrievanceStatus represents the triage state of a grievance.
// Any status may follow any other.
type GrievanceStatus string

const (
	StatusSubmitted  GrievanceStatus = "Submitted"
	StatusInProgress GrievanceStatus = "In Progress"
	StatusResolved   GrievanceStatus = "Resolved"
)

// Statuses lists every valid status in display order.
var Statuses = []GrievanceStatus{StatusSubmitted, StatusInProgress, StatusResolved}

// Valid reports whether s is one of the enumerated statuses.
func (s GrievanceStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultCategory is stored when a grievance is created without a category.
const DefaultCategory = "General"

// PhotoList holds relative photo paths. It is persisted as a JSON array.
type PhotoList []string

// Value implements driver.Valuer.
func (p PhotoList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *PhotoList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PhotoList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("photo list: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*p = PhotoList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("photo list: %w", err)
	}
	*p = out
	return nil
}

// Grievance is a citizen-submitted complaint.
//
// DepartmentID is a plain id without a foreign-key constraint: deleting a
// department leaves it dangling and readers resolve the name at read time.
type Grievance struct {
	ID           string          `json:"_id" bson:"_id" gorm:"type:char(36);primaryKey"`
	TrackingID   string          `json:"trackingId" bson:"trackingId" gorm:"uniqueIndex;size:64;not null"`
	Category     string          `json:"category" bson:"category" gorm:"size:255;not null;index"`
	Description  string          `json:"description" bson:"description" gorm:"type:text;not null"`
	Address      string          `json:"address" bson:"address" gorm:"type:text"`
	Status       GrievanceStatus `json:"status" bson:"status" gorm:"type:varchar(20);not null;default:'Submitted';index"`
	Photos       PhotoList       `json:"photos" bson:"photos" gorm:"type:text"`
	SubmittedBy  string          `json:"submittedBy" bson:"submittedBy" gorm:"type:char(36);not null;index"`
	DepartmentID *string         `json:"department,omitempty" bson:"department,omitempty" gorm:"type:char(36);index"`
	Feedback     string          `json:"feedback" bson:"feedback" gorm:"type:text"`
	CreatedAt    time.Time       `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt    time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (g *Grievance) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// OwnerID returns the id of the citizen who filed the grievance.
func (g *Grievance) OwnerID() string {
	return g.SubmittedBy
}

// FirstPhoto returns the only photo path that is ever rendered, or "".
func (g *Grievance) FirstPhoto() string {
	if len(g.Photos) == 0 {
		return ""
	}
	return g.Photos[0]
}
