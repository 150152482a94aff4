// Package events carries grievance lifecycle events over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"time"

	"grievancedesk/internal/model"
)

// Routing keys published on the grievance exchange.
const (
	RKGrievanceCreated       = "grievance.created"
	RKGrievanceStatusChanged = "grievance.status_changed"
	RKGrievanceFeedback      = "grievance.feedback"
	RKGrievanceDeleted       = "grievance.deleted"
)

// AllKeys is what a consumer binds to by default.
var AllKeys = []string{"grievance.#"}

type GrievanceCreated struct {
	GrievanceID  string    `json:"grievanceId"`
	TrackingID   string    `json:"trackingId"`
	SubmittedBy  string    `json:"submittedBy"`
	Category     string    `json:"category"`
	DepartmentID string    `json:"departmentId,omitempty"`
	At           time.Time `json:"at"`
}

type GrievanceStatusChanged struct {
	GrievanceID string                `json:"grievanceId"`
	TrackingID  string                `json:"trackingId"`
	SubmittedBy string                `json:"submittedBy"`
	From        model.GrievanceStatus `json:"from"`
	To          model.GrievanceStatus `json:"to"`
	At          time.Time             `json:"at"`
}

type GrievanceFeedback struct {
	GrievanceID string    `json:"grievanceId"`
	TrackingID  string    `json:"trackingId"`
	SubmittedBy string    `json:"submittedBy"`
	Feedback    string    `json:"feedback"`
	At          time.Time `json:"at"`
}

type GrievanceDeleted struct {
	GrievanceID string    `json:"grievanceId"`
	TrackingID  string    `json:"trackingId"`
	SubmittedBy string    `json:"submittedBy"`
	At          time.Time `json:"at"`
}

// Publisher sends an event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

// Decode unmarshals an event body.
func Decode[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}
