package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"grievancedesk/internal/events"
	"grievancedesk/internal/repository"
)

type notifier struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// notification is what a citizen is told about their grievance.
type notification struct {
	userID     string
	trackingID string
	subject    string
	body       string
}

// handle decodes one delivery. Malformed bodies are dropped rather than
// requeued since a retry cannot fix them.
func (n *notifier) handle(ctx context.Context, key string, body []byte) error {
	msg, err := compose(key, body)
	if err != nil {
		n.logger.Warn("drop event", "key", key, "error", err)
		return nil
	}
	if msg == nil {
		return nil
	}
	return n.notify(ctx, *msg)
}

func compose(key string, body []byte) (*notification, error) {
	switch key {
	case events.RKGrievanceCreated:
		ev, err := events.Decode[events.GrievanceCreated](body)
		if err != nil {
			return nil, err
		}
		return &notification{
			userID:     ev.SubmittedBy,
			trackingID: ev.TrackingID,
			subject:    "Grievance received",
			body:       fmt.Sprintf("Your grievance %s (%s) has been submitted.", ev.TrackingID, ev.Category),
		}, nil
	case events.RKGrievanceStatusChanged:
		ev, err := events.Decode[events.GrievanceStatusChanged](body)
		if err != nil {
			return nil, err
		}
		return &notification{
			userID:     ev.SubmittedBy,
			trackingID: ev.TrackingID,
			subject:    "Grievance status updated",
			body:       fmt.Sprintf("Your grievance %s moved from %s to %s.", ev.TrackingID, ev.From, ev.To),
		}, nil
	case events.RKGrievanceFeedback:
		ev, err := events.Decode[events.GrievanceFeedback](body)
		if err != nil {
			return nil, err
		}
		return &notification{
			userID:     ev.SubmittedBy,
			trackingID: ev.TrackingID,
			subject:    "New feedback on your grievance",
			body:       fmt.Sprintf("Feedback on %s: %s", ev.TrackingID, ev.Feedback),
		}, nil
	default:
		// deletions are initiated by the citizen
		return nil, nil
	}
}

func (n *notifier) notify(ctx context.Context, msg notification) error {
	user, err := n.users.FindByID(ctx, msg.userID)
	if errors.Is(err, repository.ErrNotFound) {
		n.logger.Info("skip notification, account removed", "user_id", msg.userID, "tracking_id", msg.trackingID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve %s: %w", msg.userID, err)
	}
	n.logger.Info("notify citizen",
		"to", user.Email,
		"tracking_id", msg.trackingID,
		"subject", msg.subject,
		"body", msg.body,
	)
	return nil
}
