// Package policy decides whether an actor may perform an action on a resource.
//
// Every decision starts from the actor's stored record, never from token
// claims, so a demoted admin loses admin rights on the next request.
package policy

import (
	"context"
	"errors"

	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/model"
	"grievancedesk/internal/repository"
)

// Action names an operation subject to authorization.
type Action string

const (
	GrievanceCreate  Action = "grievance:create"
	GrievanceView    Action = "grievance:view"
	GrievanceEdit    Action = "grievance:edit"
	GrievanceDelete  Action = "grievance:delete"
	GrievanceManage  Action = "grievance:manage"
	GrievanceListAll Action = "grievance:list-all"
	GrievanceStats   Action = "grievance:stats"
	DepartmentManage Action = "department:manage"
	UserManage       Action = "user:manage"
)

const (
	msgAdminsOnly       = "Access denied. Admins only."
	msgCitizensOnly     = "Only citizens can submit grievances."
	msgNotOwner         = "Access denied"
	msgNotEditable      = "Grievance can no longer be changed once it is being processed."
	msgAdminsCantDelete = "Admins are not allowed to delete grievances."
)

// Rule evaluates one action for a freshly loaded actor.
type Rule func(actor *model.User, resource any) error

// Authorizer evaluates rules against the stored state of the actor.
type Authorizer struct {
	users repository.UserRepository
	rules map[Action]Rule
}

// New builds an Authorizer with the default rule set.
func New(users repository.UserRepository) *Authorizer {
	return &Authorizer{
		users: users,
		rules: map[Action]Rule{
			GrievanceCreate:  citizenOnly,
			GrievanceView:    adminOrOwner,
			GrievanceEdit:    ownerWhileSubmitted,
			GrievanceDelete:  ownerDeleteWhileSubmitted,
			GrievanceManage:  adminOnly,
			GrievanceListAll: adminOnly,
			GrievanceStats:   adminOnly,
			DepartmentManage: adminOnly,
			UserManage:       adminOnly,
		},
	}
}

// Actor loads the current state of the caller. A caller whose account no
// longer exists is treated as holding an invalid token.
func (a *Authorizer) Actor(ctx context.Context, actorID string) (*model.User, error) {
	user, err := a.users.FindByID(ctx, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authorize loads the actor and evaluates action against resource.
// The loaded actor is returned so callers can branch on the stored role.
func (a *Authorizer) Authorize(ctx context.Context, actorID string, action Action, resource any) (*model.User, error) {
	actor, err := a.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := a.Check(actor, action, resource); err != nil {
		return nil, err
	}
	return actor, nil
}

// Check evaluates action for an already loaded actor. Unknown actions are denied.
func (a *Authorizer) Check(actor *model.User, action Action, resource any) error {
	rule, ok := a.rules[action]
	if !ok {
		return apperrors.Forbidden(msgNotOwner)
	}
	return rule(actor, resource)
}

func adminOnly(actor *model.User, _ any) error {
	if actor.IsAdmin() {
		return nil
	}
	return apperrors.Forbidden(msgAdminsOnly)
}

func citizenOnly(actor *model.User, _ any) error {
	if actor.Role == model.RoleCitizen {
		return nil
	}
	return apperrors.Forbidden(msgCitizensOnly)
}

func adminOrOwner(actor *model.User, resource any) error {
	if actor.IsAdmin() {
		return nil
	}
	return owns(actor, resource)
}

func ownerWhileSubmitted(actor *model.User, resource any) error {
	if err := owns(actor, resource); err != nil {
		return err
	}
	return submitted(resource)
}

func ownerDeleteWhileSubmitted(actor *model.User, resource any) error {
	if actor.IsAdmin() {
		return apperrors.Forbidden(msgAdminsCantDelete)
	}
	return ownerWhileSubmitted(actor, resource)
}

func owns(actor *model.User, resource any) error {
	g, ok := resource.(*model.Grievance)
	if !ok || g == nil || g.OwnerID() != actor.ID {
		return apperrors.Forbidden(msgNotOwner)
	}
	return nil
}

func submitted(resource any) error {
	g := resource.(*model.Grievance)
	if g.Status != model.StatusSubmitted {
		return apperrors.Forbidden(msgNotEditable)
	}
	return nil
}
