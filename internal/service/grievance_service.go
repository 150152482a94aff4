package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"grievancedesk/internal/auth"
	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/events"
	"grievancedesk/internal/model"
	"grievancedesk/internal/policy"
	"grievancedesk/internal/repository"
	"grievancedesk/internal/view"
)

const (
	msgInvalidStatus       = "Invalid status value"
	msgDescriptionRequired = "Description is required"
	msgInvalidDepartment   = "Invalid department"
	trackingIDAttempts     = 3
)

// PhotoStore persists an uploaded photo and returns its stored path.
type PhotoStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(stored string) error
}

// StampSource yields strictly increasing millisecond stamps.
type StampSource interface {
	Next() int64
}

// CreateGrievanceInput is a new grievance as submitted by a citizen.
type CreateGrievanceInput struct {
	Category     string
	Description  string
	Address      string
	DepartmentID string
	Photo        *multipart.FileHeader
}

// UpdateGrievanceInput carries optional changes. Nil fields are left alone.
// Status and Feedback apply to admins; the rest apply to the owning citizen.
type UpdateGrievanceInput struct {
	Category     *string
	Description  *string
	Address      *string
	DepartmentID *string
	Photo        *multipart.FileHeader
	// Photos replaces the photo list from a JSON body. Only the current
	// photo may be kept; new photos must arrive as uploads.
	Photos *[]string

	Status   *string
	Feedback *string
}

// GrievanceService implements the grievance lifecycle.
type GrievanceService interface {
	Create(ctx context.Context, actor auth.Identity, in CreateGrievanceInput) (*model.Grievance, error)
	ListMine(ctx context.Context, actor auth.Identity) ([]model.Grievance, error)
	ListAll(ctx context.Context, actor auth.Identity) ([]model.Grievance, error)
	// DepartmentQueue lists grievances routed to the admin's department, or
	// every grievance when the admin has no department.
	DepartmentQueue(ctx context.Context, actor auth.Identity) ([]model.Grievance, error)
	Get(ctx context.Context, actor auth.Identity, id string) (*model.Grievance, error)
	Update(ctx context.Context, actor auth.Identity, id string, in UpdateGrievanceInput) (*model.Grievance, error)
	UpdateStatus(ctx context.Context, actor auth.Identity, id, status string) (model.GrievanceStatus, error)
	Delete(ctx context.Context, actor auth.Identity, id string) error
	Categories(ctx context.Context) ([]string, error)
	// Format resolves references and renders grievances for the response.
	Format(ctx context.Context, baseURL string, list ...model.Grievance) ([]view.Grievance, error)
}

type grievanceService struct {
	grievances  repository.GrievanceRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	authz       *policy.Authorizer
	photos      PhotoStore
	stamps      StampSource
	publisher   events.Publisher
	logger      *slog.Logger
}

// GrievanceDeps groups the collaborators of the grievance service.
type GrievanceDeps struct {
	Grievances  repository.GrievanceRepository
	Departments repository.DepartmentRepository
	Users       repository.UserRepository
	Authz       *policy.Authorizer
	Photos      PhotoStore
	Stamps      StampSource
	Publisher   events.Publisher
	Logger      *slog.Logger
}

// NewGrievanceService creates a new grievance service.
func NewGrievanceService(d GrievanceDeps) GrievanceService {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &grievanceService{
		grievances:  d.Grievances,
		departments: d.Departments,
		users:       d.Users,
		authz:       d.Authz,
		photos:      d.Photos,
		stamps:      d.Stamps,
		publisher:   d.Publisher,
		logger:      d.Logger,
	}
}

func (s *grievanceService) Create(ctx context.Context, actor auth.Identity, in CreateGrievanceInput) (*model.Grievance, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.GrievanceCreate, nil); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperrors.Validation(msgDescriptionRequired)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	deptID, err := s.checkDepartment(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}

	g := &model.Grievance{
		Category:     category,
		Description:  description,
		Address:      strings.TrimSpace(in.Address),
		Status:       model.StatusSubmitted,
		Photos:       model.PhotoList{},
		SubmittedBy:  actor.ID,
		DepartmentID: deptID,
	}
	if in.Photo != nil {
		stored, err := s.photos.Save(in.Photo)
		if err != nil {
			return nil, err
		}
		g.Photos = model.PhotoList{stored}
	}

	if err := s.insert(ctx, g); err != nil {
		for _, p := range g.Photos {
			_ = s.photos.Remove(p)
		}
		return nil, err
	}

	s.publish(ctx, events.RKGrievanceCreated, events.GrievanceCreated{
		GrievanceID:  g.ID,
		TrackingID:   g.TrackingID,
		SubmittedBy:  g.SubmittedBy,
		Category:     g.Category,
		DepartmentID: deref(g.DepartmentID),
		At:           g.CreatedAt,
	})
	return g, nil
}

// insert assigns a tracking id and retries when another process took the same stamp.
func (s *grievanceService) insert(ctx context.Context, g *model.Grievance) error {
	var err error
	for i := 0; i < trackingIDAttempts; i++ {
		g.TrackingID = fmt.Sprintf("GRV-%d", s.stamps.Next())
		if err = s.grievances.Create(ctx, g); err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("create grievance: %w", err)
		}
		g.ID = ""
	}
	return fmt.Errorf("create grievance: tracking id collision: %w", err)
}

func (s *grievanceService) ListMine(ctx context.Context, actor auth.Identity) ([]model.Grievance, error) {
	return s.grievances.List(ctx, repository.GrievanceFilter{SubmittedBy: actor.ID})
}

func (s *grievanceService) ListAll(ctx context.Context, actor auth.Identity) ([]model.Grievance, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.GrievanceListAll, nil); err != nil {
		return nil, err
	}
	return s.grievances.List(ctx, repository.GrievanceFilter{})
}

func (s *grievanceService) DepartmentQueue(ctx context.Context, actor auth.Identity) ([]model.Grievance, error) {
	admin, err := s.authz.Authorize(ctx, actor.ID, policy.GrievanceListAll, nil)
	if err != nil {
		return nil, err
	}
	return s.grievances.List(ctx, repository.GrievanceFilter{DepartmentID: deref(admin.DepartmentID)})
}

func (s *grievanceService) Get(ctx context.Context, actor auth.Identity, id string) (*model.Grievance, error) {
	user, err := s.authz.Actor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	g, err := s.grievances.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Grievance")
	}
	if err := s.authz.Check(user, policy.GrievanceView, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *grievanceService) Update(ctx context.Context, actor auth.Identity, id string, in UpdateGrievanceInput) (*model.Grievance, error) {
	user, err := s.authz.Actor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	g, err := s.grievances.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Grievance")
	}
	if user.IsAdmin() {
		return s.manage(ctx, user, g, in)
	}
	if err := s.authz.Check(user, policy.GrievanceEdit, g); err != nil {
		return nil, err
	}
	return s.edit(ctx, g, in)
}

// manage applies the admin-only fields: status and feedback.
func (s *grievanceService) manage(ctx context.Context, admin *model.User, g *model.Grievance, in UpdateGrievanceInput) (*model.Grievance, error) {
	if err := s.authz.Check(admin, policy.GrievanceManage, g); err != nil {
		return nil, err
	}
	prev := g.Status
	if in.Status != nil && *in.Status != "" {
		status := model.GrievanceStatus(*in.Status)
		if !status.Valid() {
			return nil, apperrors.Validation(msgInvalidStatus)
		}
		g.Status = status
	}
	feedbackChanged := false
	if in.Feedback != nil && *in.Feedback != "" && *in.Feedback != g.Feedback {
		g.Feedback = *in.Feedback
		feedbackChanged = true
	}
	if err := s.grievances.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("update grievance: %w", err)
	}

	now := time.Now().UTC()
	if g.Status != prev {
		s.publish(ctx, events.RKGrievanceStatusChanged, events.GrievanceStatusChanged{
			GrievanceID: g.ID, TrackingID: g.TrackingID, SubmittedBy: g.SubmittedBy,
			From: prev, To: g.Status, At: now,
		})
	}
	if feedbackChanged {
		s.publish(ctx, events.RKGrievanceFeedback, events.GrievanceFeedback{
			GrievanceID: g.ID, TrackingID: g.TrackingID, SubmittedBy: g.SubmittedBy,
			Feedback: g.Feedback, At: now,
		})
	}
	return g, nil
}

// edit applies the citizen-editable content fields.
func (s *grievanceService) edit(ctx context.Context, g *model.Grievance, in UpdateGrievanceInput) (*model.Grievance, error) {
	if v := trimmedPtr(in.Description); v != nil {
		g.Description = *v
	}
	if v := trimmedPtr(in.Address); v != nil {
		g.Address = *v
	}
	if v := trimmedPtr(in.Category); v != nil {
		g.Category = *v
	}
	if v := trimmedPtr(in.DepartmentID); v != nil {
		deptID, err := s.checkDepartment(ctx, *v)
		if err != nil {
			return nil, err
		}
		g.DepartmentID = deptID
	}

	var stored string
	switch {
	case in.Photo != nil:
		var err error
		if stored, err = s.photos.Save(in.Photo); err != nil {
			return nil, err
		}
		g.Photos = model.PhotoList{stored}
	case in.Photos != nil:
		kept, err := keepPhotos(g.Photos, *in.Photos)
		if err != nil {
			return nil, err
		}
		g.Photos = kept
	}

	if err := s.grievances.Update(ctx, g); err != nil {
		if stored != "" {
			_ = s.photos.Remove(stored)
		}
		return nil, fmt.Errorf("update grievance: %w", err)
	}
	return g, nil
}

// keepPhotos accepts a JSON photo list only if it is a subset of the current one.
func keepPhotos(current model.PhotoList, requested []string) (model.PhotoList, error) {
	if len(requested) > 1 {
		return nil, apperrors.Validation("Too many files: only one photo is allowed")
	}
	out := model.PhotoList{}
	for _, p := range requested {
		found := false
		for _, c := range current {
			if c == p {
				found = true
				break
			}
		}
		if !found {
			return nil, apperrors.Validation("Photos must be uploaded as files")
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *grievanceService) UpdateStatus(ctx context.Context, actor auth.Identity, id, status string) (model.GrievanceStatus, error) {
	if _, err := s.authz.Authorize(ctx, actor.ID, policy.GrievanceManage, nil); err != nil {
		return "", err
	}
	next := model.GrievanceStatus(status)
	if !next.Valid() {
		return "", apperrors.Validation(msgInvalidStatus)
	}
	g, err := s.grievances.FindByID(ctx, id)
	if err != nil {
		return "", notFound(err, "Grievance")
	}
	if g.Status == next {
		return next, nil
	}
	if err := s.grievances.UpdateStatus(ctx, id, next); err != nil {
		return "", fmt.Errorf("update status: %w", err)
	}
	s.publish(ctx, events.RKGrievanceStatusChanged, events.GrievanceStatusChanged{
		GrievanceID: g.ID, TrackingID: g.TrackingID, SubmittedBy: g.SubmittedBy,
		From: g.Status, To: next, At: time.Now().UTC(),
	})
	return next, nil
}

func (s *grievanceService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	user, err := s.authz.Actor(ctx, actor.ID)
	if err != nil {
		return err
	}
	// admins are refused before the lookup so they learn nothing about ids
	if user.IsAdmin() {
		return s.authz.Check(user, policy.GrievanceDelete, nil)
	}
	g, err := s.grievances.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Grievance")
	}
	if err := s.authz.Check(user, policy.GrievanceDelete, g); err != nil {
		return err
	}
	if err := s.grievances.Delete(ctx, id); err != nil {
		return notFound(err, "Grievance")
	}
	s.publish(ctx, events.RKGrievanceDeleted, events.GrievanceDeleted{
		GrievanceID: g.ID, TrackingID: g.TrackingID, SubmittedBy: g.SubmittedBy, At: time.Now().UTC(),
	})
	return nil
}

func (s *grievanceService) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.grievances.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	sort.Strings(cats)
	return cats, nil
}

func (s *grievanceService) Format(ctx context.Context, baseURL string, list ...model.Grievance) ([]view.Grievance, error) {
	lookup, err := s.lookup(ctx, list)
	if err != nil {
		return nil, err
	}
	return view.FormatGrievances(list, lookup, baseURL), nil
}

// lookup batch-loads the departments and submitters referenced by list.
func (s *grievanceService) lookup(ctx context.Context, list []model.Grievance) (view.Lookup, error) {
	deptIDs := map[string]struct{}{}
	userIDs := map[string]struct{}{}
	for i := range list {
		if id := deref(list[i].DepartmentID); id != "" {
			deptIDs[id] = struct{}{}
		}
		userIDs[list[i].SubmittedBy] = struct{}{}
	}

	depts, err := s.departments.FindByIDs(ctx, keys(deptIDs))
	if err != nil {
		return view.Lookup{}, fmt.Errorf("load departments: %w", err)
	}
	users, err := s.users.FindByIDs(ctx, keys(userIDs))
	if err != nil {
		return view.Lookup{}, fmt.Errorf("load users: %w", err)
	}

	out := view.Lookup{
		Departments: make(map[string]model.Department, len(depts)),
		Users:       make(map[string]model.User, len(users)),
	}
	for _, d := range depts {
		out.Departments[d.ID] = d
	}
	for _, u := range users {
		out.Users[u.ID] = u
	}
	return out, nil
}

// checkDepartment returns nil for a blank id and rejects ids that do not exist.
func (s *grievanceService) checkDepartment(ctx context.Context, id string) (*string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	if _, err := s.departments.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Validation(msgInvalidDepartment)
		}
		return nil, err
	}
	return &id, nil
}

func (s *grievanceService) publish(ctx context.Context, key string, ev any) {
	if err := s.publisher.Publish(ctx, key, ev); err != nil {
		s.logger.Warn("publish grievance event", "key", key, "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
