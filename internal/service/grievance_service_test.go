package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievancedesk/internal/auth"
	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/events"
	"grievancedesk/internal/model"
	"grievancedesk/internal/repository"
	"grievancedesk/internal/storage"
	"grievancedesk/internal/view"
)

const baseURL = "http://api.test"

func TestGrievance_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	stored, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCitizen, stored.Role)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	token, err := f.auth.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCitizen, claims.User.Role)
}

func TestGrievance_CreateWithDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	d1 := f.dept(t, "Public Works")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{
		Category:     " Pothole ",
		Description:  "Deep pothole on 5th street",
		Address:      "5th street",
		DepartmentID: d1.ID,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(g.TrackingID, "GRV-"))

	out, err := f.grievance.Format(ctx, baseURL, *g)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.StatusSubmitted, out[0].Status)
	assert.Empty(t, out[0].Photos)
	assert.Equal(t, "", out[0].Feedback)
	assert.Equal(t, "Pothole", out[0].Category)
	assert.Equal(t, view.DepartmentRef{ID: d1.ID, Name: "Public Works"}, out[0].Department)
	assert.Equal(t, &view.UserRef{ID: owner.ID, Email: "c@x.com"}, out[0].SubmittedBy)
	assert.Equal(t, []string{events.RKGrievanceCreated}, f.events.keys())
}

func TestGrievance_CreateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	admin := f.admin(t, "admin@gov.com")

	_, err := f.grievance.Create(ctx, admin, CreateGrievanceInput{Description: "x"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x", DepartmentID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategory, g.Category)
	assert.Nil(t, g.DepartmentID)
}

func TestGrievance_AdminUpdateKeepsContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	admin := f.admin(t, "admin@gov.com")
	d1 := f.dept(t, "Public Works")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{
		Category: "Pothole", Description: "hole", Address: "Main St", DepartmentID: d1.ID,
	})
	require.NoError(t, err)

	_, err = f.grievance.Update(ctx, admin, g.ID, UpdateGrievanceInput{
		Status:      strptr("Resolved"),
		Feedback:    strptr("Fixed"),
		Description: strptr("admin rewrite"),
		Category:    strptr("Other"),
	})
	require.NoError(t, err)

	got, err := f.grievance.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, got.Status)
	assert.Equal(t, "Fixed", got.Feedback)
	assert.Equal(t, "hole", got.Description)
	assert.Equal(t, "Main St", got.Address)
	assert.Equal(t, "Pothole", got.Category)
	assert.Equal(t, owner.ID, got.SubmittedBy)
	assert.Equal(t, g.TrackingID, got.TrackingID)

	assert.Equal(t, []string{
		events.RKGrievanceCreated,
		events.RKGrievanceStatusChanged,
		events.RKGrievanceFeedback,
	}, f.events.keys())

	_, err = f.grievance.Update(ctx, admin, g.ID, UpdateGrievanceInput{Status: strptr("Closed")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGrievance_CitizenUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	other := f.citizen(t, "d@x.com")
	admin := f.admin(t, "admin@gov.com")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "hole", Photo: photoHeader(t, "a.png", pngBytes)})
	require.NoError(t, err)
	first := g.FirstPhoto()

	_, err = f.grievance.Update(ctx, other, g.ID, UpdateGrievanceInput{Description: strptr("mine now")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := f.grievance.Update(ctx, owner, g.ID, UpdateGrievanceInput{
		Description: strptr("bigger hole"),
		Status:      strptr("Resolved"),
		Photo:       photoHeader(t, "b.gif", []byte("GIF89a....")),
	})
	require.NoError(t, err)
	assert.Equal(t, "bigger hole", updated.Description)
	assert.Equal(t, model.StatusSubmitted, updated.Status, "citizens cannot change status")
	require.Len(t, updated.Photos, 1)
	assert.NotEqual(t, first, updated.FirstPhoto())
	assert.True(t, strings.HasSuffix(updated.FirstPhoto(), ".gif"))

	_, err = f.grievance.Update(ctx, owner, g.ID, UpdateGrievanceInput{Photos: &[]string{"uploads/../../etc/passwd"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	cleared, err := f.grievance.Update(ctx, owner, g.ID, UpdateGrievanceInput{Photos: &[]string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Photos)

	_, err = f.grievance.UpdateStatus(ctx, admin, g.ID, string(model.StatusInProgress))
	require.NoError(t, err)
	_, err = f.grievance.Update(ctx, owner, g.ID, UpdateGrievanceInput{Description: strptr("too late")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGrievance_PhotoRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x", Photo: photoHeader(t, "street.JPG", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"))})
	require.NoError(t, err)

	got, err := f.grievance.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	out, err := f.grievance.Format(ctx, baseURL, *got)
	require.NoError(t, err)
	require.Len(t, out[0].Photos, 1)

	name := filepath.Base(got.FirstPhoto())
	assert.Equal(t, baseURL+"/uploads/"+name, out[0].Photos[0].URL)
	_, err = os.Stat(filepath.Join(f.uploadDir, name))
	assert.NoError(t, err)
}

// brokenUpdates fails every grievance update.
type brokenUpdates struct {
	repository.GrievanceRepository
}

func (brokenUpdates) Update(context.Context, *model.Grievance) error {
	return errors.New("connection reset")
}

func TestGrievance_ReplacementPhotoRemovedWhenUpdateFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x"})
	require.NoError(t, err)

	svc := NewGrievanceService(GrievanceDeps{
		Grievances:  brokenUpdates{f.grievances},
		Departments: f.departments,
		Users:       f.users,
		Authz:       f.authz,
		Photos:      f.photos,
		Stamps:      storage.NewStamper(),
		Publisher:   f.events,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	_, err = svc.Update(ctx, owner, g.ID, UpdateGrievanceInput{Photo: photoHeader(t, "new.png", pngBytes)})
	require.Error(t, err)

	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGrievance_UpdateStatusIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	admin := f.admin(t, "admin@gov.com")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		status, err := f.grievance.UpdateStatus(ctx, admin, g.ID, "In Progress")
		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, status)
		got, err := f.grievances.FindByID(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, got.Status)
	}
	assert.Equal(t, []string{events.RKGrievanceCreated, events.RKGrievanceStatusChanged}, f.events.keys())

	_, err = f.grievance.UpdateStatus(ctx, admin, g.ID, "Done")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.grievance.UpdateStatus(ctx, admin, "missing", "Resolved")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.grievance.UpdateStatus(ctx, owner, g.ID, "Resolved")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGrievance_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	other := f.citizen(t, "d@x.com")
	admin := f.admin(t, "admin@gov.com")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x"})
	require.NoError(t, err)

	err = f.grievance.Delete(ctx, admin, g.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, "Admins are not allowed to delete grievances.", err.Error())

	assert.ErrorIs(t, f.grievance.Delete(ctx, other, g.ID), apperrors.ErrForbidden)

	require.NoError(t, f.grievance.Delete(ctx, owner, g.ID))
	_, err = f.grievance.Get(ctx, owner, g.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, f.grievance.Delete(ctx, owner, g.ID), apperrors.ErrNotFound)
}

func TestGrievance_DeletedDepartmentDangles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	admin := f.admin(t, "admin@gov.com")
	d1 := f.dept(t, "Water Dept")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "leak", DepartmentID: d1.ID})
	require.NoError(t, err)

	require.NoError(t, f.department.Delete(ctx, admin, d1.ID))

	got, err := f.grievance.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DepartmentID)
	assert.Equal(t, d1.ID, *got.DepartmentID)

	out, err := f.grievance.Format(ctx, baseURL, *got)
	require.NoError(t, err)
	assert.Equal(t, view.DepartmentRef{Name: "N/A"}, out[0].Department)
}

func TestGrievance_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	other := f.citizen(t, "d@x.com")
	admin := f.admin(t, "admin@gov.com")

	g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x"})
	require.NoError(t, err)
	_, err = f.grievance.Create(ctx, other, CreateGrievanceInput{Description: "y"})
	require.NoError(t, err)

	_, err = f.grievance.Get(ctx, other, g.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.grievance.Get(ctx, admin, g.ID)
	assert.NoError(t, err)

	mine, err := f.grievance.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, g.ID, mine[0].ID)

	_, err = f.grievance.ListAll(ctx, owner)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	all, err := f.grievance.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGrievance_DepartmentQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")
	water := f.dept(t, "Water Dept")
	power := f.dept(t, "Electricity Dept")

	hashed, err := hashPassword("secret1")
	require.NoError(t, err)
	waterAdmin := &model.User{Email: "w@gov.com", Fullname: "W", PasswordHash: hashed, Role: model.RoleAdmin, DepartmentID: &water.ID}
	require.NoError(t, f.users.Create(ctx, waterAdmin))
	anyAdmin := f.admin(t, "any@gov.com")

	_, err = f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "leak", DepartmentID: water.ID})
	require.NoError(t, err)
	_, err = f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "outage", DepartmentID: power.ID})
	require.NoError(t, err)

	queue, err := f.grievance.DepartmentQueue(ctx, auth.Identity{ID: waterAdmin.ID})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "leak", queue[0].Description)

	all, err := f.grievance.DepartmentQueue(ctx, anyAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.grievance.DepartmentQueue(ctx, owner)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGrievance_TrackingIDsAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")

	const n = 20
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		g, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x"})
		require.NoError(t, err)
		assert.False(t, seen[g.TrackingID], "duplicate tracking id %s", g.TrackingID)
		seen[g.TrackingID] = true
	}
	assert.Len(t, seen, n)
}

func TestGrievance_Categories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.citizen(t, "c@x.com")

	for _, c := range []string{"Water", "Roads", "Water", ""} {
		_, err := f.grievance.Create(ctx, owner, CreateGrievanceInput{Description: "x", Category: c})
		require.NoError(t, err)
	}
	cats, err := f.grievance.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "Roads", "Water"}, cats)
}
