package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/model"
)

func TestUser_ListByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t, "admin@gov.com")
	f.citizen(t, "a@x.com")
	f.citizen(t, "b@x.com")

	citizens, err := f.userAdmin.List(ctx, admin, model.RoleCitizen)
	require.NoError(t, err)
	assert.Len(t, citizens, 2)

	admins, err := f.userAdmin.List(ctx, admin, model.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@gov.com", admins[0].Email)

	citizen := f.citizen(t, "c@x.com")
	_, err = f.userAdmin.List(ctx, citizen, model.RoleCitizen)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUser_UpdateAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.admin(t, "root@gov.com")
	target := f.admin(t, "ops@gov.com")
	f.citizen(t, "taken@x.com")
	d := f.dept(t, "Water Dept")

	updated, err := f.userAdmin.Update(ctx, actor, model.RoleAdmin, target.ID, UpdateUserInput{
		Fullname:     "Ops Lead",
		Email:        "Lead@Gov.com",
		Password:     "newpass1",
		DepartmentID: &d.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "lead@gov.com", updated.Email)

	stored, err := f.users.FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ops Lead", stored.Fullname)
	require.NotNil(t, stored.DepartmentID)
	assert.Equal(t, d.ID, *stored.DepartmentID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpass1")))

	_, err = f.userAdmin.Update(ctx, actor, model.RoleAdmin, target.ID, UpdateUserInput{Fullname: "X", Email: "taken@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.userAdmin.Update(ctx, actor, model.RoleAdmin, target.ID, UpdateUserInput{Fullname: "", Email: "a@b.com"})
	assert.EqualError(t, err, "Fullname and email are required.")
	_, err = f.userAdmin.Update(ctx, actor, model.RoleAdmin, target.ID, UpdateUserInput{Fullname: "X", Email: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.userAdmin.Update(ctx, actor, model.RoleAdmin, target.ID, UpdateUserInput{Fullname: "X", Email: "a@b.com", Password: "123"})
	assert.EqualError(t, err, "Password must be at least 6 characters.")
	_, err = f.userAdmin.Update(ctx, actor, model.RoleAdmin, target.ID, UpdateUserInput{Fullname: "X", Email: "a@b.com", DepartmentID: strptr("missing")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	cleared, err := f.userAdmin.Update(ctx, actor, model.RoleAdmin, target.ID, UpdateUserInput{Fullname: "X", Email: "a@b.com", DepartmentID: strptr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.DepartmentID)
}

func TestUser_RoleMismatchIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.admin(t, "root@gov.com")
	citizen := f.citizen(t, "c@x.com")

	_, err := f.userAdmin.Update(ctx, actor, model.RoleAdmin, citizen.ID, UpdateUserInput{Fullname: "X", Email: "c@x.com"})
	assert.EqualError(t, err, "Admin not found")
	_, err = f.userAdmin.Delete(ctx, actor, model.RoleCitizen, actor.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.userAdmin.Delete(ctx, actor, model.RoleAdmin, citizen.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUser_DeleteCitizenCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.admin(t, "root@gov.com")
	citizen := f.citizen(t, "c@x.com")
	bystander := f.citizen(t, "d@x.com")

	_, err := f.grievance.Create(ctx, citizen, CreateGrievanceInput{Description: "x"})
	require.NoError(t, err)
	kept, err := f.grievance.Create(ctx, bystander, CreateGrievanceInput{Description: "y"})
	require.NoError(t, err)

	deleted, err := f.userAdmin.Delete(ctx, actor, model.RoleCitizen, citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", deleted.Email)

	_, err = f.users.FindByID(ctx, citizen.ID)
	assert.Error(t, err)
	all, err := f.grievance.ListAll(ctx, actor)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	_, err = f.userAdmin.Delete(ctx, actor, model.RoleCitizen, citizen.ID)
	assert.EqualError(t, err, "Citizen not found")
}

func TestUser_DeleteSelfIsRefused(t *testing.T) {
	f := newFixture(t)
	actor := f.admin(t, "root@gov.com")

	_, err := f.userAdmin.Delete(context.Background(), actor, model.RoleAdmin, actor.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.EqualError(t, err, "You cannot delete your own account from here.")
}
