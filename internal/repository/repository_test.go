package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"grievancedesk/internal/db"
	"grievancedesk/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.NewGorm("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, true))
	return gdb
}

func strPtr(s string) *string { return &s }

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, &model.User{Email: "a@x.com", PasswordHash: "h", Role: model.RoleCitizen}))
	err := repo.Create(ctx, &model.User{Email: "a@x.com", PasswordHash: "h", Role: model.RoleCitizen})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	users := NewUserRepository(gdb)
	grievances := NewGrievanceRepository(gdb)

	owner := &model.User{Email: "c@x.com", PasswordHash: "h", Role: model.RoleCitizen}
	other := &model.User{Email: "d@x.com", PasswordHash: "h", Role: model.RoleCitizen}
	require.NoError(t, users.Create(ctx, owner))
	require.NoError(t, users.Create(ctx, other))
	require.NoError(t, grievances.Create(ctx, &model.Grievance{TrackingID: "GRV-1", Category: "Roads", Description: "pothole", Status: model.StatusSubmitted, SubmittedBy: owner.ID}))
	require.NoError(t, grievances.Create(ctx, &model.Grievance{TrackingID: "GRV-2", Category: "Roads", Description: "crack", Status: model.StatusSubmitted, SubmittedBy: other.ID}))

	require.NoError(t, users.DeleteCascade(ctx, owner.ID))

	_, err := users.FindByID(ctx, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	left, err := grievances.List(ctx, GrievanceFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other.ID, left[0].SubmittedBy)

	assert.ErrorIs(t, users.DeleteCascade(ctx, owner.ID), ErrNotFound)
}

func TestDepartmentRepository_RenameAndDelete(t *testing.T) {
	ctx := context.Background()
	gdb := newTestDB(t)
	depts := NewDepartmentRepository(gdb)
	grievances := NewGrievanceRepository(gdb)

	water := &model.Department{Name: "Water Dept"}
	require.NoError(t, depts.Create(ctx, water))
	require.NoError(t, depts.Create(ctx, &model.Department{Name: "Electricity Dept"}))
	assert.ErrorIs(t, depts.Create(ctx, &model.Department{Name: "Water Dept"}), ErrDuplicate)

	g := &model.Grievance{TrackingID: "GRV-3", Category: "Water", Description: "leak", Status: model.StatusSubmitted, SubmittedBy: "u1", DepartmentID: strPtr(water.ID)}
	require.NoError(t, grievances.Create(ctx, g))

	require.NoError(t, depts.Rename(ctx, water.ID, "Water Board"))
	list, err := depts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Electricity Dept", list[0].Name)
	assert.Equal(t, "Water Board", list[1].Name)

	require.NoError(t, depts.Delete(ctx, water.ID))
	assert.ErrorIs(t, depts.Delete(ctx, water.ID), ErrNotFound)

	got, err := grievances.FindByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DepartmentID)
	assert.Equal(t, water.ID, *got.DepartmentID)
}

func TestGrievanceRepository_UpdateKeepsOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewGrievanceRepository(newTestDB(t))

	g := &model.Grievance{TrackingID: "GRV-4", Category: "Roads", Description: "pothole", Status: model.StatusSubmitted, SubmittedBy: "owner"}
	require.NoError(t, repo.Create(ctx, g))

	g.SubmittedBy = "intruder"
	g.Description = "deep pothole"
	g.Photos = model.PhotoList{"uploads/photos-1.png"}
	require.NoError(t, repo.Update(ctx, g))

	got, err := repo.FindByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.SubmittedBy)
	assert.Equal(t, "deep pothole", got.Description)
	assert.Equal(t, model.PhotoList{"uploads/photos-1.png"}, got.Photos)
}

func TestGrievanceRepository_Aggregates(t *testing.T) {
	ctx := context.Background()
	repo := NewGrievanceRepository(newTestDB(t))

	seed := []model.Grievance{
		{TrackingID: "GRV-10", Category: "Roads", Status: model.StatusSubmitted, DepartmentID: strPtr("d1")},
		{TrackingID: "GRV-11", Category: "Roads", Status: model.StatusResolved, DepartmentID: strPtr("d1")},
		{TrackingID: "GRV-12", Category: "Water", Status: model.StatusInProgress, DepartmentID: strPtr("d2")},
		{TrackingID: "GRV-13", Category: "Water", Status: model.StatusResolved},
	}
	for i := range seed {
		seed[i].Description = "x"
		seed[i].SubmittedBy = "u"
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}
	assert.ErrorIs(t, repo.Create(ctx, &model.Grievance{TrackingID: "GRV-10", Description: "dup", SubmittedBy: "u", Status: model.StatusSubmitted}), ErrDuplicate)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	byStatus, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []GroupCount{
		{Key: "Resolved", Count: 2},
		{Key: "Submitted", Count: 1},
		{Key: "In Progress", Count: 1},
	}, byStatus)

	byDept, err := repo.CountByDepartment(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []GroupCount{{Key: "d1", Count: 2}, {Key: "d2", Count: 1}}, byDept)

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Roads", "Water"}, cats)

	stamps, err := repo.CreatedSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, stamps, 4)

	mine, err := repo.List(ctx, GrievanceFilter{DepartmentID: "d1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
