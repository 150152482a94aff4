package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/model"
	"grievancedesk/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
	repository.UserRepository
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAuthorize_UsesStoredRole(t *testing.T) {
	repo := new(mockUserRepo)
	// the token may still say admin; the store says citizen
	repo.On("FindByID", mock.Anything, "u1").Return(&model.User{ID: "u1", Role: model.RoleCitizen}, nil)

	_, err := New(repo).Authorize(context.Background(), "u1", GrievanceStats, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	repo.AssertExpectations(t)
}

func TestAuthorize_DeletedActor(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByID", mock.Anything, "gone").Return(nil, repository.ErrNotFound)

	_, err := New(repo).Authorize(context.Background(), "gone", GrievanceCreate, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestCheck(t *testing.T) {
	a := New(nil)
	admin := &model.User{ID: "a", Role: model.RoleAdmin}
	owner := &model.User{ID: "c1", Role: model.RoleCitizen}
	stranger := &model.User{ID: "c2", Role: model.RoleCitizen}
	open := &model.Grievance{SubmittedBy: "c1", Status: model.StatusSubmitted}
	working := &model.Grievance{SubmittedBy: "c1", Status: model.StatusInProgress}

	tests := []struct {
		name     string
		actor    *model.User
		action   Action
		resource any
		wantMsg  string
	}{
		{"citizen files", owner, GrievanceCreate, nil, ""},
		{"admin cannot file", admin, GrievanceCreate, nil, msgCitizensOnly},
		{"owner views", owner, GrievanceView, working, ""},
		{"admin views any", admin, GrievanceView, open, ""},
		{"stranger cannot view", stranger, GrievanceView, open, msgNotOwner},
		{"owner edits while submitted", owner, GrievanceEdit, open, ""},
		{"owner cannot edit in progress", owner, GrievanceEdit, working, msgNotEditable},
		{"stranger cannot edit", stranger, GrievanceEdit, open, msgNotOwner},
		{"owner deletes while submitted", owner, GrievanceDelete, open, ""},
		{"admin cannot delete", admin, GrievanceDelete, open, msgAdminsCantDelete},
		{"owner cannot delete in progress", owner, GrievanceDelete, working, msgNotEditable},
		{"admin manages", admin, GrievanceManage, open, ""},
		{"citizen cannot manage", owner, GrievanceManage, open, msgAdminsOnly},
		{"citizen cannot list all", owner, GrievanceListAll, nil, msgAdminsOnly},
		{"citizen cannot manage departments", owner, DepartmentManage, nil, msgAdminsOnly},
		{"admin manages users", admin, UserManage, nil, ""},
		{"unknown action", admin, Action("nope"), nil, msgNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Check(tt.actor, tt.action, tt.resource)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperrors.ErrForbidden)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}
