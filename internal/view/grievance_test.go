package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievancedesk/internal/model"
)

func ptr(s string) *string { return &s }

func TestFormatGrievance_Defaults(t *testing.T) {
	g := &model.Grievance{
		ID:           "g1",
		TrackingID:   "GRV-1",
		Status:       model.StatusSubmitted,
		SubmittedBy:  "gone",
		DepartmentID: ptr("deleted-dept"),
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	out := FormatGrievance(g, Lookup{}, "http://h")

	assert.Equal(t, "N/A", out.Category)
	assert.Equal(t, DepartmentRef{Name: "N/A"}, out.Department)
	assert.Nil(t, out.SubmittedBy)
	assert.Empty(t, out.Feedback)
	assert.Empty(t, out.Photos)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"department":{"name":"N/A"}`)
	assert.Contains(t, string(raw), `"submittedBy":null`)
	assert.Contains(t, string(raw), `"photos":[]`)
	assert.Contains(t, string(raw), `"feedback":""`)
}

func TestFormatGrievance_Resolved(t *testing.T) {
	g := &model.Grievance{
		ID:           "g1",
		Category:     "Roads",
		Photos:       model.PhotoList{"uploads/photos-171.png", "uploads/photos-172.png"},
		SubmittedBy:  "u1",
		DepartmentID: ptr("d1"),
		Feedback:     "on it",
	}
	lookup := Lookup{
		Departments: map[string]model.Department{"d1": {ID: "d1", Name: "Water Dept"}},
		Users:       map[string]model.User{"u1": {ID: "u1", Email: "c@x.com", PasswordHash: "secret"}},
	}
	out := FormatGrievance(g, lookup, "https://api.example.org")

	require.Len(t, out.Photos, 1)
	assert.Equal(t, Photo{URL: "https://api.example.org/uploads/photos-171.png", Path: "uploads/photos-171.png"}, out.Photos[0])
	assert.Equal(t, DepartmentRef{ID: "d1", Name: "Water Dept"}, out.Department)
	assert.Equal(t, &UserRef{ID: "u1", Email: "c@x.com"}, out.SubmittedBy)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestPhotoURL_NormalizesSeparators(t *testing.T) {
	assert.Equal(t, "http://h/uploads/photos-1.jpg", PhotoURL("http://h", `C:\srv\uploads\photos-1.jpg`))
	assert.Equal(t, "http://h/uploads/photos-1.jpg", PhotoURL("http://h", "uploads/photos-1.jpg"))
}

func TestAdminAndCitizenRows(t *testing.T) {
	users := []model.User{{ID: "a", Fullname: "A", Email: "a@x.com", PasswordHash: "h", DepartmentID: ptr("d")}}
	raw, err := json.Marshal(NewAdmins(users))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_id":"a","fullname":"A","email":"a@x.com","department":"d"}]`, string(raw))

	rows := NewCitizens(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
