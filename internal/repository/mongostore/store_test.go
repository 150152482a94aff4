package mongostore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"grievancedesk/internal/db"
	"grievancedesk/internal/model"
	"grievancedesk/internal/repository"
)

// newTestDatabase connects to MONGO_TEST_URI and skips when it is unset.
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	name := "grievancedesk_" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))
	client, database, err := db.NewMongo(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, EnsureIndexes(ctx, database))
	return database
}

func TestMongo_UserLifecycle(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()
	users := NewUserRepository(database)
	grievances := NewGrievanceRepository(database)

	u := &model.User{Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, u))
	assert.Equal(t, model.RoleCitizen, u.Role)
	assert.ErrorIs(t, users.Create(ctx, &model.User{Email: "a@x.com", PasswordHash: "h"}), repository.ErrDuplicate)

	require.NoError(t, grievances.Create(ctx, &model.Grievance{TrackingID: "GRV-1", Category: "Roads", Description: "x", Status: model.StatusSubmitted, SubmittedBy: u.ID}))
	require.NoError(t, users.DeleteCascade(ctx, u.ID))

	_, err := users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	n, err := grievances.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMongo_GrievanceAggregates(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()
	repo := NewGrievanceRepository(database)

	d1 := "d1"
	for i, st := range []model.GrievanceStatus{model.StatusSubmitted, model.StatusResolved, model.StatusResolved} {
		g := &model.Grievance{
			TrackingID:  "GRV-" + string(rune('a'+i)),
			Category:    "Water",
			Description: "leak",
			Status:      st,
			SubmittedBy: "u",
		}
		if i > 0 {
			g.DepartmentID = &d1
		}
		require.NoError(t, repo.Create(ctx, g))
	}

	byStatus, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []repository.GroupCount{{Key: "Resolved", Count: 2}, {Key: "Submitted", Count: 1}}, byStatus)

	byDept, err := repo.CountByDepartment(ctx)
	require.NoError(t, err)
	assert.Equal(t, []repository.GroupCount{{Key: "d1", Count: 2}}, byDept)

	stamps, err := repo.CreatedSince(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, stamps, 3)

	cats, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Water"}, cats)
}
