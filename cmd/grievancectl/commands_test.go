package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievancedesk/internal/db"
	"grievancedesk/internal/repository"
	"grievancedesk/internal/service"
)

func sqliteOpener(t *testing.T) (opener, repository.UserRepository) {
	t.Helper()
	gdb, err := db.NewGorm("sqlite", "file:grievancectl_"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, true))
	users := repository.NewUserRepository(gdb)
	op := service.NewOperatorService(users, repository.NewDepartmentRepository(gdb))
	return func(context.Context) (service.OperatorService, func(), error) {
		return op, func() {}, nil
	}, users
}

func run(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateAdmin(t *testing.T) {
	open, users := sqliteOpener(t)

	out, err := run(t, open, "create-admin", "--email", "ops@gov.in", "--password", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "created admin ops@gov.in\n", out)

	out, err = run(t, open, "create-admin", "--email", "ops@gov.in", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	u, err := users.FindByEmail(context.Background(), "ops@gov.in")
	require.NoError(t, err)
	assert.Equal(t, "Ops", u.Fullname)

	_, err = run(t, open, "create-admin")
	assert.Error(t, err, "password flag is required")
}

func TestSeedDepartmentsAndFixNames(t *testing.T) {
	open, _ := sqliteOpener(t)

	out, err := run(t, open, "seed-departments")
	require.NoError(t, err)
	assert.Equal(t, "3 department(s) created\n", out)

	out, err = run(t, open, "seed-departments", "Parks", "Water Dept")
	require.NoError(t, err)
	assert.Equal(t, "1 department(s) created\n", out)

	out, err = run(t, open, "fix-admin-fullnames")
	require.NoError(t, err)
	assert.Equal(t, "0 admin(s) updated\n", out)
}
