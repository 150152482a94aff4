package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"grievancedesk/internal/auth"
	"grievancedesk/internal/db"
	"grievancedesk/internal/model"
	"grievancedesk/internal/policy"
	"grievancedesk/internal/repository"
	"grievancedesk/internal/storage"
)

type published struct {
	key string
	ev  any
}

// recordingPublisher keeps every event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: key, ev: v})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

type fixture struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	grievances  repository.GrievanceRepository
	authz       *policy.Authorizer
	photos      *storage.DiskStore
	events      *recordingPublisher

	auth       AuthService
	grievance  GrievanceService
	department DepartmentService
	stats      *statsService
	userAdmin  UserService
	operator   OperatorService
	jwt        *auth.JWTService
	uploadDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.NewGorm("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, true))

	f := &fixture{
		users:       repository.NewUserRepository(gdb),
		departments: repository.NewDepartmentRepository(gdb),
		grievances:  repository.NewGrievanceRepository(gdb),
		events:      &recordingPublisher{},
		jwt:         auth.NewJWTService("test-secret"),
		uploadDir:   t.TempDir(),
	}
	f.authz = policy.New(f.users)
	f.photos, err = storage.NewDiskStore(f.uploadDir, storage.NewStamper())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.auth = NewAuthService(f.users, f.departments, f.authz, f.jwt, auth.NewTokenStore(nil), logger)
	f.grievance = NewGrievanceService(GrievanceDeps{
		Grievances:  f.grievances,
		Departments: f.departments,
		Users:       f.users,
		Authz:       f.authz,
		Photos:      f.photos,
		Stamps:      storage.NewStamper(),
		Publisher:   f.events,
		Logger:      logger,
	})
	f.department = NewDepartmentService(f.departments, f.authz, nil)
	f.stats = NewStatsService(f.grievances, f.departments, f.authz).(*statsService)
	f.userAdmin = NewUserService(f.users, f.departments, f.authz)
	f.operator = NewOperatorService(f.users, f.departments)
	return f
}

func (f *fixture) citizen(t *testing.T, email string) auth.Identity {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Email: email, Password: "secret1", Fullname: "Citizen"})
	require.NoError(t, err)
	return auth.Identity{ID: u.ID, Role: u.Role, Fullname: u.Fullname}
}

func (f *fixture) admin(t *testing.T, email string) auth.Identity {
	t.Helper()
	hashed, err := hashPassword("secret1")
	require.NoError(t, err)
	u := &model.User{Email: email, Fullname: "Admin", PasswordHash: hashed, Role: model.RoleAdmin}
	require.NoError(t, f.users.Create(context.Background(), u))
	return auth.Identity{ID: u.ID, Role: u.Role, Fullname: u.Fullname}
}

func (f *fixture) dept(t *testing.T, name string) *model.Department {
	t.Helper()
	d := &model.Department{Name: name}
	require.NoError(t, f.departments.Create(context.Background(), d))
	return d
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

// photoHeader builds a multipart file header the way echo hands it over.
func photoHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(storage.FieldName, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	fh, err := storage.PickPhoto(form)
	require.NoError(t, err)
	return fh
}

func strptr(s string) *string { return &s }
