package auth_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	authsvc "github.com/tsedeniyafiseha/school-management-system/services/auth"
	logsvc "github.com/tsedeniyafiseha/school-management-system/services/logger"
	dummydb "github.com/tsedeniyafiseha/school-management-system/storage/database/dummy"
)

func testConf() *core.Config {
	return &core.Config{
		TestMode:           true,
		AppName:            "Shule",
		SecretKey:          []byte("test-secret"),
		StudentEmailDomain: "school.local",
		Auth:               core.AuthConfig{JWTExpirationDelta: time.Hour},
	}
}

func testLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

// memCache is an in-memory auth.ProfileCache for tests.
type memCache struct {
	mu sync.Mutex
	m  map[string]auth.Profile
}

func newMemCache() *memCache { return &memCache{m: make(map[string]auth.Profile)} }

func (c *memCache) Get(ctx context.Context, authID string) (auth.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.m[authID]
	return p, ok
}

func (c *memCache) Set(ctx context.Context, authID string, p auth.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[authID] = p
}

func (c *memCache) Delete(ctx context.Context, authID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, authID)
}

type testEnv struct {
	db          *dummydb.DB
	provider    auth.Provider
	profileRepo auth.ProfileRepository
	rosterRepo  roster.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return &testEnv{
		db:          db,
		provider:    authsvc.NewLocalProvider(testConf()),
		profileRepo: dummydb.NewProfileRepository(db),
		rosterRepo:  dummydb.NewRosterRepository(db),
	}
}

func (env *testEnv) createAdmin(t *testing.T, name, email, pwd, schoolName string) (roster.Admin, auth.Session) {
	t.Helper()
	sess, err := env.provider.SignUp(context.Background(), email, pwd, nil)
	require.NoError(t, err)
	admin, err := env.rosterRepo.CreateAdmin(context.Background(), roster.Admin{
		ID:         "adm-" + email,
		AuthID:     sess.Account.ID,
		Name:       name,
		Email:      email,
		SchoolName: schoolName,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return admin, sess
}

func (env *testEnv) createStudent(t *testing.T, name, email, pwd, schoolID string, rollNum int) (roster.Student, auth.Session) {
	t.Helper()
	sess, err := env.provider.SignUp(context.Background(), email, pwd, nil)
	require.NoError(t, err)
	student, err := env.rosterRepo.CreateStudent(context.Background(), roster.Student{
		ID:        "std-" + email,
		AuthID:    sess.Account.ID,
		SchoolID:  schoolID,
		ClassID:   "class1",
		Name:      name,
		RollNum:   rollNum,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return student, sess
}

func Test_Resolver_Resolve(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, _ := env.createAdmin(t, "Admin", "admin@test.cd", "xk4!mQ2#vt9z", "Springfield High")
	student, _ := env.createStudent(t, "Hero", "s1.springfiel@school.local", "xk4!mQ2#vt9z", admin.ID, 1)

	teacher, err := env.rosterRepo.CreateTeacher(ctx, roster.Teacher{
		ID:       "tch1",
		AuthID:   "teacher-auth",
		SchoolID: admin.ID,
		ClassID:  "class1",
		Name:     "Teacher",
		Email:    "teacher@test.cd",
	})
	require.NoError(t, err)

	resolver := auth.NewResolver(env.profileRepo, nil)

	t.Run("admin", func(t *testing.T) {
		p, err := resolver.Resolve(ctx, admin.AuthID)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, p.Role)
		require.NotNil(t, p.Admin)
		assert.Equal(t, admin.ID, p.Admin.ID)
		assert.Equal(t, admin.SchoolName, p.Admin.SchoolName)
	})

	t.Run("teacher", func(t *testing.T) {
		p, err := resolver.Resolve(ctx, teacher.AuthID)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleTeacher, p.Role)
		require.NotNil(t, p.Teacher)
		assert.Equal(t, teacher.ID, p.Teacher.ID)
		assert.Equal(t, admin.SchoolName, p.Teacher.School.Name)
	})

	t.Run("student", func(t *testing.T) {
		p, err := resolver.Resolve(ctx, student.AuthID)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleStudent, p.Role)
		require.NotNil(t, p.Student)
		assert.Equal(t, student.RollNum, p.Student.RollNum)
		assert.Equal(t, admin.ID, p.TenantID())
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "nobody")
		assert.Equal(t, auth.ErrProfileNotFound, err)
	})

	t.Run("admin wins over other kinds", func(t *testing.T) {
		// one account referenced by both an admin and a teacher row; the
		// admin probe runs first and settles it
		_, err := env.rosterRepo.CreateTeacher(ctx, roster.Teacher{
			ID:       "tch2",
			AuthID:   admin.AuthID,
			SchoolID: admin.ID,
			ClassID:  "class1",
			Name:     "Shadow",
			Email:    "shadow@test.cd",
		})
		require.NoError(t, err)

		p, err := resolver.Resolve(ctx, admin.AuthID)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, p.Role)
	})
}

func Test_Resolver_cache(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, _ := env.createAdmin(t, "Admin", "admin@test.cd", "xk4!mQ2#vt9z", "Springfield High")

	cache := newMemCache()
	resolver := auth.NewResolver(env.profileRepo, cache)

	p, err := resolver.Resolve(ctx, admin.AuthID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", p.Name())

	// the cached copy masks a direct store update until invalidated
	_, err = env.rosterRepo.UpdateAdmin(ctx, admin.ID, roster.UpdateProfile{Name: "Renamed"})
	require.NoError(t, err)

	p, err = resolver.Resolve(ctx, admin.AuthID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", p.Name())

	resolver.Invalidate(ctx, admin.AuthID)

	p, err = resolver.Resolve(ctx, admin.AuthID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name())
}

// recordingProvider captures the session issued by the last sign-in, so tests
// can inspect sessions the gate tears down internally.
type recordingProvider struct {
	auth.Provider
	lastSession auth.Session
}

func (p *recordingProvider) SignInWithPassword(ctx context.Context, email, password string) (auth.Session, error) {
	sess, err := p.Provider.SignInWithPassword(ctx, email, password)
	p.lastSession = sess
	return sess, err
}

func Test_Gate_Login(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, _ := env.createAdmin(t, "Admin", "admin@test.cd", "xk4!mQ2#vt9z", "Springfield High")
	student, _ := env.createStudent(t, "Hero Kid", "s12.springfiel@school.local", "st!d3ntPwd#1", admin.ID, 12)
	_ = student

	// an account with no profile row at all
	_, err := env.provider.SignUp(ctx, "ghost@test.cd", "xk4!mQ2#vt9z", nil)
	require.NoError(t, err)

	provider := &recordingProvider{Provider: env.provider}
	resolver := auth.NewResolver(env.profileRepo, nil)
	gate := auth.NewGate(provider, resolver, dummydb.NewProfileRepository(env.db), testLogger())

	t.Run("admin ok", func(t *testing.T) {
		profile, sess, err := gate.Login(ctx, auth.Credentials{Email: "admin@test.cd", Password: "xk4!mQ2#vt9z"}, auth.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, profile.Role)
		assert.NotEmpty(t, sess.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := gate.Login(ctx, auth.Credentials{Email: "admin@test.cd", Password: "wrong-pass1!"}, auth.RoleAdmin)
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := gate.Login(ctx, auth.Credentials{Email: "nobody@test.cd", Password: "xk4!mQ2#vt9z"}, auth.RoleAdmin)
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("role mismatch", func(t *testing.T) {
		_, _, err := gate.Login(ctx, auth.Credentials{Email: "admin@test.cd", Password: "xk4!mQ2#vt9z"}, auth.RoleTeacher)
		assert.Equal(t, auth.RoleMismatchError{Requested: auth.RoleTeacher, Actual: auth.RoleAdmin}, err)

		// the session issued during the failed login is torn down
		_, err = env.provider.Account(ctx, provider.lastSession.AccessToken)
		assert.Equal(t, auth.ErrSessionExpired, err)
	})

	t.Run("authenticated but no profile", func(t *testing.T) {
		_, _, err := gate.Login(ctx, auth.Credentials{Email: "ghost@test.cd", Password: "xk4!mQ2#vt9z"}, auth.RoleAdmin)
		assert.Equal(t, auth.ErrProfileMissing, err)

		_, err = env.provider.Account(ctx, provider.lastSession.AccessToken)
		assert.Equal(t, auth.ErrSessionExpired, err)
	})

	t.Run("student ok", func(t *testing.T) {
		profile, sess, err := gate.Login(ctx, auth.Credentials{
			RollNum:  12,
			Name:     "Hero Kid",
			Password: "st!d3ntPwd#1",
		}, auth.RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleStudent, profile.Role)
		assert.NotEmpty(t, sess.AccessToken)
	})

	t.Run("student not found", func(t *testing.T) {
		// fails the directory lookup before any credentials are checked
		_, _, err := gate.Login(ctx, auth.Credentials{
			RollNum:  99,
			Name:     "Hero Kid",
			Password: "st!d3ntPwd#1",
		}, auth.RoleStudent)
		assert.Equal(t, auth.ErrStudentNotFound, err)
	})
}

func Test_Gate_InitSession(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, sess := env.createAdmin(t, "Admin", "admin@test.cd", "xk4!mQ2#vt9z", "Springfield High")

	resolver := auth.NewResolver(env.profileRepo, nil)
	gate := auth.NewGate(env.provider, resolver, dummydb.NewProfileRepository(env.db), testLogger())

	t.Run("live token", func(t *testing.T) {
		profile, err := gate.InitSession(ctx, sess.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, profile.ProfileID())
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := gate.InitSession(ctx, "not-a-token")
		assert.Equal(t, auth.ErrSessionExpired, err)
	})

	t.Run("after logout", func(t *testing.T) {
		gate.Logout(ctx, sess.AccessToken)
		_, err := gate.InitSession(ctx, sess.AccessToken)
		assert.Equal(t, auth.ErrSessionExpired, err)
	})
}

func Test_Gate_Logout_swallowsFailures(t *testing.T) {
	env := setup(t)
	resolver := auth.NewResolver(env.profileRepo, nil)
	gate := auth.NewGate(env.provider, resolver, dummydb.NewProfileRepository(env.db), testLogger())

	// never errors, whatever the token state
	gate.Logout(context.Background(), "not-a-token")
	gate.Logout(context.Background(), "")
}

func Test_Gate_UpdatePassword(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, sess := env.createAdmin(t, "Admin", "admin@test.cd", "xk4!mQ2#vt9z", "Springfield High")

	resolver := auth.NewResolver(env.profileRepo, nil)
	gate := auth.NewGate(env.provider, resolver, dummydb.NewProfileRepository(env.db), testLogger())

	require.NoError(t, gate.UpdatePassword(ctx, sess.AccessToken, "n3w!Passw0rd"))

	_, err := env.provider.SignInWithPassword(ctx, "admin@test.cd", "xk4!mQ2#vt9z")
	assert.Equal(t, auth.ErrInvalidCredentials, err)
	_, err = env.provider.SignInWithPassword(ctx, "admin@test.cd", "n3w!Passw0rd")
	assert.NoError(t, err)
}

// eventProvider lets tests push auth-state events by hand.
type eventProvider struct {
	auth.Provider
	events chan auth.Event
}

func (p *eventProvider) Events() <-chan auth.Event { return p.events }

func Test_ProfileStore(t *testing.T) {
	env := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admin, _ := env.createAdmin(t, "Admin", "admin@test.cd", "xk4!mQ2#vt9z", "Springfield High")

	provider := &eventProvider{Provider: env.provider, events: make(chan auth.Event, 4)}
	resolver := auth.NewResolver(env.profileRepo, newMemCache())

	store := auth.NewProfileStore(resolver, provider, testLogger())
	store.Start(ctx)
	defer store.Stop()

	_, ok := store.Current()
	assert.False(t, ok)

	profile, err := resolver.Resolve(ctx, admin.AuthID)
	require.NoError(t, err)
	store.SetCurrent(profile)

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, admin.ID, current.ProfileID())

	t.Run("token refresh re-resolves", func(t *testing.T) {
		// the cached profile is stale; the refresh event must bust it
		_, err := env.rosterRepo.UpdateAdmin(ctx, admin.ID, roster.UpdateProfile{Name: "Renamed"})
		require.NoError(t, err)

		provider.events <- auth.Event{
			Kind:    auth.EventTokenRefreshed,
			Session: &auth.Session{Account: auth.Account{ID: admin.AuthID}},
		}
		assert.Eventually(t, func() bool {
			p, ok := store.Current()
			return ok && p.Name() == "Renamed"
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("sign-out clears", func(t *testing.T) {
		provider.events <- auth.Event{Kind: auth.EventSignedOut}
		assert.Eventually(t, func() bool {
			_, ok := store.Current()
			return !ok
		}, time.Second, 10*time.Millisecond)
	})
}
