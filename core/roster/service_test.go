package roster_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
	authsvc "github.com/tsedeniyafiseha/school-management-system/services/auth"
	emailsvc "github.com/tsedeniyafiseha/school-management-system/services/email"
	logsvc "github.com/tsedeniyafiseha/school-management-system/services/logger"
	trustedsvc "github.com/tsedeniyafiseha/school-management-system/services/trusted"
	dummydb "github.com/tsedeniyafiseha/school-management-system/storage/database/dummy"
)

type testEnv struct {
	svc        roster.Service
	provider   auth.Provider
	rosterRepo roster.Repository
	schoolRepo school.Repository
	mailSvc    *emailsvc.DummyService
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := &core.Config{
		TestMode:           true,
		AppName:            "Shule",
		SecretKey:          []byte("test-secret"),
		StudentEmailDomain: "school.local",
		Auth:               core.AuthConfig{JWTExpirationDelta: time.Hour},
	}
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	rosterRepo := dummydb.NewRosterRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	provider := authsvc.NewLocalProvider(conf)
	creator := trustedsvc.NewLocalCreator(provider, rosterRepo, logger)
	mailSvc := emailsvc.NewDummyService()

	return &testEnv{
		svc:        roster.NewService(rosterRepo, rosterRepo, provider, creator, schoolRepo, mailSvc, conf, logger),
		provider:   provider,
		rosterRepo: rosterRepo,
		schoolRepo: schoolRepo,
		mailSvc:    mailSvc,
	}
}

func (env *testEnv) registerAdmin(t *testing.T, schoolName, email string) (roster.Admin, auth.Session) {
	t.Helper()
	admin, sess, err := env.svc.RegisterAdmin(context.Background(), roster.NewAdmin{
		Name:       "Head Admin",
		Email:      email,
		Password:   "xk4!mQ2#vt9z",
		SchoolName: schoolName,
	})
	require.NoError(t, err)
	return admin, sess
}

func Test_service_StudentEmail(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name       string
		schoolName string
		rollNum    int
		want       string
	}{
		{"plain", "ABC", 1, "s1.abc@school.local"},
		{"sanitized and truncated", "Green Valley High!", 12, "s12.greenvalle@school.local"},
		{"no usable characters", "!!! ???", 3, "s3.school@school.local"},
		{"empty", "", 7, "s7.school@school.local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, env.svc.StudentEmail(tt.schoolName, tt.rollNum))
		})
	}
}

func Test_service_RegisterAdmin(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, sess := env.registerAdmin(t, "Springfield High", "admin@test.cd")
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, sess.Account.ID, admin.AuthID)

	stored, err := env.svc.Admin(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Springfield High", stored.SchoolName)

	t.Run("duplicate school name", func(t *testing.T) {
		_, _, err := env.svc.RegisterAdmin(ctx, roster.NewAdmin{
			Name:       "Other Admin",
			Email:      "other@test.cd",
			Password:   "xk4!mQ2#vt9z",
			SchoolName: "Springfield High",
		})
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, "expected *core.ValidationError, got %T: %v", err, err)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "school_name", vErr.Fields[0].Field)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := env.svc.RegisterAdmin(ctx, roster.NewAdmin{
			Name:       "Other Admin",
			Email:      "admin@test.cd",
			Password:   "xk4!mQ2#vt9z",
			SchoolName: "Shelbyville High",
		})
		assert.Equal(t, auth.ErrEmailTaken, pkgerrors.Cause(err))
	})
}

func Test_service_RegisterTeacher(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, sess := env.registerAdmin(t, "Springfield High", "admin@test.cd")

	subjects, err := env.schoolRepo.CreateSubjects(ctx, []school.Subject{{
		ID:       "sub1",
		SchoolID: admin.ID,
		ClassID:  "class1",
		Name:     "Maths",
		Code:     "mat101",
		Sessions: 10,
	}})
	require.NoError(t, err)

	created, err := env.svc.RegisterTeacher(ctx, sess.AccessToken, roster.NewTeacher{
		Name:      "Jane Teacher",
		Email:     "jane@test.cd",
		Password:  "t3ach!ngPwd#",
		SchoolID:  admin.ID,
		ClassID:   "class1",
		SubjectID: subjects[0].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTeacher, created.Role)

	teacher, err := env.svc.TeacherDetail(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, teacher.SchoolID)
	require.NotNil(t, teacher.SubjectID)
	assert.Equal(t, subjects[0].ID, *teacher.SubjectID)

	// the subject points back at the new teacher
	subject, err := env.schoolRepo.GetSubject(ctx, subjects[0].ID)
	require.NoError(t, err)
	require.NotNil(t, subject.TeacherID)
	assert.Equal(t, created.ID, *subject.TeacherID)

	t.Run("welcome mail", func(t *testing.T) {
		sent := env.mailSvc.Sent()
		require.Len(t, sent, 1)
		require.Len(t, sent[0].To, 1)
		assert.Equal(t, "jane@test.cd", sent[0].To[0].Address)
	})

	t.Run("teacher can sign in", func(t *testing.T) {
		_, err := env.provider.SignInWithPassword(ctx, "jane@test.cd", "t3ach!ngPwd#")
		assert.NoError(t, err)
	})
}

func Test_service_RegisterStudent(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, sess := env.registerAdmin(t, "Springfield High", "admin@test.cd")

	created, err := env.svc.RegisterStudent(ctx, sess.AccessToken, roster.NewStudent{
		Name:     "Hero Kid",
		Password: "st!d3ntPwd#1",
		RollNum:  12,
		ClassID:  "class1",
		SchoolID: admin.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleStudent, created.Role)
	// the login email is synthesized, never caller-supplied
	assert.Equal(t, "s12.springfiel@school.local", created.Email)

	student, err := env.svc.StudentDetail(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, student.RollNum)
	assert.Equal(t, created.Email, student.Email)

	students, err := env.svc.Students(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func Test_service_Register_requiresSession(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, _ := env.registerAdmin(t, "Springfield High", "admin@test.cd")

	_, err := env.svc.RegisterStudent(ctx, "not-a-token", roster.NewStudent{
		Name:     "Hero Kid",
		Password: "st!d3ntPwd#1",
		RollNum:  12,
		ClassID:  "class1",
		SchoolID: admin.ID,
	})
	assert.Equal(t, auth.ErrSessionExpired, pkgerrors.Cause(err))
}

func Test_service_updates(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin, _ := env.registerAdmin(t, "Springfield High", "admin@test.cd")

	updated, err := env.svc.UpdateAdmin(ctx, admin.ID, roster.UpdateProfile{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	// untouched fields stay
	assert.Equal(t, "admin@test.cd", updated.Email)

	_, err = env.svc.UpdateTeacher(ctx, "nope", roster.UpdateProfile{Name: "X"})
	assert.Equal(t, roster.ErrNotFound, pkgerrors.Cause(err))
}

func Test_NewAdmin_Validate_passwordPolicy(t *testing.T) {
	base := roster.NewAdmin{
		Name:       "Head Admin",
		Email:      "admin@test.cd",
		SchoolName: "Springfield High",
	}

	tests := []struct {
		name    string
		pwd     string
		wantErr bool
	}{
		{"ok", "xk4!mQ2#vt9z", false},
		{"too short", "a1b2c3!", true},
		{"whitespace", "pass word123", true},
		{"all numeric", "1234567890", true},
		{"similar to email", "admin@test.cd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			na := base
			na.Password = tt.pwd
			err := na.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			_, ok := err.(validator.ValidationErrors)
			assert.True(t, ok, "expected validator.ValidationErrors, got %T", err)
		})
	}
}
