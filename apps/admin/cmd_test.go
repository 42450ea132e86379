package main

import (
	"context"
	"database/sql"
	"io"
	"log"
	"testing"
	"time"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	authsvc "github.com/tsedeniyafiseha/school-management-system/services/auth"
	emailsvc "github.com/tsedeniyafiseha/school-management-system/services/email"
	logsvc "github.com/tsedeniyafiseha/school-management-system/services/logger"
	trustedsvc "github.com/tsedeniyafiseha/school-management-system/services/trusted"
	dummydb "github.com/tsedeniyafiseha/school-management-system/storage/database/dummy"
)

var (
	schoolsDir   roster.SchoolDirectory
	authProvider auth.Provider
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	conf := &core.Config{
		TestMode:           true,
		AppName:            "Shule",
		SecretKey:          []byte("test-secret"),
		StudentEmailDomain: "school.local",
		Auth:               core.AuthConfig{JWTExpirationDelta: time.Hour},
	}
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	rosterRepo := dummydb.NewRosterRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	schoolsDir = rosterRepo

	provider := authsvc.NewLocalProvider(conf)
	authProvider = provider
	creator := trustedsvc.NewLocalCreator(provider, rosterRepo, logger)
	rosterSvc := roster.NewService(
		rosterRepo, rosterRepo, provider, creator, schoolRepo,
		emailsvc.NewDummyService(), conf, logger)

	return &commandLine{
		db:        nil, // migrations are mocked out
		rosterSvc: rosterSvc,
		provider:  provider,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	origMigrateFunc := migrateFunc
	migrateFunc = func(db *sql.DB) error {
		called = true
		return nil
	}
	defer func() { migrateFunc = origMigrateFunc }()

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("cli.run() did not invoke the migration")
	}
}

func Test_commandLine_createSchool(t *testing.T) {
	cli := setup(t)

	origReadPasswordFunc := readPasswordFunc
	defer func() { readPasswordFunc = origReadPasswordFunc }()

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"createschool", "-school", "Springfield High"}, wantErr: errHelp},
		{name: "empty password", args: []string{"createschool", "-school", "Springfield High", "-name", "Head Admin", "-email", "admin@test.cd"}, wantErr: errHelp},
		{name: "ok", args: []string{"createschool", "-school", "Springfield High", "-name", "Head Admin", "-email", "admin@test.cd"}, pwd: "xk4!mQ2#vt9z"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				exists, err := schoolsDir.SchoolExists(context.Background(), "Springfield High")
				if err != nil {
					t.Fatalf("SchoolExists() failed: %v", err)
				}
				if !exists {
					t.Error("school was not created")
				}
			}
		})
	}

	t.Run("weak password", func(t *testing.T) {
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte("1234"), nil
		}
		err := cli.run([]string{"admin", "createschool", "-school", "Shelbyville High", "-name", "Head Admin", "-email", "other@test.cd"})
		if err == nil {
			t.Error("cli.run() expected a validation error")
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	origReadPasswordFunc := readPasswordFunc
	defer func() { readPasswordFunc = origReadPasswordFunc }()

	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte("xk4!mQ2#vt9z"), nil
	}
	if err := cli.run([]string{"admin", "createschool", "-school", "Springfield High", "-name", "Head Admin", "-email", "admin@test.cd"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	t.Run("missing email", func(t *testing.T) {
		if err := cli.run([]string{"admin", "resetpassword"}); err != errHelp {
			t.Errorf("cli.run() error = %v, want %v", err, errHelp)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		if err := cli.run([]string{"admin", "resetpassword", "-email", "ghost@test.cd"}); err == nil {
			t.Error("cli.run() expected an error")
		}
	})

	t.Run("ok", func(t *testing.T) {
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte("n3w!Passw0rd"), nil
		}
		if err := cli.run([]string{"admin", "resetpassword", "-email", "admin@test.cd"}); err != nil {
			t.Fatalf("cli.run() failed: %v", err)
		}

		if _, err := authProvider.SignInWithPassword(context.Background(), "admin@test.cd", "xk4!mQ2#vt9z"); err != auth.ErrInvalidCredentials {
			t.Errorf("old password sign-in error = %v, want %v", err, auth.ErrInvalidCredentials)
		}
		if _, err := authProvider.SignInWithPassword(context.Background(), "admin@test.cd", "n3w!Passw0rd"); err != nil {
			t.Errorf("new password sign-in failed: %v", err)
		}
	})
}
