package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	authsvc "github.com/tsedeniyafiseha/school-management-system/services/auth"
	emailsvc "github.com/tsedeniyafiseha/school-management-system/services/email"
	logsvc "github.com/tsedeniyafiseha/school-management-system/services/logger"
	trustedsvc "github.com/tsedeniyafiseha/school-management-system/services/trusted"
	"github.com/tsedeniyafiseha/school-management-system/storage/database"
	sqlxrepos "github.com/tsedeniyafiseha/school-management-system/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	rosterRepo := sqlxrepos.NewRosterRepository(sqlxDB)
	schoolRepo := sqlxrepos.NewSchoolRepository(sqlxDB)

	var (
		provider auth.Provider
		resetter auth.PasswordResetter
	)
	if conf.Auth.BaseURL != "" {
		p := authsvc.NewHostedProvider(conf, logsvc.NewStdLogger(logger))
		provider, resetter = p, p
	} else {
		p := authsvc.NewLocalProvider(conf)
		provider, resetter = p, p
	}
	creator := trustedsvc.NewLocalCreator(provider, rosterRepo, logsvc.NewStdLogger(logger))

	rosterSvc := roster.NewService(
		rosterRepo, rosterRepo, provider, creator, schoolRepo,
		emailsvc.NewConsoleService(conf), conf, logsvc.NewStdLogger(logger))

	// start CLI
	cli := commandLine{
		db:        db,
		rosterSvc: rosterSvc,
		provider:  resetter,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
