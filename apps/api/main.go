package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/tsedeniyafiseha/school-management-system/apps/api/echo"
	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/record"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
	authsvc "github.com/tsedeniyafiseha/school-management-system/services/auth"
	emailsvc "github.com/tsedeniyafiseha/school-management-system/services/email"
	logsvc "github.com/tsedeniyafiseha/school-management-system/services/logger"
	trustedsvc "github.com/tsedeniyafiseha/school-management-system/services/trusted"
	"github.com/tsedeniyafiseha/school-management-system/storage/cache"
	"github.com/tsedeniyafiseha/school-management-system/storage/database"
	sqlxrepos "github.com/tsedeniyafiseha/school-management-system/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.TestMode {
		logger = logsvc.NewStdLogger(std)
	} else {
		rollbarLogger := logsvc.NewRollbarLogger(std, conf)
		rollbarLogger.Enable(true)
		logger = rollbarLogger
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = db.Close() }()
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	profileRepo := sqlxrepos.NewProfileRepository(sqlxDB)
	rosterRepo := sqlxrepos.NewRosterRepository(sqlxDB)
	schoolRepo := sqlxrepos.NewSchoolRepository(sqlxDB)
	recordRepo := sqlxrepos.NewRecordRepository(sqlxDB)

	// set up the optional profile cache
	var profileCache auth.ProfileCache
	if conf.Redis.Addr != "" {
		redisClient, err := cache.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		defer func() { _ = redisClient.Close() }()
		profileCache = cache.NewProfileCache(redisClient, conf, logger)
	}

	// set up the auth provider & the privileged creation function
	var provider auth.Provider
	if conf.Auth.BaseURL != "" {
		provider = authsvc.NewHostedProvider(conf, logger)
	} else {
		provider = authsvc.NewLocalProvider(conf)
	}
	var creator roster.PrivilegedCreator
	if conf.Auth.FunctionsBaseURL != "" {
		creator = trustedsvc.NewClient(conf, logger)
	} else {
		creator = trustedsvc.NewLocalCreator(provider, rosterRepo, logger)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	resolver := auth.NewResolver(profileRepo, profileCache)
	gate := auth.NewGate(provider, resolver, profileRepo, logger)
	rosterSvc := roster.NewService(rosterRepo, rosterRepo, provider, creator, schoolRepo, mailSvc, conf, logger)
	schoolSvc := school.NewService(schoolRepo)
	recordSvc := record.NewService(recordRepo, rosterRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// keep the resolved profile in sync with provider auth-state events
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	profileStore := auth.NewProfileStore(resolver, provider, logger)
	profileStore.Start(ctx)
	defer profileStore.Stop()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:      conf,
		Logger:    logger,
		Gate:      gate,
		RosterSvc: rosterSvc,
		SchoolSvc: schoolSvc,
		RecordSvc: recordSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
