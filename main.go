package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ClearGateLLC/kidpass/children"
	"github.com/ClearGateLLC/kidpass/faceapi"
	"github.com/ClearGateLLC/kidpass/guardians"
	"github.com/ClearGateLLC/kidpass/matching"
	"github.com/ClearGateLLC/kidpass/pickuprules"
	"github.com/ClearGateLLC/kidpass/pickups"
	. "github.com/ClearGateLLC/kidpass/shared"
	. "github.com/ClearGateLLC/kidpass/store"
	"github.com/ClearGateLLC/kidpass/store/migrations"
	"github.com/ClearGateLLC/kidpass/verification"

	"github.com/facebookgo/inject"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/pkg/errors"
)

var (
	ctx             = context.Background()
	logger          = NewLogger("kidpass")
	config          *AppConfig
	db              *gorm.DB
	stringGenerator = &StringGenerator{}

	guardianService     = &guardians.GuardianService{}
	childService        = &children.ChildService{}
	ruleService         = &pickuprules.RuleService{}
	historyService      = &pickups.HistoryService{}
	verificationService = &verification.VerificationService{}
	matcher             = &matching.Matcher{}

	guardianHandlerFactory     = &guardians.HandlerFactory{}
	childrenHandlerFactory     = &children.HandlerFactory{}
	rulesHandlerFactory        = &pickuprules.HandlerFactory{}
	pickupsHandlerFactory      = &pickups.HandlerFactory{}
	verificationHandlerFactory = &verification.HandlerFactory{}

	dbStore       *Store
	faceApiClient faceapi.Client
)

func init() {
	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initPostgresConnection())
	initFaceApiClient()
	checkErrAndExit(initApplicationGraph())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	return
}

func initPostgresConnection() (err error) {
	connectString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.PgContactPoint,
		config.PgContactPort,
		config.PgUsername,
		config.PgPassword,
		config.PgDbName)
	db, err = gorm.Open("postgres", connectString)
	if err != nil {
		return
	}

	db.LogMode(true)
	db.SetLogger(logger)
	return
}

func initFaceApiClient() {
	faceApiClient = faceapi.NewDefaultClient(config.FaceApiUrl, time.Duration(config.FaceApiTimeoutSeconds)*time.Second)
}

func initApplicationGraph() error {
	dbStore = &Store{}

	g := inject.Graph{}
	g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: guardianService},
		&inject.Object{Value: childService},
		&inject.Object{Value: ruleService},
		&inject.Object{Value: historyService},
		&inject.Object{Value: verificationService},
		&inject.Object{Value: matcher},
		&inject.Object{Value: guardianHandlerFactory},
		&inject.Object{Value: childrenHandlerFactory},
		&inject.Object{Value: rulesHandlerFactory},
		&inject.Object{Value: pickupsHandlerFactory},
		&inject.Object{Value: verificationHandlerFactory},
		&inject.Object{Value: db},
		&inject.Object{Value: stringGenerator},
		&inject.Object{Value: dbStore},
		&inject.Object{Value: faceApiClient},
		&inject.Object{Value: logger},
	)
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	return nil
}

func main() {
	if config.StartupMigration {
		applySqlSchemaMigrations(ctx)
	}
	startHttpServer(ctx)
}

func applySqlSchemaMigrations(ctx context.Context) {
	logger.Info(ctx, "applying sql schema migrations")
	migrationResult := migrations.Up(migrations.ApplyOptions{
		SourceURL: fmt.Sprintf("file://%s", config.SqlMigrationsSourceDir),
		DatabaseURL: fmt.Sprintf("postgres://%v:%v/%v?sslmode=disable&user=%s&password=%s",
			config.PgContactPoint, config.PgContactPort, config.PgDbName, config.PgUsername, config.PgPassword),
	})
	checkErrAndExit(migrationResult.Err)
	if !migrationResult.Changes {
		logger.Info(ctx, "no new migrations applied")
	}
}

func startHttpServer(ctx context.Context) {
	guardianOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(guardians.EncodeError),
	}

	childrenOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(children.EncodeError),
	}

	rulesOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(pickuprules.EncodeError),
	}

	pickupsOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(pickups.EncodeError),
	}

	verifyOpts := []kithttp.ServerOption{
		kithttp.ServerErrorLogger(logger),
		kithttp.ServerErrorEncoder(verification.EncodeError),
	}

	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	apiRouterV1 := router.PathPrefix("/api/v1").Subrouter()

	apiRouterV1.Handle("/verify", verificationHandlerFactory.Verify(verifyOpts)).Methods(http.MethodPost)

	apiRouterV1.Handle("/guardians", guardianHandlerFactory.Add(guardianOpts)).Methods(http.MethodPost)
	apiRouterV1.Handle("/guardians", guardianHandlerFactory.List(guardianOpts)).Methods(http.MethodGet)
	apiRouterV1.Handle("/guardians/{guardianId}", guardianHandlerFactory.Get(guardianOpts)).Methods(http.MethodGet)
	apiRouterV1.Handle("/guardians/{guardianId}", guardianHandlerFactory.Update(guardianOpts)).Methods(http.MethodPatch)
	apiRouterV1.Handle("/guardians/{guardianId}", guardianHandlerFactory.Delete(guardianOpts)).Methods(http.MethodDelete)

	apiRouterV1.Handle("/children", childrenHandlerFactory.Add(childrenOpts)).Methods(http.MethodPost)
	apiRouterV1.Handle("/children", childrenHandlerFactory.List(childrenOpts)).Methods(http.MethodGet)
	apiRouterV1.Handle("/children/{childId}", childrenHandlerFactory.Get(childrenOpts)).Methods(http.MethodGet)
	apiRouterV1.Handle("/children/{childId}", childrenHandlerFactory.Update(childrenOpts)).Methods(http.MethodPatch)
	apiRouterV1.Handle("/children/{childId}", childrenHandlerFactory.Delete(childrenOpts)).Methods(http.MethodDelete)
	apiRouterV1.Handle("/children/{childId}/guardians/{guardianId}", childrenHandlerFactory.LinkGuardian(childrenOpts)).Methods(http.MethodPut)
	apiRouterV1.Handle("/children/{childId}/guardians/{guardianId}", childrenHandlerFactory.UnlinkGuardian(childrenOpts)).Methods(http.MethodDelete)

	apiRouterV1.Handle("/children/{childId}/pickup-rules", rulesHandlerFactory.List(rulesOpts)).Methods(http.MethodGet)
	apiRouterV1.Handle("/children/{childId}/pickup-rules", rulesHandlerFactory.Upsert(rulesOpts)).Methods(http.MethodPost)
	apiRouterV1.Handle("/children/{childId}/pickup-rules/{ruleId}", rulesHandlerFactory.Update(rulesOpts)).Methods(http.MethodPatch)
	apiRouterV1.Handle("/children/{childId}/pickup-rules/{ruleId}", rulesHandlerFactory.Delete(rulesOpts)).Methods(http.MethodDelete)

	apiRouterV1.Handle("/children/{childId}/pickups", pickupsHandlerFactory.List(pickupsOpts)).Methods(http.MethodGet)

	checkErrAndExit(http.ListenAndServe(config.ListenAddress,
		logger.RequestLoggerMiddleware(router),
	))
}

func checkErrAndExit(err error) {
	if err == nil {
		return
	}
	fmt.Println(err.Error())
	os.Exit(1)
}
