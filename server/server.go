package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/Daskott/haven/server/fcm"
	"github.com/Daskott/haven/server/gfirebase"
	"github.com/Daskott/haven/server/gstorage"
	"github.com/Daskott/haven/server/logger"
	"github.com/Daskott/haven/server/models"
	"github.com/Daskott/haven/server/sos"
	"github.com/Daskott/haven/server/twilio"
	"github.com/Daskott/haven/server/work"
	"github.com/Daskott/haven/shared"
	"github.com/go-playground/validator"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logg = logger.NewLogger()

// NewRouter wires the HTTP API. ID tokens are only checked on the
// '/users' routes & only when 'verifier' is set.
func NewRouter(service *sos.Service, profiles sos.ProfileStore, verifier TokenVerifier, allowedOrigins []string) (http.Handler, error) {
	validate := validator.New()
	if err := RegisterValidators(validate); err != nil {
		return nil, err
	}

	h := &handler{service: service, profiles: profiles, validate: validate}

	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/").Subrouter()
	api.Use(initialContextMiddleware)
	api.HandleFunc("/health", health).Methods("GET")
	api.HandleFunc("/register-token", h.registerToken).Methods("POST")
	api.HandleFunc("/alert", h.createAlert).Methods("POST")
	api.HandleFunc("/send-test-notification", h.sendTestNotification).Methods("POST")
	api.HandleFunc("/alerts", h.listAlerts).Methods("GET")
	api.HandleFunc("/alert/{id}", h.cancelAlert).Methods("DELETE")

	users := api.PathPrefix("/users").Subrouter()
	if verifier != nil {
		users.Use(ownerRouteMiddleware(verifier))
	}
	users.HandleFunc("", h.createUser).Methods("POST")
	users.HandleFunc("/{id}", h.findUser).Methods("GET")
	users.HandleFunc("/{id}", h.updateUser).Methods("PUT")

	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(allowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return cors(router), nil
}

func Start(config *shared.ServerConfig, devMode bool) {
	ctx := context.Background()

	var app *firebase.App
	var err error
	if config.NeedsFirebase() {
		app, err = gfirebase.NewApp(ctx, config.Firebase)
		fatalOnError(err)
	}

	rootDir, err := sqliteRootDir(config, devMode)
	fatalOnError(err)

	var storage *gstorage.GStorage
	backupEnabled := config.Store.Driver == shared.SQLITE_STORE && config.Google.Storage.EnableSqliteBackupAndSync
	if backupEnabled {
		storage, err = gstorage.NewGStorage(
			ctx,
			config.Google.ApplicationCredentials,
			config.Google.Storage.Bucket,
			config.Google.Storage.Prefix,
		)
		fatalOnError(err)
		defer storage.Close()

		dbPath, err := models.DbFilePath(rootDir)
		fatalOnError(err)
		fatalOnError(restoreSqliteDb(ctx, storage, dbPath))
	}

	store, err := openStore(ctx, config, rootDir, app)
	fatalOnError(err)

	push, err := fcm.NewClient(ctx, app, devMode || config.Firebase.Dev)
	fatalOnError(err)

	service := sos.NewService(
		store,
		store,
		twilio.NewClient(config.Twilio, devMode),
		push,
		config.Haven.Alerts.SmsConcurrency,
	)

	var verifier TokenVerifier
	if config.Firebase.VerifyIDTokens {
		verifier, err = app.Auth(ctx)
		fatalOnError(err)
	}

	router, err := NewRouter(service, store, verifier, config.Haven.Cors.AllowedOrigins)
	fatalOnError(err)

	workerPool := work.NewWorkerAdapter(config.Haven.Cron.TimeZone, 1)
	registerWorkerPoolMetrics(prometheus.DefaultRegisterer, workerPool)

	var backup *sqliteBackup
	if backupEnabled {
		backup = &sqliteBackup{storage: storage, db: store.(*models.SqlStore)}
		fatalOnError(registerJobHandlers(workerPool, backup))
		fatalOnError(enqueueJobs(workerPool, config.Google.Storage.SqliteBackupSchedule))
	}
	workerPool.Start()

	server := &http.Server{
		Addr:    net.JoinHostPort(config.Haven.Listener.Host, strconv.Itoa(config.Haven.Listener.Port)),
		Handler: router,
	}
	go serve(server)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down haven server")
	cleanup(server, workerPool, backup, store)
}
