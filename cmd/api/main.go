package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/medicore/hospital-api/config"
	"github.com/medicore/hospital-api/internal/email"
	"github.com/medicore/hospital-api/internal/handler"
	authHandler "github.com/medicore/hospital-api/internal/handler/auth"
	billingHandler "github.com/medicore/hospital-api/internal/handler/billing"
	hospitalHandler "github.com/medicore/hospital-api/internal/handler/hospital"
	patientHandler "github.com/medicore/hospital-api/internal/handler/patient"
	reportHandler "github.com/medicore/hospital-api/internal/handler/report"
	staffHandler "github.com/medicore/hospital-api/internal/handler/staff"
	visitHandler "github.com/medicore/hospital-api/internal/handler/visit"
	"github.com/medicore/hospital-api/internal/identity"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/internal/notify"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/router"
	billingService "github.com/medicore/hospital-api/internal/service/billing"
	identityService "github.com/medicore/hospital-api/internal/service/identity"
	patientService "github.com/medicore/hospital-api/internal/service/patient"
	reportService "github.com/medicore/hospital-api/internal/service/report"
	tenantService "github.com/medicore/hospital-api/internal/service/tenant"
	visitService "github.com/medicore/hospital-api/internal/service/visit"
	"github.com/medicore/hospital-api/pkg/auth"
	"github.com/medicore/hospital-api/pkg/logger"
	redisbroker "github.com/medicore/hospital-api/pkg/messaging/redis"
	"github.com/medicore/hospital-api/pkg/metrics"
	"github.com/medicore/hospital-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("hospital")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	accountRepo := postgres.NewAccountRepository(db)
	hospitalRepo := postgres.NewHospitalRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db, appMetrics)
	profileRepo := postgres.NewProfileRepository(db)
	patientRepo := postgres.NewPatientRepository(db, appMetrics)
	visitRepo := postgres.NewVisitRepository(db, appMetrics)
	vitalRepo := postgres.NewVitalRepository(db, appMetrics)
	prescriptionRepo := postgres.NewPrescriptionRepository(db, appMetrics)
	invoiceRepo := postgres.NewInvoiceRepository(db, appMetrics)
	outboxRepo := postgres.NewOutboxRepository(db)
	reportRepo := postgres.NewReportRepository(db, appMetrics)

	// Change pulses: services enqueue to the outbox, the worker publishes.
	notifier := notify.NewNotifier(outboxRepo, appLogger)

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	// Identity provider
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	mailer := email.NewService(cfg.SMTP, appLogger)
	provider := identity.NewProvider(accountRepo, hasher, mailer)

	jwtService := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})

	// Services
	identitySvc := identityService.NewService(profileRepo, provider, jwtService,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	tenantSvc := tenantService.NewService(hospitalRepo, departmentRepo, profileRepo,
		visitRepo, vitalRepo, prescriptionRepo, provider, notifier, appMetrics, appLogger)
	patientSvc := patientService.NewService(patientRepo, visitRepo, notifier, appLogger)
	visitSvc := visitService.NewService(visitRepo, patientRepo, profileRepo,
		vitalRepo, prescriptionRepo, notifier, appMetrics, appLogger)
	billingSvc := billingService.NewService(invoiceRepo, visitRepo, patientRepo,
		prescriptionRepo, hospitalRepo, notifier, appMetrics, appLogger,
		cfg.Billing.ConsultationFee)
	reportSvc := reportService.NewService(reportRepo)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtService, identitySvc)
	healthH := handler.NewHealthHandler(db)
	hospitalH := hospitalHandler.NewHandler(tenantSvc)
	authH := authHandler.NewHandler(identitySvc)
	staffH := staffHandler.NewHandler(tenantSvc, authMiddleware)
	patientH := patientHandler.NewHandler(patientSvc)
	visitH := visitHandler.NewHandler(visitSvc)
	billingH := billingHandler.NewHandler(billingSvc)
	reportH := reportHandler.NewHandler(reportSvc)

	r := router.NewRouter(
		authMiddleware,
		healthH,
		hospitalH,
		authH,
		staffH,
		patientH,
		visitH,
		billingH,
		reportH,
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst: cfg.RateLimit.Burst,
			CORSConfig:     middleware.DefaultCORSConfig(),
			MetricsPrefix:  "hospital_http",
		},
	)
	r.Setup()

	// Outbox worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	outboxWorker := notify.NewWorker(outboxRepo, broker, notify.WorkerConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
	}, appLogger, appMetrics)
	go outboxWorker.Start(workerCtx)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
