package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/config"
	"github.com/cmlabs-hris/hris-payroll/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/hris-payroll/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/civil"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll/internal/repository/postgresql"
	annualLeaveService "github.com/cmlabs-hris/hris-payroll/internal/service/annualleave"
	attendanceService "github.com/cmlabs-hris/hris-payroll/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/hris-payroll/internal/service/auth"
	employeeService "github.com/cmlabs-hris/hris-payroll/internal/service/employee"
	leaveService "github.com/cmlabs-hris/hris-payroll/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-payroll/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-payroll/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.Options{
		QueryTimeout:    cfg.Database.QueryTimeout,
		ConnectAttempts: cfg.Database.RetryAttempts,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	var locker lock.Locker = lock.Noop{}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		hostname, _ := os.Hostname()
		locker = lock.NewRedisLocker(redisClient, fmt.Sprintf("%s-%d", hostname, os.Getpid()))
	} else {
		slog.Warn("REDIS_ADDR not set, accrual runs without a cross-instance lock")
	}

	clock := civil.NewClock(cfg.Location())
	tx := postgresql.NewTransactor(db)
	retry := database.RetryPolicy{Attempts: cfg.Database.RetryAttempts, BaseDelay: database.DefaultRetry.BaseDelay}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	cancellationRepo := postgresql.NewCancellationRepository(db)
	balanceRepo := postgresql.NewBalanceRepository(db)
	salaryRepo := postgresql.NewSalaryRepository(db)
	annualLeaveLogRepo := postgresql.NewAnnualLeaveLogRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	outboxRepo := postgresql.NewOutboxRepository(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	notifier := notificationService.NewOutboxNotifier(tx, notificationRepo, outboxRepo, cfg.Kafka.NotificationTopic)
	notificationSvc := notificationService.NewNotificationService(notificationRepo)
	authSvc := serviceAuth.NewAuthService(employeeRepo, JWTService)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo)
	attendanceSvc := attendanceService.NewAttendanceService(tx, attendanceRepo, employeeRepo, notifier, clock)
	leaveSvc := leaveService.NewLeaveService(tx, leaveRequestRepo, cancellationRepo, balanceRepo, employeeRepo, notifier, clock)
	calculator := payrollService.NewCalculator(employeeRepo, salaryRepo, attendanceRepo, leaveRequestRepo, clock, retry)
	salarySvc := payrollService.NewSalaryService(tx, salaryRepo, employeeRepo, calculator, notifier, clock)
	accrualJob := annualLeaveService.NewAccrualJob(tx, employeeRepo, annualLeaveLogRepo, balanceRepo, notifier, clock, locker)
	annualLeaveSvc := annualLeaveService.NewAnnualLeaveService(accrualJob, annualLeaveLogRepo, employeeRepo, clock)

	if _, err := fixtures.SeedSuperAdmin(context.Background(), employeeSvc, fixtures.AdminAccount{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
		FullName: cfg.Bootstrap.AdminName,
	}, clock.Today().Format(civil.DateLayout)); err != nil {
		return err
	}

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.App.CORSOrigins,
		CronSecret:     cfg.Cron.Secret,
	}, JWTService, appHTTP.Handlers{
		Auth:         appHTTP.NewAuthHandler(authSvc),
		Employee:     appHTTP.NewEmployeeHandler(employeeSvc),
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Salary:       appHTTP.NewSalaryHandler(salarySvc),
		AnnualLeave:  appHTTP.NewAnnualLeaveHandler(annualLeaveSvc),
		Notification: appHTTP.NewNotificationHandler(notificationSvc),
	})

	scheduler := cron.NewScheduler(cfg.Location())
	if cfg.Cron.Enabled {
		if err := cron.NewAnnualLeaveJobs(accrualJob).RegisterJobs(scheduler, cfg.Cron.AnnualLeaveSpec); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server running", "addr", server.Addr, "timezone", cfg.App.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
