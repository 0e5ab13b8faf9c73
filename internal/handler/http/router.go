package http

import (
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

// RouterOptions carries the edge settings that do not belong to a handler.
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	CronSecret     string
}

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Auth         AuthHandler
	Employee     EmployeeHandler
	Attendance   AttendanceHandler
	Leave        LeaveHandler
	Salary       SalaryHandler
	AnnualLeave  AnnualLeaveHandler
	Notification NotificationHandler
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	// Called by an external scheduler; guarded by the shared secret only.
	r.Route("/internal/cron", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rate.Every(time.Minute), 5))
		r.Use(middleware.CronSecret(opts.CronSecret))
		r.Post("/annual-leave", h.AnnualLeave.RunScheduledAccrual)
	})

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(rate.Every(time.Second), 10))
			r.Post("/login", h.Auth.Login)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/clock-in", h.Attendance.ClockIn)
				r.Post("/clock-out", h.Attendance.ClockOut)
				r.Get("/me", h.Attendance.GetMyAttendance)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
					r.Get("/", h.Attendance.List)
					r.Get("/{id}/edit-logs", h.Attendance.GetEditLogs)
				})
				r.With(middleware.RequirePermission(user.PermissionAttendanceEdit)).Put("/{id}", h.Attendance.Update)
			})

			r.Route("/leaves", func(r chi.Router) {
				r.Post("/", h.Leave.ApplyLeave)
				r.Get("/me", h.Leave.GetMyRequests)
				r.Get("/balance", h.Leave.GetMyBalance)
				r.Post("/{id}/cancel", h.Leave.CancelRequest)
				r.Post("/{id}/cancellation-requests", h.Leave.RequestCancellation)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", h.Leave.ListRequests)
					r.Get("/balance/{employeeId}", h.Leave.GetBalance)
					r.Post("/{id}/approve", h.Leave.ApproveRequest)
					r.Post("/{id}/reject", h.Leave.RejectRequest)
				})
			})

			r.Route("/leave-cancellations", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Get("/", h.Leave.ListCancellations)
				r.Post("/{id}/approve", h.Leave.ApproveCancellation)
				r.Post("/{id}/reject", h.Leave.RejectCancellation)
			})

			r.Route("/salaries", func(r chi.Router) {
				r.Get("/me/{yearMonth}", h.Salary.GetMySalary)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionSalaryViewAll))
					r.Get("/", h.Salary.ListSalaries)
					r.Get("/{employeeId}/{yearMonth}", h.Salary.GetSalary)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionSalarySettle))
					r.Post("/{employeeId}/{yearMonth}/settle", h.Salary.Settle)
					r.Post("/{employeeId}/{yearMonth}/resettle", h.Salary.Resettle)
					r.Put("/{employeeId}/{yearMonth}/bonus", h.Salary.UpdateBonus)
				})
			})

			r.Route("/annual-leave", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAccrualRun)).Post("/run", h.AnnualLeave.RunAccrual)
				r.Get("/logs/{employeeId}", h.AnnualLeave.GetLogs)
				r.Get("/preview/{employeeId}", h.AnnualLeave.Preview)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/{id}", h.Employee.GetEmployee)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", h.Employee.ListEmployees)
					r.Post("/", h.Employee.CreateEmployee)
					r.Put("/{id}", h.Employee.UpdateEmployee)
					r.Post("/{id}/deactivate", h.Employee.DeactivateEmployee)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Post("/{id}/read", h.Notification.MarkOneAsRead)
			})
		})
	})
	return r
}
