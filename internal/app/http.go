package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/http"
	httpH "github.com/yungbote/lms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lms-backend/internal/http/middleware"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Course      *httpH.CourseHandler
	Enrollment  *httpH.EnrollmentHandler
	Lesson      *httpH.LessonHandler
	Deadline    *httpH.DeadlineHandler
	Activity    *httpH.ActivityHandler
	Certificate *httpH.CertificateHandler
	Dashboard   *httpH.DashboardHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Auth: httpH.NewAuthHandler(log, services.Auth, services.OAuth, httpH.AuthHandlerConfig{
			SecureCookies: cfg.Production(),
			ClientURL:     cfg.ClientURL,
		}),
		User:        httpH.NewUserHandler(services.User),
		Course:      httpH.NewCourseHandler(services.Course),
		Enrollment:  httpH.NewEnrollmentHandler(services.Enrollment),
		Lesson:      httpH.NewLessonHandler(services.Lesson),
		Deadline:    httpH.NewDeadlineHandler(services.Deadline),
		Activity:    httpH.NewActivityHandler(services.Activity),
		Certificate: httpH.NewCertificateHandler(services.Certificate),
		Dashboard:   httpH.NewDashboardHandler(services.Dashboard),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	tracing := ""
	if cfg.OtelEnabled {
		tracing = observability.ServiceName(cfg.OtelServiceName)
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ClientURL:          cfg.ClientURL,
		TracingService:     tracing,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		CourseHandler:      handlers.Course,
		EnrollmentHandler:  handlers.Enrollment,
		LessonHandler:      handlers.Lesson,
		DeadlineHandler:    handlers.Deadline,
		ActivityHandler:    handlers.Activity,
		CertificateHandler: handlers.Certificate,
		DashboardHandler:   handlers.Dashboard,
	})
}
