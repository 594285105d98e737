package http

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/lms-backend/internal/domain"
	httpH "github.com/yungbote/lms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lms-backend/internal/http/middleware"
	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	// ClientURL is added to the CORS allow list.
	ClientURL string
	// TracingService enables otelgin spans under this service name when set.
	TracingService string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	CourseHandler      *httpH.CourseHandler
	EnrollmentHandler  *httpH.EnrollmentHandler
	LessonHandler      *httpH.LessonHandler
	DeadlineHandler    *httpH.DeadlineHandler
	ActivityHandler    *httpH.ActivityHandler
	CertificateHandler *httpH.CertificateHandler
	DashboardHandler   *httpH.DashboardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	response.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(httpMW.Tracing(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.ClientURL))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	requireAuth := func(c *gin.Context) { c.Next() }
	optionalAuth := func(c *gin.Context) { c.Next() }
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
		optionalAuth = cfg.AuthMiddleware.OptionalAuth()
	}
	managers := httpMW.RequireRole(types.RoleInstructor, types.RoleAdmin)

	api := r.Group("/api")
	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.Status)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/logout", cfg.AuthHandler.Logout)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
		for _, p := range []types.Provider{types.ProviderGoogle, types.ProviderGitHub} {
			auth.GET("/"+string(p), cfg.AuthHandler.OAuthStart(p))
			auth.GET("/"+string(p)+"/callback", cfg.AuthHandler.OAuthCallback(p))
		}
	}

	// Profile
	if cfg.UserHandler != nil {
		api.GET("/instructors", cfg.UserHandler.ListInstructors)
		profile := api.Group("/profile", requireAuth)
		profile.GET("/me", cfg.UserHandler.GetMe)
		profile.PUT("/me", cfg.UserHandler.UpdateMe)
		profile.GET("/admin", httpMW.RequireRole(types.RoleAdmin), cfg.UserHandler.Admin)
	}

	courses := api.Group("/courses")

	// Enrollment; /enrolled is registered before /:id
	if cfg.EnrollmentHandler != nil {
		courses.GET("/enrolled", requireAuth, cfg.EnrollmentHandler.ListEnrolled)
		courses.POST("/:id/enroll", requireAuth, cfg.EnrollmentHandler.Enroll)
		courses.PATCH("/:id/progress", requireAuth, cfg.EnrollmentHandler.ReportProgress)
		courses.POST("/:id/lessons/:lessonId/complete", requireAuth, cfg.EnrollmentHandler.CompleteLesson)
	}

	// Catalogue
	if cfg.CourseHandler != nil {
		courses.GET("", requireAuth, cfg.CourseHandler.List)
		courses.GET("/:id", optionalAuth, cfg.CourseHandler.Get)
		courses.POST("", requireAuth, managers, cfg.CourseHandler.Create)
		courses.PATCH("/:id", requireAuth, cfg.CourseHandler.Update)
		courses.DELETE("/:id", requireAuth, cfg.CourseHandler.Delete)
		courses.GET("/:id/reviews", cfg.CourseHandler.ListReviews)
		courses.POST("/:id/reviews", requireAuth, cfg.CourseHandler.AddReview)
	}

	// Lessons
	if cfg.LessonHandler != nil {
		courses.GET("/:id/lessons", optionalAuth, cfg.LessonHandler.List)
		courses.GET("/:id/lessons/:lessonId", optionalAuth, cfg.LessonHandler.Get)
		courses.POST("/:id/lessons", requireAuth, cfg.LessonHandler.Create)
		courses.PUT("/:id/lessons/:lessonId", requireAuth, cfg.LessonHandler.Update)
		courses.DELETE("/:id/lessons/:lessonId", requireAuth, cfg.LessonHandler.Delete)
	}

	// Deadlines
	if cfg.DeadlineHandler != nil {
		courses.POST("/:id/deadlines", requireAuth, cfg.DeadlineHandler.Create)
		courses.GET("/:id/deadlines", requireAuth, cfg.DeadlineHandler.ListByCourse)
		api.GET("/deadlines", requireAuth, cfg.DeadlineHandler.ListUpcoming)
		api.POST("/deadlines/:id/complete", requireAuth, cfg.DeadlineHandler.Complete)
	}

	// Activities
	if cfg.ActivityHandler != nil {
		api.GET("/activities", requireAuth, cfg.ActivityHandler.ListMine)
		api.POST("/activities/:id/read", requireAuth, cfg.ActivityHandler.MarkRead)
	}

	// Certificates
	if cfg.CertificateHandler != nil {
		api.GET("/certificates", requireAuth, cfg.CertificateHandler.ListMine)
		api.GET("/certificates/:id/artifact", requireAuth, cfg.CertificateHandler.Artifact)
	}

	// Dashboards
	if cfg.DashboardHandler != nil {
		dash := api.Group("/dashboard", requireAuth)
		dash.GET("/student", cfg.DashboardHandler.Student)
		dash.GET("/instructor", managers, cfg.DashboardHandler.Instructor)
		dash.GET("/admin", httpMW.RequireRole(types.RoleAdmin), cfg.DashboardHandler.Admin)
	}

	return r
}
