package http

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geocoder89/lecturehub/internal/auth"
	"github.com/geocoder89/lecturehub/internal/config"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	"github.com/geocoder89/lecturehub/internal/http/handlers"
	"github.com/geocoder89/lecturehub/internal/http/middlewares"
	"github.com/geocoder89/lecturehub/internal/observability"
	"github.com/geocoder89/lecturehub/internal/repo"
	"github.com/geocoder89/lecturehub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log       *slog.Logger
	Cfg       config.Config
	Store     repo.Store
	Scheduler handlers.LectureScheduler
	JWT       *auth.Manager
	Hasher    *security.Hasher
	Prom      *observability.Prom
	Gatherer  prometheus.Gatherer
	// Draining flips /readyz to 503 during shutdown.
	Draining *atomic.Bool
	// Limiter backs the login/register rate limit. Nil means in-process counting.
	Limiter middlewares.Counter
	// Cache is told about user and course writes so the scheduler's directory
	// cache does not serve deleted courses. Optional.
	Cache handlers.CacheInvalidator
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.Recovery(d.Log))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequestTimeout(d.Cfg.RequestTimeout()))

	// health
	var stats func() any
	if d.Prom != nil {
		stats = func() any { return d.Prom.Stats() }
	}
	health := handlers.NewHealthHandler(d.Store.Ping, stats)
	if d.Draining != nil {
		health.WithDraining(d.Draining.Load)
	}
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.JWT)
	requireAuth := authMW.RequireAuth()

	counter := d.Limiter
	if counter == nil {
		counter = middlewares.NewMemoryCounter()
	}
	limiter := middlewares.NewRateLimiter(counter, d.Cfg.RateLimitPerMinute, time.Minute, d.Log)

	// users
	authHandler := handlers.NewAuthHandler(d.Store, d.Hasher, d.JWT, d.Log)
	users := r.Group("/user")
	{
		users.POST("/register", middlewares.RequireJSON(), limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
		users.POST("/login", middlewares.RequireJSON(), limiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
		users.GET("/me", requireAuth, authHandler.Me)
	}

	usersHandler := handlers.NewUsersHandler(d.Store, d.Log).WithInvalidator(d.Cache)
	{
		users.GET("", requireAuth, authMW.RequireRole(user.RoleAdmin), usersHandler.List)
		users.GET("/q", requireAuth, authMW.RequireRole(user.RoleAdmin), usersHandler.Search)
		users.GET("/:id", requireAuth, usersHandler.GetByID)
		users.PUT("/update/:id", requireAuth, middlewares.RequireJSON(), usersHandler.Update)
	}

	// courses
	coursesHandler := handlers.NewCoursesHandler(d.Store, d.Log).WithInvalidator(d.Cache)
	r.POST("/course/create", requireAuth, authMW.RequireRole(user.RoleAdmin), middlewares.RequireJSON(), coursesHandler.Create)
	r.PUT("/course/update/:id", requireAuth, authMW.RequireRole(user.RoleAdmin), middlewares.RequireJSON(), coursesHandler.Update)
	r.DELETE("/course/delete/:id", requireAuth, authMW.RequireRole(user.RoleAdmin), coursesHandler.Delete)
	r.GET("/course/:id", coursesHandler.GetByID)
	r.GET("/course", coursesHandler.List)

	// lectures; role checks for these live in the scheduling service
	lecturesHandler := handlers.NewLecturesHandler(d.Scheduler)
	lectures := r.Group("/lecture", requireAuth, limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		lectures.POST("/assign", middlewares.RequireJSON(), lecturesHandler.Assign)
		lectures.GET("/get/:courseId", lecturesHandler.ByCourse)
		lectures.GET("/gets", lecturesHandler.All)
		lectures.GET("/get-assigned/:instructorId", lecturesHandler.ByInstructor)
	}

	return r
}
