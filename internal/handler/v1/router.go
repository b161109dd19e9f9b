package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/metrics"
)

type RouterDeps struct {
	Config       *config.Config
	Appointments AppointmentService
	Availability AvailabilityService
	Tokens       TokenValidator
	Metrics      *metrics.Collector
	Log          *zap.Logger

	// Ready backs /ready. Nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d RouterDeps) *gin.Engine {
	if d.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(d.Log))
	r.Use(Metrics(d.Metrics))
	r.Use(cors.New(corsConfig(d.Config.CORS)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": d.Config.App.Version})
	})
	r.GET("/ready", func(c *gin.Context) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				d.Log.Warn("readiness check failed", zap.Error(err))
				respondError(c, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	rl := d.Config.RateLimit
	booking := RateLimit(rate.Limit(float64(rl.BookingRequestsPerMinute)/60), max(rl.BookingRequestsPerMinute, 1))

	api := r.Group("/api/v1")
	api.Use(RateLimit(rate.Limit(rl.RequestsPerSecond), rl.BurstSize))
	api.Use(Authenticate(d.Tokens))

	appointments := NewAppointmentHandler(d.Appointments, d.Log)
	availability := NewAvailabilityHandler(d.Availability, d.Config.Scheduling, d.Log)

	appts := api.Group("/appointments")
	{
		appts.POST("", RequireRole(domain.RolePatient), booking, appointments.Create)
		appts.GET("", RequireRole(domain.RolePatient), appointments.ListForPatient)
		appts.GET("/:id", RequireRole(domain.RolePatient, domain.RoleDoctor, domain.RoleAdmin), appointments.Get)
		appts.PATCH("/:id", RequireRole(domain.RolePatient, domain.RoleDoctor), appointments.Update)
		appts.POST("/:id/cancel", RequireRole(domain.RolePatient, domain.RoleDoctor), appointments.Cancel)
		appts.POST("/:id/accept", RequireRole(domain.RoleDoctor), appointments.Accept)
		appts.POST("/:id/reschedule", RequireRole(domain.RoleDoctor), booking, appointments.Reschedule)
	}

	doctors := api.Group("/doctors")
	{
		doctors.GET("/:id/availability", availability.Slots)
		doctors.GET("/:id/availability/check", availability.Check)
	}

	self := api.Group("/doctor", RequireRole(domain.RoleDoctor))
	{
		self.GET("/appointments", appointments.ListForDoctor)
		self.GET("/statistics", appointments.Statistics)
	}

	admin := api.Group("/admin", RequireRole(domain.RoleAdmin))
	{
		admin.GET("/patients/:id/appointments", appointments.AdminListForPatient)
		admin.GET("/doctors/:id/appointments", appointments.AdminListForDoctor)
		admin.GET("/doctors/:id/statistics", appointments.AdminStatistics)
	}

	return r
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowMethods = cfg.AllowedMethods
	c.AllowHeaders = cfg.AllowedHeaders
	c.ExposeHeaders = []string{headerRequestID}
	c.AllowCredentials = true
	c.MaxAge = cfg.MaxAge
	return c
}
