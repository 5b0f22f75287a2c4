package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/eventstudio/eventstudio-api/config"
	"github.com/eventstudio/eventstudio-api/internal/handlers"
	"github.com/eventstudio/eventstudio-api/internal/helpers"
	"github.com/eventstudio/eventstudio-api/internal/middleware"
	"github.com/eventstudio/eventstudio-api/internal/services"
)

const shutdownTimeout = 10 * time.Second

func Start(cfg *config.Config) error {
	db, err := config.Database(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access database handle: %w", err)
	}
	defer sqlDB.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, db),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "environment", cfg.Environment)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter wires every route against db.
func NewRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	uploads := helpers.DefaultImageUploadConfig
	uploads.UploadBasePath = cfg.UploadDir

	svc := services.New(db, services.Options{
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
		Uploads:   uploads,
	})

	r := gin.New()
	r.MaxMultipartMemory = uploads.MaxSizeBytes
	r.Use(
		middleware.RequestLogger(),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			slog.Error("panic recovered", "path", c.Request.URL.Path, "panic", recovered)
			helpers.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		}),
		cors.New(cors.Config{
			AllowOrigins:     cfg.ClientURLs,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)
	if cfg.EnableMetrics {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "EventStudio API is running successfully!")
	})
	r.Static("/uploads", filepath.Clean(cfg.UploadDir))

	setupRoutes(r, svc, helpers.NewCookiePolicy(cfg.IsProduction(), cfg.TokenTTL))
	return r
}

func setupRoutes(r *gin.Engine, svc *services.Services, cookies helpers.CookiePolicy) {
	api := r.Group("/api")
	api.Use(middleware.ServicesMiddleware(svc), middleware.CookiePolicyMiddleware(cookies))

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/profile", middleware.JWTAuthMiddleware(), handlers.GetProfile)
		auth.PUT("/update-profile", middleware.JWTAuthMiddleware(), handlers.UpdateProfile)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware())

	events := protected.Group("/events")
	{
		events.POST("", handlers.CreateEvent)
		events.GET("", handlers.ListEvents)
		events.GET("/user/events", handlers.ListUserEvents)
		events.GET("/:id", handlers.GetEvent)
		events.PUT("/:id", handlers.UpdateEvent)
		events.DELETE("/:id", handlers.DeleteEvent)
		events.POST("/:id/image", handlers.UploadEventImage)
	}

	tickets := protected.Group("/tickets")
	{
		tickets.POST("/book", handlers.BookTicket)
		tickets.GET("/my-tickets", handlers.GetUserTickets)
		tickets.POST("/check-in", handlers.CheckInTicket)
		tickets.PUT("/cancel/:ticketId", handlers.CancelTicket)
		tickets.GET("/all", middleware.RequireAdmin(), handlers.GetAllTickets)
		tickets.GET("/:ticketId/qr", handlers.GetTicketQRCode)
	}

	analytics := protected.Group("/analytics")
	analytics.Use(middleware.RequireAdmin())
	{
		analytics.GET("/dashboard", handlers.GetDashboardStats)
		analytics.GET("/demographics", handlers.GetUserDemographics)
		analytics.GET("/performance", handlers.GetEventPerformance)
		analytics.GET("/attendee-insights", handlers.GetAttendeeInsights)
	}
}
