package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rentdesk/server/config"
	"rentdesk/server/internal/api"
	"rentdesk/server/internal/auth"
	"rentdesk/server/internal/database"
	"rentdesk/server/internal/geocoding"
	"rentdesk/server/internal/intake"
	"rentdesk/server/internal/notify"
	"rentdesk/server/internal/processor"
	"rentdesk/server/internal/queue"
	"rentdesk/server/internal/ratelimit"
	"rentdesk/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if cfg.IsDevelopment() {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	logger.WithField("driver", cfg.Database.Driver).Info("Opening database")
	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	site, err := config.LoadSiteSettings(db, cfg.Site)
	if err != nil {
		logger.WithError(err).Warn("Failed to load settings, using environment defaults")
	}

	// Notifications
	var notifiers notify.Multi
	smtpConfig := notify.SMTPConfig{
		Host:     cfg.Notification.SMTP.Host,
		Port:     cfg.Notification.SMTP.Port,
		Username: cfg.Notification.SMTP.Username,
		Password: cfg.Notification.SMTP.Password,
		From:     cfg.Notification.SMTP.From,
	}
	if smtpConfig.Enabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(smtpConfig, site.NotificationEmail, cfg.Server.AdminBaseURL, logger))
	}
	if cfg.Notification.Telegram.BotToken != "" && cfg.Notification.Telegram.ChatID != "" {
		notifiers = append(notifiers, notify.NewTelegramNotifier(
			cfg.Notification.Telegram.BotToken,
			cfg.Notification.Telegram.ChatID,
			cfg.Server.AdminBaseURL,
			logger,
		))
	}
	if len(notifiers) == 0 {
		logger.Warn("No notification channel configured, new leads are only stored")
	}

	leadQueue := queue.NewLeadQueue(cfg.Notification.QueueSize, logger)
	dispatcher := notify.NewDispatcher(leadQueue, notifiers, cfg.Notification.Timeout, logger)
	leadQueue.Start()

	limiter := ratelimit.NewLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute, cfg.RateLimit.Burst)
	jobs := []scheduler.Job{{
		Type:  scheduler.JobPruneRateLimits,
		Every: cfg.RateLimit.CleanupInterval,
		Run: func(ctx context.Context) error {
			if removed := limiter.Cleanup(); removed > 0 {
				logger.Debugf("Pruned %d idle rate limit buckets", removed)
			}
			return nil
		},
	}}

	var locator api.ListingLocator
	if cfg.Geocoding.Enabled {
		geocoder := geocoding.NewGeocoder(logger, cfg.Geocoding.BaseURL, cfg.Geocoding.CacheDir, cfg.Geocoding.Delay)
		locations := processor.NewLocationProcessor(db, geocoder, processor.Options{
			BatchSize:  cfg.Geocoding.BatchSize,
			MaxRetries: cfg.Geocoding.MaxRetries,
			RetryDelay: cfg.Geocoding.RetryDelay,
		}, logger)
		locator = locations

		jobs = append(jobs, scheduler.Job{
			Type:       scheduler.JobGeocodeListings,
			Every:      cfg.Geocoding.Interval,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				_, err := locations.ProcessMissing(ctx)
				return err
			},
		})
	}

	maintenance := scheduler.NewScheduler(logger, jobs...)
	maintenance.Start()

	handler := api.NewHandler(db, api.Options{
		Leads:       intake.NewService(db, dispatcher, logger),
		Tokens:      auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime),
		Locator:     locator,
		Site:        site,
		Development: cfg.IsDevelopment(),
	}, logger)

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	api.SetupRoutes(router, handler, limiter, cfg.Server.AllowOrigins, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shut down")
	}

	maintenance.Stop()
	handler.Wait()
	// Pending notifications are dropped
	if err := leadQueue.Close(); err != nil {
		logger.WithError(err).Error("Failed to close lead queue")
	}
	logger.Info("Server stopped")
}
