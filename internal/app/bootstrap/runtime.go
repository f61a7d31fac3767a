package bootstrap

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

	cacheadapter "github.com/shambasecure/auth-service/internal/adapters/cache"
	emailadapter "github.com/shambasecure/auth-service/internal/adapters/email"
	httpadapter "github.com/shambasecure/auth-service/internal/adapters/http"
	"github.com/shambasecure/auth-service/internal/adapters/identity"
	"github.com/shambasecure/auth-service/internal/adapters/postgres"
	"github.com/shambasecure/auth-service/internal/adapters/security"
	"github.com/shambasecure/auth-service/internal/application"
	"github.com/shambasecure/auth-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping auth service", "http_port", cfg.HTTPPort, "env", cfg.AppEnv)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	stores := postgres.NewStores(pool)
	signer, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init jwt signer: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		signer, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init ephemeral jwt signer: %w", err)
		}
	}

	links := cacheadapter.NewRedisSignInLinkStore(redisClient)
	deviceVerifications := cacheadapter.NewRedisDeviceVerificationStore(redisClient)

	provider := identity.NewProvider(stores.Accounts, links, signer, identity.ProviderConfig{
		LinkTTL:    cfg.LinkTTL,
		SessionTTL: cfg.SessionTTL,
	})

	// Production refuses to start without EMAIL_USER, so the log fallback
	// only ever serves local and test environments.
	var notifier ports.NotificationDispatcher
	if cfg.SMTPUser == "" {
		logger.Warn("no SMTP credentials configured, notifications go to the log")
		notifier = emailadapter.NewLogDispatcher()
	} else {
		dispatcher, dispErr := emailadapter.NewSMTPDispatcher(emailadapter.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
		})
		if dispErr != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init smtp dispatcher: %w", dispErr)
		}
		notifier = dispatcher
	}

	auth := application.NewAuthService(application.Dependencies{
		Config: application.Config{
			FrontendBaseURL:       cfg.FrontendBaseURL,
			MagicLinkPath:         cfg.MagicLinkPath,
			DeviceVerifyPath:      cfg.DeviceVerifyPath,
			DevMode:               cfg.DevMode(),
			LinkTTL:               cfg.LinkTTL,
			DeviceVerificationTTL: cfg.DeviceVerificationTTL,
			SessionTTL:            cfg.SessionTTL,
			TrustedDeviceLimit:    cfg.TrustedDeviceLimit,
			LoginHistoryKeep:      cfg.LoginHistoryKeep,
			DefaultRole:           cfg.DefaultRole,
		},
		Identity:            provider,
		Directory:           stores.Directory,
		Notifier:            notifier,
		TrustedDevices:      stores.TrustedDevices,
		DeviceVerifications: deviceVerifications,
		LoginActivity:       stores.LoginActivity,
	})
	sensors := application.NewSensorService(cfg.SensorSeed)

	handler := httpadapter.NewHandler(auth, sensors)
	router := httpadapter.NewRouter(handler, cfg.FrontendBaseURL)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}
