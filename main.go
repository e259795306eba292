package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dsadmin/auth"
	"dsadmin/config"
	"dsadmin/controllers"
	"dsadmin/database"
	grpcserver "dsadmin/grpc_server"
	"dsadmin/logging"
	"dsadmin/registry"
	"dsadmin/repositories"
	"dsadmin/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("dsadmin exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.UsesInsecureSecret() {
		logger.Warn("jwt.secret is the built-in development default; set DSADMIN_JWT_SECRET in production")
	}

	db, err := database.InitDB(cfg, logger)
	if err != nil {
		return err
	}

	revoked, closeRevocation, err := newRevocationStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRevocation()

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    []byte(cfg.JWT.Secret),
		Algorithm: cfg.JWT.Algorithm,
		Issuer:    cfg.JWT.Issuer,
		TTL:       cfg.JWT.AccessTokenTTL(),
	}, revoked)
	if err != nil {
		return err
	}

	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	permRepo := repositories.NewPermissionRepository(db)
	authenticator := auth.NewAuthenticator(userRepo, tokens, auth.NewPermissionResolver(roleRepo))

	container := controllers.NewContainer(controllers.Dependencies{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Authenticator:  authenticator,
		LoginLimiter:   controllers.NewLoginLimiter(cfg.LoginRateLimit.RequestsPerMinute, cfg.LoginRateLimit.Burst, logger),
		Users:          services.NewUserService(userRepo, roleRepo),
		Roles:          services.NewRoleService(roleRepo, permRepo, userRepo),
		Permissions:    services.NewPermissionService(permRepo),
		DataSources:    services.NewDataSourceService(repositories.NewDataSourceRepository(db)),
		Health:         pingDatabase(db),
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           container,
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer, grpcHealth := grpcserver.NewServer(authenticator, logger)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port %d: %w", cfg.GRPCPort, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info("grpc server listening", zap.String("addr", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	deregister := registerWithConsul(cfg, logger)
	defer deregister()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	grpcHealth.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	logger.Info("servers stopped")
	return nil
}

// newRevocationStore builds the configured backend. The returned func
// releases its resources.
func newRevocationStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.RevocationStore, func(), error) {
	switch cfg.Revocation.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("using redis revocation store", zap.String("addr", cfg.Redis.Addr))
		return auth.NewRedisRevocationStore(client), func() { _ = client.Close() }, nil
	default:
		store := auth.NewMemoryRevocationStore()
		pruner := auth.NewRevocationPruner(store, logger, cfg.Revocation.PruneInterval)
		pruner.Start()
		logger.Info("using in-memory revocation store")
		return store, pruner.Stop, nil
	}
}

func pingDatabase(db *gorm.DB) controllers.HealthCheck {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// registerWithConsul announces both listeners when Consul is enabled. A
// failure is logged and the service keeps running unregistered.
func registerWithConsul(cfg *config.Config, logger *zap.Logger) func() {
	if !cfg.Consul.Enabled {
		return func() {}
	}
	reg, err := registry.NewConsulRegistry(cfg.Consul, logger)
	if err != nil {
		logger.Error("consul unavailable, skipping service registration", zap.Error(err))
		return func() {}
	}

	host := cfg.Consul.ServiceHost
	httpName := cfg.ServiceName + "-http"
	grpcName := cfg.ServiceName + "-grpc"
	httpID := registry.ServiceID(httpName, host, cfg.HTTPPort)
	grpcID := registry.ServiceID(grpcName, host, cfg.GRPCPort)

	registrations := []registry.Registration{
		{
			ID: httpID, Name: httpName, Address: host, Port: cfg.HTTPPort,
			Tags:  []string{"http", "rbac"},
			Meta:  map[string]string{"protocol": "http"},
			Check: registry.HTTPCheck(httpID, host, cfg.HTTPPort, "/healthz", cfg.Consul.CheckInterval, cfg.Consul.CheckTimeout),
		},
		{
			ID: grpcID, Name: grpcName, Address: host, Port: cfg.GRPCPort,
			Tags:  []string{"grpc", "rbac"},
			Meta:  map[string]string{"protocol": "grpc"},
			Check: registry.GRPCCheck(grpcID, fmt.Sprintf("%s:%d", host, cfg.GRPCPort), cfg.Consul.CheckInterval, cfg.Consul.CheckTimeout),
		},
	}

	var registered []string
	for _, r := range registrations {
		if err := reg.Register(r); err != nil {
			logger.Error("service registration failed", zap.String("service_id", r.ID), zap.Error(err))
			continue
		}
		registered = append(registered, r.ID)
	}

	return func() {
		for _, id := range registered {
			if err := reg.Deregister(id); err != nil {
				logger.Warn("service deregistration failed", zap.String("service_id", id), zap.Error(err))
			}
		}
	}
}
