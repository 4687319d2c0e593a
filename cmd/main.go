package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	apicontext "github.com/dtroode/shopkeeper-auth/internal/api/context"
	grpcrouter "github.com/dtroode/shopkeeper-auth/internal/api/grpc/router"
	grpcserver "github.com/dtroode/shopkeeper-auth/internal/api/grpc/server"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/middleware"
	httprouter "github.com/dtroode/shopkeeper-auth/internal/api/http/router"
	httpserver "github.com/dtroode/shopkeeper-auth/internal/api/http/server"
	"github.com/dtroode/shopkeeper-auth/internal/config"
	"github.com/dtroode/shopkeeper-auth/internal/guard"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/mailer"
	"github.com/dtroode/shopkeeper-auth/internal/metrics"
	"github.com/dtroode/shopkeeper-auth/internal/model"
	"github.com/dtroode/shopkeeper-auth/internal/oauth"
	"github.com/dtroode/shopkeeper-auth/internal/repository/postgres"
	"github.com/dtroode/shopkeeper-auth/internal/repository/redis"
	"github.com/dtroode/shopkeeper-auth/internal/security"
	"github.com/dtroode/shopkeeper-auth/internal/server"
	"github.com/dtroode/shopkeeper-auth/internal/service"
	storage "github.com/dtroode/shopkeeper-auth/internal/storage/minio"
	"github.com/dtroode/shopkeeper-auth/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	cache, err := redis.NewConnection(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("failed to initialize cache", "error", err)
	}
	defer cache.Close()

	smtp, err := mailer.NewSMTP(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to initialize mailer", "error", err)
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	images, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.PublicURL)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	google, err := oauth.NewGoogle(ctx, cfg.Google)
	if err != nil {
		logger.Fatal("failed to initialize google provider", "error", err)
	}
	authenticator := oauth.NewAuthenticator()
	if err := authenticator.Use("google", google); err != nil {
		logger.Fatal("failed to register google provider", "error", err)
	}

	users := postgres.NewUserRepository(db)
	issuer := token.NewIssuer(cfg.Token)
	passwords := security.NewArgon2(security.Argon2Params(cfg.Argon2))
	sessionHasher := security.NewArgon2(security.SessionParams)

	sessions := service.NewSessions(redis.NewSessionRepository(cache), sessionHasher, cfg.Token.RefreshTTL, cfg.Timeouts.Call, logger)
	codes := service.NewVerificationCodes(redis.NewCodeRepository(cache), smtp, cfg.Timeouts.VerificationCode, cfg.Timeouts.Call, logger)
	authService := service.NewAuth(users, issuer, sessions, codes, smtp, passwords, service.AuthConfig{
		PasswordResetURL: cfg.PasswordResetURL,
		CallTimeout:      cfg.Timeouts.Call,
	}, logger)
	verifier := service.NewCredentialVerifier(users, passwords, cfg.Timeouts.Call, logger)
	linker := service.NewIdentityLinker(users, cfg.Timeouts.Call, logger)
	profileImages := service.NewProfileImages(users, images, cfg.Storage.MaxSize, cfg.Timeouts.Call, logger)

	g := guard.New(issuer, sessions, authService, logger)
	ctxMgr := apicontext.NewManager()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	collector.GaugeFunc("shopkeeper_ratelimit_clients", "Clients tracked by the /auth rate limiter.",
		func() float64 { return float64(limiter.Len()) })

	handler := httprouter.New(httprouter.Deps{
		Auth:          authService,
		Users:         authService,
		ProfileImages: profileImages,
		OAuth:         authenticator,
		Guard:         g,
		Local:         middleware.NewLocalStrategy(verifier),
		Refresh:       middleware.NewRefreshStrategy(g),
		OAuthProviders: map[string]middleware.Strategy{
			"google": middleware.NewOAuthStrategy("google", authenticator, linker, cfg.HTTP.CookieSecure),
		},
		ContextManager: ctxMgr,
		Observer:       collector,
		RateLimiter:    limiter,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		Health: map[string]model.Pinger{
			"postgres": db,
			"redis":    cache,
		},
		SecureCookies: cfg.HTTP.CookieSecure,
		Logger:        logger,
	})

	grpcRoutes := grpcrouter.New(authService, g, ctxMgr, logger)

	servers := []struct {
		server model.Server
		sl     model.SecurityLayer
	}{
		{
			server: httpserver.NewHTTPServer(handler, cfg.HTTP.Addr, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout),
			sl:     server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName),
		},
		{
			server: grpcserver.NewGRPCServer(grpcRoutes.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
			sl:     server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName),
		},
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s.server, s.sl)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")
	grpcRoutes.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.server.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.server.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
