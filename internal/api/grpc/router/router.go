package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/shopkeeper-auth/internal/api/grpc/handler"
	"github.com/dtroode/shopkeeper-auth/internal/api/grpc/middleware"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// Router builds the internal gRPC server: the identity service for other
// shopkeeper services, health checks and reflection.
type Router struct {
	users          handler.UserService
	guard          middleware.AccessGuard
	contextManager model.ContextManager
	health         *health.Server
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
func New(
	users handler.UserService,
	guard middleware.AccessGuard,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		users:          users,
		guard:          guard,
		contextManager: contextManager,
		health:         health.NewServer(),
		logger:         logger,
	}
}

// authRequired skips health checks and reflection.
func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/grpc.health.v1.Health/") &&
		!strings.HasPrefix(c.FullMethod(), "/grpc.reflection.")
}

// Register registers all gRPC services and middleware.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.guard, r.contextManager, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(),
			logging.HandleGRPC,
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)

	handler.RegisterIdentityServer(s, handler.NewIdentity(r.users, r.contextManager, r.logger))
	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	r.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	r.health.SetServingStatus(handler.IdentityServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Shutdown marks every service as not serving so that load balancers drain
// the instance before the server stops.
func (r *Router) Shutdown() {
	r.health.Shutdown()
}
