package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/shopkeeper-auth/internal/api/http/handler"
	"github.com/dtroode/shopkeeper-auth/internal/api/http/middleware"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

// Deps holds everything the HTTP router wires together.
type Deps struct {
	Auth           handler.AuthService
	Users          handler.UserLister
	ProfileImages  handler.ProfileImageUpdater
	OAuth          handler.LoginURLBuilder
	Guard          middleware.AccessGuard
	Local          middleware.Strategy
	Refresh        middleware.Strategy
	OAuthProviders map[string]middleware.Strategy
	ContextManager model.ContextManager
	Observer       middleware.StrategyObserver
	RateLimiter    *middleware.RateLimiter
	Metrics        interface {
		Middleware(http.Handler) http.Handler
	}
	MetricsHandler http.Handler
	Health         map[string]model.Pinger
	SecureCookies  bool
	Logger         *logger.Logger
}

// New builds the HTTP API.
//
// Sign in routes pick their Strategy here, protected routes pick their
// authorization checks here.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	logging := middleware.NewLogging(d.Logger)
	authenticate := middleware.NewAuthenticate(d.Guard, d.ContextManager, d.Logger)
	signIn := middleware.NewSignIn(d.ContextManager, d.Observer, d.Logger)

	authHandler := handler.NewAuth(d.Auth, d.OAuth, d.ContextManager, d.SecureCookies, d.Logger)
	userHandler := handler.NewUser(d.Users, d.ProfileImages, d.ContextManager, d.Logger)
	healthHandler := handler.NewHealth(d.Health, d.Logger)

	r.Use(chimiddleware.Recoverer)
	r.Use(logging.Handle)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Handle)
		}

		r.Post("/signup", authHandler.Signup)
		r.With(signIn.With(d.Local)).Post("/signin", authHandler.SignIn)
		r.With(signIn.With(d.Refresh)).Get("/token/refresh", authHandler.Refresh)

		for name, strategy := range d.OAuthProviders {
			r.Get("/"+name, authHandler.OAuthLogin(name))
			r.With(signIn.With(strategy)).Get("/"+name+"/callback", authHandler.SignIn)
		}

		r.With(authenticate.Require()).Get("/", authHandler.Me)
		r.With(authenticate.Require()).Post("/signout", authHandler.SignOut)

		r.Post("/send-email-verification", authHandler.SendEmailVerification)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	r.Route("/users", func(r chi.Router) {
		r.With(authenticate.RequireRole(model.RoleAdmin)).Get("/", userHandler.List)
		if d.ProfileImages != nil {
			r.With(authenticate.Require()).Put("/me/profile-image", userHandler.UploadProfileImage)
		}
	})

	return r
}
