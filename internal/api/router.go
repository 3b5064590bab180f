package api

import (
	"log/slog"
	"net/http"
	"time"

	"leetlab/internal/api/handler"
	"leetlab/internal/app/service"
	"leetlab/internal/platform/kv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
)

type Services struct {
	Auth       *service.AuthService
	Session    *service.SessionService
	Problem    *service.ProblemService
	Submission *service.SubmissionService
}

func NewRouter(svcs Services, cooldownGate *kv.CooldownGate, cookieTTL time.Duration) http.Handler {
	r := chi.NewRouter()

	logger := httplog.NewLogger("leetlab", httplog.Options{
		LogLevel:         slog.LevelInfo,
		Concise:          true,
		MessageFieldName: "message",
	})

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	// Outer bound on any request, judge polling included.
	r.Use(chiMiddleware.Timeout(120 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(svcs.Auth, svcs.Session, cookieTTL)
	r.Route("/user", authHandler.RegisterRoutes)

	problemHandler := handler.NewProblemHandler(svcs.Problem, svcs.Session)
	r.Route("/problem", problemHandler.RegisterRoutes)

	submissionHandler := handler.NewSubmissionHandler(svcs.Submission, svcs.Session, cooldownGate)
	r.Route("/submission", submissionHandler.RegisterRoutes)

	return r
}
