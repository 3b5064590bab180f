package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leetlab/internal/api"
	"leetlab/internal/app/service"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/repository"
	"leetlab/internal/judge"
	"leetlab/internal/platform/config"
	"leetlab/internal/platform/database"
	"leetlab/internal/platform/kv"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := kv.NewClient(kv.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("redis connection failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	tokenAuth := security.NewTokenAuth(cfg.JWTKey)

	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)

	revocations := kv.NewRevocationList(rdb)
	cooldownGate := kv.NewCooldownGate(rdb, cfg.SubmitCooldown, cfg.ThrottleFailOpen, logger)

	judgeClient := judge.NewClient(&http.Client{Timeout: 30 * time.Second}, judge.Config{
		BaseURL:      cfg.JudgeURL,
		APIKey:       cfg.JudgeAPIKey,
		APIHost:      cfg.JudgeAPIHost,
		PollInterval: cfg.JudgePollInterval,
	}, logger)

	sessionService := service.NewSessionService(userRepo, revocations, tokenAuth)
	authService := service.NewAuthService(userRepo, sessionService, tokenAuth, cfg.JWTExp)
	problemService := service.NewProblemService(problemRepo, userRepo, judgeClient, cfg.JudgeTimeout, logger)
	submissionService := service.NewSubmissionService(submissionRepo, problemRepo, userRepo, judgeClient, cfg.JudgeTimeout, logger)

	router := api.NewRouter(api.Services{
		Auth:       authService,
		Session:    sessionService,
		Problem:    problemService,
		Submission: submissionService,
	}, cooldownGate, cfg.JWTExp)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.JudgeTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
