package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agricoop/backend/internal/auth"
	"github.com/agricoop/backend/internal/config"
	"github.com/agricoop/backend/internal/db"
	admindomain "github.com/agricoop/backend/internal/domain/admin"
	loandomain "github.com/agricoop/backend/internal/domain/loan"
	memberdomain "github.com/agricoop/backend/internal/domain/member"
	"github.com/agricoop/backend/internal/http/handlers"
	"github.com/agricoop/backend/internal/observability"
	postgresrepo "github.com/agricoop/backend/internal/repository/postgres"
	"github.com/agricoop/backend/internal/server"
	"github.com/agricoop/backend/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	authRepo := db.NewAuthRepository(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	authService := auth.NewService(authRepo, jwtManager, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authHandler := handlers.NewAuthHandler(authService, auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	memberRepo := postgresrepo.NewMemberRepository(pool)
	paymentRepo := postgresrepo.NewPaymentRepository(pool)
	loanService := loandomain.NewService(
		postgresrepo.NewApplicationRepository(pool),
		postgresrepo.NewInstallmentRepository(pool),
		paymentRepo,
		memberRepo,
		postgresrepo.NewOutboxRepository(pool),
	)
	memberService := memberdomain.NewService(memberRepo)
	adminService := admindomain.NewService(loanService, postgresrepo.NewAuditRepository(pool))

	hub := ws.NewHub()
	notifier := ws.NewNotifier(paymentRepo, hub, logger, 2*time.Second)
	notifierCtx, notifierCancel := context.WithCancel(context.Background())
	defer notifierCancel()
	go func() {
		if err := notifier.Run(notifierCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ws notifier stopped", "err", err)
		}
	}()

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:        pool,
		AuthHandler:   authHandler,
		LoanHandler:   handlers.NewLoanHandler(loanService, authService),
		MemberHandler: handlers.NewMemberHandler(memberService, authService),
		AdminHandler:  handlers.NewAdminHandler(adminService, loanService),
		WSHandler:     ws.NewHandler(hub),
		JWTManager:    jwtManager,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	notifierCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
