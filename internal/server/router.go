package server

import (
	"log/slog"
	"net/http"

	"github.com/agricoop/backend/internal/auth"
	"github.com/agricoop/backend/internal/config"
	"github.com/agricoop/backend/internal/http/handlers"
	"github.com/agricoop/backend/internal/http/middleware"
	"github.com/agricoop/backend/internal/version"
	"github.com/agricoop/backend/internal/ws"
	"github.com/gin-gonic/gin"
)

const maxRequestBodyBytes = 25 << 20

type Dependencies struct {
	Pinger        handlers.Pinger
	AuthHandler   *handlers.AuthHandler
	LoanHandler   *handlers.LoanHandler
	MemberHandler *handlers.MemberHandler
	AdminHandler  *handlers.AdminHandler
	WSHandler     *ws.Handler
	JWTManager    *auth.JWTManager
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestBodyLimit(maxRequestBodyBytes))
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	if deps.AuthHandler != nil && deps.JWTManager != nil {
		authGroup := r.Group("/v1/auth")
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)

		protected := authGroup.Group("")
		protected.Use(middleware.RequireAuth(deps.JWTManager))
		protected.GET("/me", deps.AuthHandler.Me)

		memberGroup := r.Group("/v1")
		memberGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleMember, auth.RoleAdmin))
		if deps.LoanHandler != nil {
			memberGroup.POST("/loans", deps.LoanHandler.SubmitApplication)
			memberGroup.GET("/loans", deps.LoanHandler.ListMyLoans)
			memberGroup.GET("/loans/:loanId", deps.LoanHandler.GetLoan)
			memberGroup.GET("/loans/:loanId/schedule", deps.LoanHandler.GetSchedule)
			memberGroup.POST("/loans/:loanId/repay", deps.LoanHandler.SubmitRepayment)
		}
		if deps.MemberHandler != nil {
			memberGroup.GET("/members/me", deps.MemberHandler.MyProfile)
			memberGroup.GET("/contributions", deps.MemberHandler.MyContributions)
		}
		if deps.WSHandler != nil {
			memberGroup.GET("/ws", deps.WSHandler.HandleWebSocket)
		}

		if deps.AdminHandler != nil {
			adminGroup := r.Group("/admin")
			adminGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAdmin))
			adminGroup.GET("/loans", deps.AdminHandler.ListLoans)
			adminGroup.GET("/loans/:loanId", deps.AdminHandler.GetLoan)
			adminGroup.GET("/loans/:loanId/schedule", deps.AdminHandler.GetSchedule)
			adminGroup.POST("/loans/:loanId/approve", deps.AdminHandler.ApproveLoan)
			adminGroup.POST("/loans/:loanId/reject", deps.AdminHandler.RejectLoan)
			adminGroup.POST("/loans/:loanId/disburse", deps.AdminHandler.DisburseLoan)
			adminGroup.GET("/analytics", deps.AdminHandler.GetAnalytics)
			adminGroup.GET("/system/health", deps.AdminHandler.SystemHealth)
			if deps.MemberHandler != nil {
				adminGroup.POST("/contributions", deps.MemberHandler.RecordContribution)
				adminGroup.POST("/contributions/import", deps.MemberHandler.ImportContributions)
			}
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
