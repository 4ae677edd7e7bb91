package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	admindomain "github.com/agricoop/backend/internal/domain/admin"
	loandomain "github.com/agricoop/backend/internal/domain/loan"
	"github.com/gin-gonic/gin"
)

type AdminService interface {
	ApproveLoan(ctx context.Context, adminUserID, loanID string) (*loandomain.Application, error)
	RejectLoan(ctx context.Context, adminUserID, loanID, reason string) (*loandomain.Application, error)
	DisburseLoan(ctx context.Context, adminUserID, loanID string) (*loandomain.Application, error)
}

type LoanDirectory interface {
	Get(ctx context.Context, loanID string) (*loandomain.Application, error)
	List(ctx context.Context, f loandomain.ListFilter) ([]loandomain.Application, error)
	Schedule(ctx context.Context, loanID string) ([]loandomain.Installment, error)
	Stats(ctx context.Context) (*loandomain.Stats, error)
}

type AdminHandler struct {
	adminService AdminService
	loans        LoanDirectory
}

func NewAdminHandler(adminService AdminService, loans LoanDirectory) *AdminHandler {
	return &AdminHandler{adminService: adminService, loans: loans}
}

var _ AdminService = (*admindomain.Service)(nil)

func adminUserID(c *gin.Context) string {
	uid, ok := c.Get("user_id")
	if !ok {
		return ""
	}
	return uid.(string)
}

func (h *AdminHandler) ListLoans(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.loans.List(c.Request.Context(), loandomain.ListFilter{
		MemberID: strings.TrimSpace(c.Query("member_id")),
		Status:   strings.TrimSpace(c.Query("status")),
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_loans_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AdminHandler) GetLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	app, err := h.loans.Get(c.Request.Context(), loanID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *AdminHandler) GetSchedule(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	items, err := h.loans.Schedule(c.Request.Context(), loanID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AdminHandler) ApproveLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	app, err := h.adminService.ApproveLoan(c.Request.Context(), adminUserID(c), loanID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type rejectLoanRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *AdminHandler) RejectLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	var req rejectLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_reason"})
		return
	}
	app, err := h.adminService.RejectLoan(c.Request.Context(), adminUserID(c), loanID, req.Reason)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *AdminHandler) DisburseLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	app, err := h.adminService.DisburseLoan(c.Request.Context(), adminUserID(c), loanID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	stats, err := h.loans.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics_failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) SystemHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
