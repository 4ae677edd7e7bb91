package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	loandomain "github.com/agricoop/backend/internal/domain/loan"
	"github.com/gin-gonic/gin"
)

type LoanService interface {
	Submit(ctx context.Context, in loandomain.SubmitInput) (*loandomain.Application, error)
	Get(ctx context.Context, loanID string) (*loandomain.Application, error)
	List(ctx context.Context, f loandomain.ListFilter) ([]loandomain.Application, error)
	Schedule(ctx context.Context, loanID string) ([]loandomain.Installment, error)
	SubmitRepayment(ctx context.Context, in loandomain.RepaymentInput) (*loandomain.RepaymentResult, error)
}

type LoanHandler struct {
	loanService LoanService
	users       UserDirectory
}

func NewLoanHandler(loanService LoanService, users UserDirectory) *LoanHandler {
	return &LoanHandler{loanService: loanService, users: users}
}

type submitLoanRequest struct {
	Amount         int64  `json:"amount"`
	Purpose        string `json:"purpose"`
	DurationMonths int    `json:"duration_months"`
	Tier           string `json:"tier"`
}

func (h *LoanHandler) SubmitApplication(c *gin.Context) {
	memberID, ok := currentMemberID(c, h.users)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no_member_profile"})
		return
	}

	var req submitLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	app, err := h.loanService.Submit(c.Request.Context(), loandomain.SubmitInput{
		MemberID:       memberID,
		Amount:         req.Amount,
		Purpose:        req.Purpose,
		DurationMonths: req.DurationMonths,
		Tier:           req.Tier,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *LoanHandler) ListMyLoans(c *gin.Context) {
	memberID, ok := currentMemberID(c, h.users)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no_member_profile"})
		return
	}

	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.loanService.List(c.Request.Context(), loandomain.ListFilter{
		MemberID: memberID,
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

// getOwnedLoan loads a loan and enforces that it belongs to the session's
// member. Other members' loans look like they don't exist.
func (h *LoanHandler) getOwnedLoan(c *gin.Context) (*loandomain.Application, bool) {
	memberID, ok := currentMemberID(c, h.users)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no_member_profile"})
		return nil, false
	}

	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return nil, false
	}

	app, err := h.loanService.Get(c.Request.Context(), loanID)
	if err != nil {
		writeDomainError(c, err)
		return nil, false
	}
	if app.MemberID != memberID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return nil, false
	}
	return app, true
}

func (h *LoanHandler) GetLoan(c *gin.Context) {
	app, ok := h.getOwnedLoan(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *LoanHandler) GetSchedule(c *gin.Context) {
	app, ok := h.getOwnedLoan(c)
	if !ok {
		return
	}

	items, err := h.loanService.Schedule(c.Request.Context(), app.ID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type repaymentRequest struct {
	InstallmentID string `json:"installment_id" binding:"required"`
	Amount        int64  `json:"amount"`
	Reference     string `json:"reference"`
}

func (h *LoanHandler) SubmitRepayment(c *gin.Context) {
	app, ok := h.getOwnedLoan(c)
	if !ok {
		return
	}

	var req repaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.loanService.SubmitRepayment(c.Request.Context(), loandomain.RepaymentInput{
		LoanID:        app.ID,
		InstallmentID: req.InstallmentID,
		MemberID:      app.MemberID,
		Amount:        req.Amount,
		Reference:     req.Reference,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
