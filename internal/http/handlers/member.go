package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	memberdomain "github.com/agricoop/backend/internal/domain/member"
	"github.com/gin-gonic/gin"
)

const maxImportSizeBytes = 20 << 20

type MemberService interface {
	GetProfile(ctx context.Context, memberID string) (*memberdomain.Profile, error)
	ListContributions(ctx context.Context, memberID string, limit, offset int32) ([]memberdomain.Contribution, error)
	RecordContribution(ctx context.Context, memberID string, amount int64, reference string) (*memberdomain.Contribution, error)
	ImportContributionsCSV(ctx context.Context, csvReader io.Reader) (*memberdomain.ImportResult, error)
}

type MemberHandler struct {
	memberService MemberService
	users         UserDirectory
}

func NewMemberHandler(memberService MemberService, users UserDirectory) *MemberHandler {
	return &MemberHandler{memberService: memberService, users: users}
}

func (h *MemberHandler) MyProfile(c *gin.Context) {
	memberID, ok := currentMemberID(c, h.users)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no_member_profile"})
		return
	}

	profile, err := h.memberService.GetProfile(c.Request.Context(), memberID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *MemberHandler) MyContributions(c *gin.Context) {
	memberID, ok := currentMemberID(c, h.users)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no_member_profile"})
		return
	}

	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.memberService.ListContributions(c.Request.Context(), memberID, int32(limit), int32(offset))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_contributions_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type recordContributionRequest struct {
	MemberID  string `json:"member_id" binding:"required"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference" binding:"required"`
}

func (h *MemberHandler) RecordContribution(c *gin.Context) {
	var req recordContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.memberService.RecordContribution(c.Request.Context(), req.MemberID, req.Amount, req.Reference)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *MemberHandler) ImportContributions(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}
	if file.Size > maxImportSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}
	defer src.Close()

	result, err := h.memberService.ImportContributionsCSV(c.Request.Context(), src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import_failed"})
		return
	}

	if len(result.Errors) > 0 && result.Imported == 0 && result.Skipped == 0 {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
