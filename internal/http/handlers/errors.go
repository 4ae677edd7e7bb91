package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/agricoop/backend/internal/db"
	loandomain "github.com/agricoop/backend/internal/domain/loan"
	"github.com/gin-gonic/gin"
)

// UserDirectory resolves the authenticated user record; handlers use it to
// map a session's user id onto the cooperative member it belongs to.
type UserDirectory interface {
	Me(ctx context.Context, userID string) (*db.User, error)
}

func writeDomainError(c *gin.Context, err error) {
	var vErr *loandomain.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Code, "message": vErr.Message})
	case errors.Is(err, loandomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

// currentMemberID maps the session user to a member. Admin accounts without a
// member profile get an empty id and false.
func currentMemberID(c *gin.Context, users UserDirectory) (string, bool) {
	uid, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	user, err := users.Me(c.Request.Context(), uid.(string))
	if err != nil || user.MemberID == "" {
		return "", false
	}
	return user.MemberID, true
}
