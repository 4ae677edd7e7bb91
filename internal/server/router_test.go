package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agricoop/backend/internal/auth"
	"github.com/agricoop/backend/internal/config"
	"github.com/agricoop/backend/internal/db"
	loandomain "github.com/agricoop/backend/internal/domain/loan"
	memberdomain "github.com/agricoop/backend/internal/domain/member"
	"github.com/agricoop/backend/internal/http/handlers"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type fakeAuthRepo struct {
	users    map[string]*db.User
	sessions map[string]*db.Session
	nextID   int
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*db.User{}, sessions: map[string]*db.Session{}}
}

func (r *fakeAuthRepo) addUser(id, email, password, role, memberID string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	r.users[id] = &db.User{ID: id, Email: email, PasswordHash: string(hash), FullName: "User " + id, Role: role, MemberID: memberID}
}

func (r *fakeAuthRepo) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, context.Canceled
}

func (r *fakeAuthRepo) GetUserByID(_ context.Context, userID string) (*db.User, error) {
	if u, ok := r.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, context.Canceled
}

func (r *fakeAuthRepo) CreateSession(_ context.Context, userID, refreshHash, userAgent, ipAddress string, expiresAt time.Time) (*db.Session, error) {
	r.nextID++
	s := &db.Session{ID: "sess-" + string(rune('0'+r.nextID)), UserID: userID, RefreshTokenHash: refreshHash, UserAgent: userAgent, IPAddress: ipAddress, ExpiresAt: expiresAt}
	r.sessions[s.ID] = s
	return s, nil
}

func (r *fakeAuthRepo) GetSessionByID(_ context.Context, sessionID string) (*db.Session, error) {
	if s, ok := r.sessions[sessionID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, context.Canceled
}

func (r *fakeAuthRepo) RevokeSession(_ context.Context, sessionID string) error {
	if s, ok := r.sessions[sessionID]; ok {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

func (r *fakeAuthRepo) UpdateSessionRefreshHash(_ context.Context, sessionID, refreshHash string) error {
	if s, ok := r.sessions[sessionID]; ok {
		s.RefreshTokenHash = refreshHash
	}
	return nil
}

type fakeLoanService struct {
	app *loandomain.Application
}

func (s *fakeLoanService) Submit(_ context.Context, in loandomain.SubmitInput) (*loandomain.Application, error) {
	return &loandomain.Application{ID: "l-1", MemberID: in.MemberID, Amount: in.Amount, Status: loandomain.StatusPending}, nil
}

func (s *fakeLoanService) Get(_ context.Context, loanID string) (*loandomain.Application, error) {
	if s.app != nil && s.app.ID == loanID {
		return s.app, nil
	}
	return nil, loandomain.ErrNotFound
}

func (s *fakeLoanService) List(_ context.Context, _ loandomain.ListFilter) ([]loandomain.Application, error) {
	if s.app == nil {
		return []loandomain.Application{}, nil
	}
	return []loandomain.Application{*s.app}, nil
}

func (s *fakeLoanService) Schedule(_ context.Context, loanID string) ([]loandomain.Installment, error) {
	return []loandomain.Installment{{ID: "inst-1", LoanID: loanID, Number: 1, Total: 10_500}}, nil
}

func (s *fakeLoanService) SubmitRepayment(_ context.Context, in loandomain.RepaymentInput) (*loandomain.RepaymentResult, error) {
	return &loandomain.RepaymentResult{
		Installment: &loandomain.Installment{ID: in.InstallmentID, LoanID: in.LoanID, PaidAmount: in.Amount, Status: loandomain.InstallmentPartial},
		Payment:     &loandomain.Payment{ID: 1, LoanID: in.LoanID, Amount: in.Amount},
	}, nil
}

func (s *fakeLoanService) Stats(_ context.Context) (*loandomain.Stats, error) {
	return &loandomain.Stats{TotalApplications: 1}, nil
}

type fakeAdminService struct{}

func (s *fakeAdminService) ApproveLoan(_ context.Context, _, loanID string) (*loandomain.Application, error) {
	return &loandomain.Application{ID: loanID, Status: loandomain.StatusApproved}, nil
}

func (s *fakeAdminService) RejectLoan(_ context.Context, _, loanID, reason string) (*loandomain.Application, error) {
	return &loandomain.Application{ID: loanID, Status: loandomain.StatusRejected, RejectReason: reason}, nil
}

func (s *fakeAdminService) DisburseLoan(_ context.Context, _, loanID string) (*loandomain.Application, error) {
	return &loandomain.Application{ID: loanID, Status: loandomain.StatusDisbursed}, nil
}

type fakeMemberService struct{}

func (s *fakeMemberService) GetProfile(_ context.Context, memberID string) (*memberdomain.Profile, error) {
	return &memberdomain.Profile{Member: memberdomain.Entity{ID: memberID}, ContributionTotal: 200_000, Tier: "Basic", MaxLoanAmount: 600_000}, nil
}

func (s *fakeMemberService) ListContributions(_ context.Context, memberID string, _, _ int32) ([]memberdomain.Contribution, error) {
	return []memberdomain.Contribution{{ID: 1, MemberID: memberID, Amount: 50_000}}, nil
}

func (s *fakeMemberService) RecordContribution(_ context.Context, memberID string, amount int64, reference string) (*memberdomain.Contribution, error) {
	return &memberdomain.Contribution{ID: 2, MemberID: memberID, Amount: amount, Reference: reference}, nil
}

func (s *fakeMemberService) ImportContributionsCSV(_ context.Context, _ io.Reader) (*memberdomain.ImportResult, error) {
	return &memberdomain.ImportResult{Imported: 1}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeAuthRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeAuthRepo()
	repo.addUser("u-member", "member@coop.test", "secret123", auth.RoleMember, "m-1")
	repo.addUser("u-admin", "admin@coop.test", "secret123", auth.RoleAdmin, "")

	jwtManager := auth.NewJWTManager("issuer", "aud", "test-secret")
	authSvc := auth.NewService(repo, jwtManager, 15*time.Minute, 24*time.Hour)
	authHandler := handlers.NewAuthHandler(authSvc, auth.CookieConfig{}, 15*time.Minute, 24*time.Hour)

	loans := &fakeLoanService{app: &loandomain.Application{ID: "l-1", MemberID: "m-1", Amount: 100_000, Status: loandomain.StatusApproved}}

	r := NewRouter(config.Config{Env: "test"}, slog.Default(), Dependencies{
		AuthHandler:   authHandler,
		LoanHandler:   handlers.NewLoanHandler(loans, authSvc),
		MemberHandler: handlers.NewMemberHandler(&fakeMemberService{}, authSvc),
		AdminHandler:  handlers.NewAdminHandler(&fakeAdminService{}, loans),
		JWTManager:    jwtManager,
	})
	return r, repo
}

func login(t *testing.T, r *gin.Engine, email string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{"email":"`+email+`","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.AccessCookieName {
			return c
		}
	}
	t.Fatalf("missing access cookie")
	return nil
}

func TestMemberRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	cookie := login(t, r, "member@coop.test")

	paths := []string{
		"/v1/loans",
		"/v1/loans/l-1",
		"/v1/loans/l-1/schedule",
		"/v1/members/me",
		"/v1/contributions",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestUnknownLoanReturnsNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	cookie := login(t, r, "member@coop.test")

	req := httptest.NewRequest(http.MethodGet, "/v1/loans/l-unknown", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r, _ := newTestRouter(t)

	memberCookie := login(t, r, "member@coop.test")
	req := httptest.NewRequest(http.MethodGet, "/admin/analytics", nil)
	req.AddCookie(memberCookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member on admin route, got %d", w.Code)
	}

	adminCookie := login(t, r, "admin@coop.test")
	req = httptest.NewRequest(http.MethodGet, "/admin/analytics", nil)
	req.AddCookie(adminCookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/loans/l-1/approve", nil)
	req.AddCookie(adminCookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected approve 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/loans", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHealthAndMetaArePublic(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/v1/meta"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, w.Code)
		}
	}
}
