package member

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	loandomain "github.com/agricoop/backend/internal/domain/loan"
)

type repoMock struct {
	byID   map[string]*Entity
	byRef  map[string]*Entity
	totals map[string]int64
	seen   map[string]bool

	contributions []Contribution
}

func newRepoMock() *repoMock {
	return &repoMock{
		byID:   map[string]*Entity{},
		byRef:  map[string]*Entity{},
		totals: map[string]int64{},
		seen:   map[string]bool{},
	}
}

func (m *repoMock) addMember(id, ref string) {
	e := &Entity{ID: id, MemberRef: ref, FullName: "Member " + ref, JoinedAt: time.Now().UTC()}
	m.byID[id] = e
	m.byRef[ref] = e
}

func (m *repoMock) GetByID(_ context.Context, id string) (*Entity, error) {
	if e, ok := m.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, context.Canceled
}

func (m *repoMock) GetByRef(_ context.Context, memberRef string) (*Entity, error) {
	if e, ok := m.byRef[memberRef]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, context.Canceled
}

func (m *repoMock) GetContributionTotal(_ context.Context, memberID string) (int64, error) {
	return m.totals[memberID], nil
}

func (m *repoMock) AddContribution(_ context.Context, in AddContributionInput) (*Contribution, bool, error) {
	key := string(in.RefHash)
	if m.seen[key] {
		return nil, false, nil
	}
	m.seen[key] = true
	m.totals[in.MemberID] += in.Amount
	c := Contribution{
		ID:         int64(len(m.contributions) + 1),
		MemberID:   in.MemberID,
		Amount:     in.Amount,
		Reference:  in.Reference,
		RecordedAt: time.Now().UTC(),
	}
	m.contributions = append(m.contributions, c)
	return &c, true, nil
}

func (m *repoMock) ListContributions(_ context.Context, memberID string, _, _ int32) ([]Contribution, error) {
	out := make([]Contribution, 0)
	for _, c := range m.contributions {
		if c.MemberID == memberID {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestHashContributionRefDeterministic(t *testing.T) {
	h1 := HashContributionRef("AGC-001", "TXN-2025-01")
	h2 := HashContributionRef("AGC-001", "TXN-2025-01")
	if string(h1) != string(h2) {
		t.Fatalf("expected deterministic hash")
	}
	if string(h1) == string(HashContributionRef("AGC-002", "TXN-2025-01")) {
		t.Fatalf("expected distinct members to hash differently")
	}
	if string(h1) != string(HashContributionRef(" AGC-001 ", " TXN-2025-01 ")) {
		t.Fatalf("expected whitespace to be ignored")
	}
}

func TestGetProfileDerivesTier(t *testing.T) {
	repo := newRepoMock()
	repo.addMember("m-1", "AGC-001")
	repo.totals["m-1"] = 600_000

	svc := NewService(repo)
	profile, err := svc.GetProfile(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ContributionTotal != 600_000 {
		t.Fatalf("contribution total = %d", profile.ContributionTotal)
	}
	if profile.Tier != "Premium" || profile.MaxLoanAmount != 3_000_000 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestRecordContributionValidation(t *testing.T) {
	repo := newRepoMock()
	repo.addMember("m-1", "AGC-001")
	svc := NewService(repo)

	if _, err := svc.RecordContribution(context.Background(), "", 1000, "TXN-1"); err == nil {
		t.Fatalf("expected error for missing member id")
	}
	if _, err := svc.RecordContribution(context.Background(), "m-1", 0, "TXN-1"); err == nil {
		t.Fatalf("expected error for non-positive amount")
	}

	created, err := svc.RecordContribution(context.Background(), "m-1", 25_000, "TXN-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Amount != 25_000 || created.MemberID != "m-1" {
		t.Fatalf("unexpected contribution: %+v", created)
	}
}

func TestRecordContributionRejectsDuplicateReference(t *testing.T) {
	repo := newRepoMock()
	repo.addMember("m-1", "AGC-001")
	svc := NewService(repo)

	if _, err := svc.RecordContribution(context.Background(), "m-1", 25_000, "TXN-1"); err != nil {
		t.Fatalf("first record: %v", err)
	}

	_, err := svc.RecordContribution(context.Background(), "m-1", 25_000, "TXN-1")
	var vErr *loandomain.ValidationError
	if !errors.As(err, &vErr) || vErr.Code != "duplicate_reference" {
		t.Fatalf("expected duplicate_reference error, got %v", err)
	}
	if repo.totals["m-1"] != 25_000 {
		t.Fatalf("duplicate record changed the total: %d", repo.totals["m-1"])
	}
}

func TestImportContributionsCSVSuccess(t *testing.T) {
	repo := newRepoMock()
	repo.addMember("m-1", "AGC-001")
	repo.addMember("m-2", "AGC-002")
	svc := NewService(repo)

	csvInput := strings.NewReader("member_ref,amount,reference\nAGC-001,50000,TXN-1\nAGC-002,75000,TXN-2\n")
	result, err := svc.ImportContributionsCSV(context.Background(), csvInput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if repo.totals["m-1"] != 50_000 || repo.totals["m-2"] != 75_000 {
		t.Fatalf("unexpected totals: %v", repo.totals)
	}
}

func TestImportContributionsCSVRowErrors(t *testing.T) {
	repo := newRepoMock()
	repo.addMember("m-1", "AGC-001")
	svc := NewService(repo)

	csvInput := strings.NewReader("member_ref,amount,reference\nAGC-001,-5,TXN-1\nAGC-404,1000,TXN-2\nAGC-001,1000,TXN-3\n")
	result, err := svc.ImportContributionsCSV(context.Background(), csvInput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("imported = %d, want 1", result.Imported)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %+v", result.Errors)
	}
	if result.Errors[0].Row != 2 || result.Errors[0].Field != "amount" {
		t.Fatalf("unexpected first error: %+v", result.Errors[0])
	}
	if result.Errors[1].Row != 3 || result.Errors[1].Field != "member_ref" {
		t.Fatalf("unexpected second error: %+v", result.Errors[1])
	}
}

func TestImportContributionsCSVSkipsDuplicates(t *testing.T) {
	repo := newRepoMock()
	repo.addMember("m-1", "AGC-001")
	svc := NewService(repo)

	csvInput := "member_ref,amount,reference\nAGC-001,50000,TXN-1\n"
	if _, err := svc.ImportContributionsCSV(context.Background(), strings.NewReader(csvInput)); err != nil {
		t.Fatalf("first import: %v", err)
	}

	result, err := svc.ImportContributionsCSV(context.Background(), strings.NewReader(csvInput))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if repo.totals["m-1"] != 50_000 {
		t.Fatalf("duplicate import changed the total: %d", repo.totals["m-1"])
	}
}

func TestImportContributionsCSVBadHeader(t *testing.T) {
	svc := NewService(newRepoMock())

	csvInput := strings.NewReader("ref,amount,reference\nAGC-001,50000,TXN-1\n")
	result, err := svc.ImportContributionsCSV(context.Background(), csvInput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 0 || len(result.Errors) != 1 || result.Errors[0].Field != "header" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
