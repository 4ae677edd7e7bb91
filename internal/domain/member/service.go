package member

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	loandomain "github.com/agricoop/backend/internal/domain/loan"
	"github.com/agricoop/backend/internal/domain/tier"
	"golang.org/x/crypto/sha3"
)

var expectedHeaders = []string{
	"member_ref",
	"amount",
	"reference",
}

type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ImportResult struct {
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Errors   []ValidationError `json:"errors"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// HashContributionRef fingerprints one ledger row so that re-importing the
// same bank statement never double-counts a contribution.
func HashContributionRef(memberRef, reference string) []byte {
	input := fmt.Sprintf("%s:%s", strings.TrimSpace(memberRef), strings.TrimSpace(reference))
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(input))
	return h.Sum(nil)
}

func (s *Service) GetProfile(ctx context.Context, memberID string) (*Profile, error) {
	m, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.GetContributionTotal(ctx, memberID)
	if err != nil {
		return nil, err
	}
	t := tier.ForContribution(total)
	return &Profile{
		Member:            *m,
		ContributionTotal: total,
		Tier:              string(t),
		MaxLoanAmount:     tier.MaxLoanAmount(total),
	}, nil
}

func (s *Service) ListContributions(ctx context.Context, memberID string, limit, offset int32) ([]Contribution, error) {
	return s.repo.ListContributions(ctx, memberID, limit, offset)
}

func (s *Service) RecordContribution(ctx context.Context, memberID string, amount int64, reference string) (*Contribution, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, &loandomain.ValidationError{Code: "missing_member_id", Message: "member id is required"}
	}
	if amount <= 0 {
		return nil, &loandomain.ValidationError{Code: "invalid_amount", Message: "contribution amount must be a positive number"}
	}
	m, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	created, inserted, err := s.repo.AddContribution(ctx, AddContributionInput{
		MemberID:  m.ID,
		Amount:    amount,
		Reference: strings.TrimSpace(reference),
		RefHash:   HashContributionRef(m.MemberRef, reference),
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, &loandomain.ValidationError{Code: "duplicate_reference", Message: "a contribution with this reference is already recorded for the member"}
	}
	return created, nil
}

// ImportContributionsCSV ingests a contribution statement, one row per
// contribution. Rows that fail validation are reported individually; valid
// rows keep flowing. Already-imported rows (same member_ref + reference) are
// counted as skipped.
func (s *Service) ImportContributionsCSV(ctx context.Context, csvReader io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(csvReader)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid_csv")
	}
	if len(rows) < 2 {
		return &ImportResult{Errors: []ValidationError{{Row: 1, Field: "file", Message: "csv must include header and at least one data row"}}}, nil
	}

	if err := validateHeader(rows[0]); err != nil {
		return &ImportResult{Errors: []ValidationError{{Row: 1, Field: "header", Message: err.Error()}}}, nil
	}

	result := &ImportResult{Errors: []ValidationError{}}
	for i := 1; i < len(rows); i++ {
		rowNum := i + 1
		record := rows[i]

		parsed, validationErr := parseRow(record)
		if validationErr != nil {
			result.Errors = append(result.Errors, ValidationError{Row: rowNum, Field: validationErr.Field, Message: validationErr.Message})
			continue
		}

		m, err := s.repo.GetByRef(ctx, parsed.MemberRef)
		if err != nil {
			result.Errors = append(result.Errors, ValidationError{Row: rowNum, Field: "member_ref", Message: "unknown member"})
			continue
		}

		_, inserted, err := s.repo.AddContribution(ctx, AddContributionInput{
			MemberID:  m.ID,
			Amount:    parsed.Amount,
			Reference: parsed.Reference,
			RefHash:   HashContributionRef(parsed.MemberRef, parsed.Reference),
		})
		if err != nil {
			return nil, err
		}
		if !inserted {
			result.Skipped++
			continue
		}
		result.Imported++
	}

	return result, nil
}

type rowValidationError struct {
	Field   string
	Message string
}

type parsedRow struct {
	MemberRef string
	Amount    int64
	Reference string
}

func validateHeader(header []string) error {
	if len(header) < len(expectedHeaders) {
		return fmt.Errorf("invalid column count")
	}
	for i, expected := range expectedHeaders {
		if strings.TrimSpace(strings.ToLower(header[i])) != expected {
			return fmt.Errorf("expected header %q at position %d", expected, i+1)
		}
	}
	return nil
}

func parseRow(row []string) (*parsedRow, *rowValidationError) {
	if len(row) < len(expectedHeaders) {
		return nil, &rowValidationError{Field: "row", Message: "invalid column count"}
	}

	memberRef := strings.TrimSpace(row[0])
	if memberRef == "" {
		return nil, &rowValidationError{Field: "member_ref", Message: "required"}
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
	if err != nil || amount <= 0 {
		return nil, &rowValidationError{Field: "amount", Message: "must be a positive integer"}
	}

	reference := strings.TrimSpace(row[2])
	if reference == "" {
		return nil, &rowValidationError{Field: "reference", Message: "required"}
	}

	return &parsedRow{
		MemberRef: memberRef,
		Amount:    amount,
		Reference: reference,
	}, nil
}
