package loan

import (
	"strings"
	"testing"
)

func TestCheckEligibilityActiveLoanFirst(t *testing.T) {
	// The active-loan rule wins even when the amount is also over the cap.
	result := CheckEligibility(100_000, 900_000, true)
	if result.Eligible {
		t.Fatalf("expected rejection for active loan")
	}
	if !strings.Contains(result.Reason, "active loan") {
		t.Fatalf("unexpected reason: %s", result.Reason)
	}
}

func TestCheckEligibilityOverCap(t *testing.T) {
	result := CheckEligibility(100_000, 350_000, false)
	if result.Eligible {
		t.Fatalf("expected rejection over the tier cap")
	}
	if !strings.Contains(result.Reason, "exceeds") || !strings.Contains(result.Reason, "Basic") {
		t.Fatalf("unexpected reason: %s", result.Reason)
	}
}

func TestCheckEligibilityAtCap(t *testing.T) {
	result := CheckEligibility(100_000, 300_000, false)
	if !result.Eligible {
		t.Fatalf("expected request at exactly the cap to pass, got: %s", result.Reason)
	}
}

func TestCheckEligibilityPremiumMultiplier(t *testing.T) {
	result := CheckEligibility(600_000, 3_000_000, false)
	if !result.Eligible {
		t.Fatalf("expected premium 5x cap to pass, got: %s", result.Reason)
	}

	result = CheckEligibility(600_000, 3_000_001, false)
	if result.Eligible {
		t.Fatalf("expected rejection just above the premium cap")
	}
}
