package service

import (
	"fmt"
	"strings"
)

// CrossOutcome is the tri-state result of comparing the identity and tax
// records. Mismatches are advisory: they are surfaced as a warning and never
// block the state transition.
type CrossOutcome int

const (
	CrossMatched CrossOutcome = iota
	CrossDOBMismatch
	CrossNameMismatch
)

// CrossValidationResult is derived, never stored.
type CrossValidationResult struct {
	Outcome     CrossOutcome
	IdentityVal string
	TaxVal      string
}

// Message renders the advisory line shown to the user.
func (r CrossValidationResult) Message() string {
	switch r.Outcome {
	case CrossDOBMismatch:
		return fmt.Sprintf("⚠️ DOB mismatch! Identity card: %s, Tax card: %s", r.IdentityVal, r.TaxVal)
	case CrossNameMismatch:
		return fmt.Sprintf("⚠️ Name mismatch! Identity card: %s, Tax card: %s", r.IdentityVal, r.TaxVal)
	default:
		return "✅ Identity and tax card details matched."
	}
}

// CrossValidate compares the two independently extracted records.
//
// DOB mismatch takes priority over name mismatch. Name equality is a
// symmetric, case-insensitive substring containment test so a truncated
// middle name on either card still matches. Absent tax-side values are
// skipped: the tax card does not always print the DOB.
func CrossValidate(identityName, identityDOB, taxName, taxDOB string) CrossValidationResult {
	if taxDOB != "" && identityDOB != "" && taxDOB != identityDOB {
		return CrossValidationResult{Outcome: CrossDOBMismatch, IdentityVal: identityDOB, TaxVal: taxDOB}
	}

	if taxName != "" && identityName != "" {
		a := strings.ToLower(strings.TrimSpace(identityName))
		b := strings.ToLower(strings.TrimSpace(taxName))
		if !strings.Contains(a, b) && !strings.Contains(b, a) {
			return CrossValidationResult{Outcome: CrossNameMismatch, IdentityVal: identityName, TaxVal: taxName}
		}
	}

	return CrossValidationResult{Outcome: CrossMatched}
}
