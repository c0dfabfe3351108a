package domain

import (
	"fmt"
	"strings"
)

// Preflight failure codes.
const (
	FailureUnknownPickupLocation      = "UNKNOWN_PICKUP_LOCATION_CODE"
	FailurePickupLocationNotMapped    = "PICKUP_LOCATION_NOT_MAPPED_TO_AGENCY"
	FailureDuplicateRequestAttempt    = "DUPLICATE_REQUEST_ATTEMPT"
	FailureUnknownRequestingSystem    = "UNKNOWN_REQUESTING_SYSTEM"
	FailurePatronNotFound             = "PATRON_NOT_FOUND"
	FailurePatronTypeNotMapped        = "PATRON_TYPE_NOT_MAPPED"
	FailurePatronHomeLibraryNotMapped = "PATRON_HOME_LIBRARY_NOT_MAPPED"
	FailurePatronBlocked              = "PATRON_BLOCKED"
	FailureNoItemSelectable           = "NO_ITEM_SELECTABLE_FOR_REQUEST"
	FailureResolutionFailed           = "RESOLUTION_FAILED"
	FailureCheckError                 = "CHECK_ERROR"
)

// CheckResult is the outcome of one preflight check.
type CheckResult struct {
	Passed             bool
	FailureCode        string
	FailureDescription string
}

// Passed returns a successful CheckResult.
func Passed() CheckResult { return CheckResult{Passed: true} }

// Failed returns a failed CheckResult.
func Failed(code, description string) CheckResult {
	return CheckResult{FailureCode: code, FailureDescription: description}
}

// ChecksFailure aggregates every failed result of one placement attempt.
type ChecksFailure struct {
	Failures []CheckResult
}

func (e *ChecksFailure) Error() string {
	codes := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		codes[i] = f.FailureCode
	}
	return fmt.Sprintf("preflight checks failed: %s", strings.Join(codes, ", "))
}

func (e *ChecksFailure) Unwrap() error { return ErrValidation }

// FailedChecks returns a ChecksFailure for the failed results, or nil when
// every result passed.
func FailedChecks(results []CheckResult) *ChecksFailure {
	var failed []CheckResult
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ChecksFailure{Failures: failed}
}
