package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("pickupLocation.code", "required")

	if got := err.Error(); got != "validation: pickupLocation.code: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation,
		ErrUnauthorized, ErrForbidden, ErrConflict,
		ErrTransitionNotApplicable, ErrLockNotAcquired,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}

func TestPatronTypeMappingNotFound_NamesFailingSystem(t *testing.T) {
	t.Parallel()

	hop1 := &PatronTypeMappingNotFound{Hop: 1, System: "BORROWER-ILS", Value: "15"}
	if !strings.Contains(hop1.Error(), "BORROWER-ILS") {
		t.Errorf("hop 1 message should name requesting system: %q", hop1.Error())
	}

	hop2 := &PatronTypeMappingNotFound{Hop: 2, System: "SUPPLIER-ILS", Value: "ADULT"}
	if !strings.Contains(hop2.Error(), "SUPPLIER-ILS") {
		t.Errorf("hop 2 message should name supplying system: %q", hop2.Error())
	}
	if !errors.Is(hop2, ErrNotFound) {
		t.Error("PatronTypeMappingNotFound should unwrap to ErrNotFound")
	}
}

func TestTruncateMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		msg    string
		maxLen int
		want   string
	}{
		{name: "short", msg: "boom", maxLen: 10, want: "boom"},
		{name: "exact", msg: "boom", maxLen: 4, want: "boom"},
		{name: "cut", msg: "something failed badly", maxLen: 9, want: "something"},
		{name: "disabled", msg: "something failed badly", maxLen: 0, want: "something failed badly"},
		{name: "multibyte boundary", msg: "abécd", maxLen: 3, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TruncateMessage(tt.msg, tt.maxLen)
			if got != tt.want {
				t.Errorf("TruncateMessage(%q, %d) = %q, want %q", tt.msg, tt.maxLen, got, tt.want)
			}
			if !strings.HasPrefix(tt.msg, got) {
				t.Errorf("result %q is not a prefix of %q", got, tt.msg)
			}
		})
	}
}

func TestChecksFailure_CollectsOnlyFailures(t *testing.T) {
	t.Parallel()

	results := []CheckResult{
		Passed(),
		Failed(FailureDuplicateRequestAttempt, "duplicate"),
		Passed(),
		Failed(FailureUnknownPickupLocation, "unknown"),
	}

	cf := FailedChecks(results)
	if cf == nil {
		t.Fatal("expected ChecksFailure")
	}
	if len(cf.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(cf.Failures))
	}
	if !errors.Is(cf, ErrValidation) {
		t.Error("ChecksFailure should unwrap to ErrValidation")
	}
	if !strings.Contains(cf.Error(), FailureDuplicateRequestAttempt) ||
		!strings.Contains(cf.Error(), FailureUnknownPickupLocation) {
		t.Errorf("message should list every failure code: %q", cf.Error())
	}

	if FailedChecks([]CheckResult{Passed(), Passed()}) != nil {
		t.Error("all-passed results should yield nil")
	}
}
