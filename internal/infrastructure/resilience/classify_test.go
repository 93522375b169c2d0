package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

var (
	errFlaky = errors.New("flaky")
	errQuota = errors.New("quota")
)

var testKinds = ErrorKinds{
	Transient: func(err error) bool { return errors.Is(err, errFlaky) },
	Rejected:  func(err error) bool { return errors.Is(err, errQuota) },
}

func TestErrorKindsClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"nil", nil, ErrorClassification{}},
		{"cancelled", fmt.Errorf("op: %w", context.Canceled), ErrorClassification{}},
		{"deadline", context.DeadlineExceeded, ErrorClassification{}},
		{"open circuit", gobreaker.ErrOpenState, ErrorClassification{RecordFailure: true}},
		{"rejected", fmt.Errorf("publish: %w", errQuota), ErrorClassification{}},
		{"transient", fmt.Errorf("publish: %w", errFlaky), ErrorClassification{Retryable: true, RecordFailure: true}},
		{"unknown", errors.New("boom"), ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		if got := testKinds.Classify(tc.err); got != tc.want {
			t.Fatalf("%s: Classify() = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestErrorKindsWithoutPredicates(t *testing.T) {
	if got := (ErrorKinds{}).Classify(errFlaky); got.Retryable || !got.RecordFailure {
		t.Fatalf("unexpected classification %+v", got)
	}
}

func TestWrapTemporary(t *testing.T) {
	err := testKinds.WrapTemporary("catalog event publish", errFlaky)
	if !domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, errFlaky) {
		t.Fatalf("expected temporary wrap, got %v", err)
	}
	if err := testKinds.WrapTemporary("redis get", gobreaker.ErrOpenState); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("open circuit must be temporary, got %v", err)
	}
	if got := testKinds.WrapTemporary("catalog event publish", errQuota); got != errQuota {
		t.Fatalf("rejected errors pass through, got %v", got)
	}
	already := domain.WrapError(domain.ErrTemporary, "inner", errFlaky)
	if got := testKinds.WrapTemporary("outer", already); got != already {
		t.Fatalf("already temporary errors are not wrapped twice, got %v", got)
	}
}
