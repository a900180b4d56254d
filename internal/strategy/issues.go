package strategy

import "fmt"

// IssueKind discriminates validation findings structurally so callers branch
// on kind, never on message text.
type IssueKind string

const (
	KindMissingFeatureID            IssueKind = "missing_feature_id"
	KindInvalidFeatureIDFormat      IssueKind = "invalid_feature_id_format"
	KindReservedFeatureID           IssueKind = "reserved_feature_id"
	KindDuplicateFeatureID          IssueKind = "duplicate_feature_id"
	KindUnknownIndicatorType        IssueKind = "unknown_indicator_type"
	KindInvalidMembershipArity      IssueKind = "invalid_membership_arity"
	KindUnknownMembershipKind       IssueKind = "unknown_membership_kind"
	KindMissingFuzzySetForIndicator IssueKind = "missing_fuzzy_set_for_indicator"
	KindOrphanedFuzzySet            IssueKind = "orphaned_fuzzy_set"
	KindUnknownIndicatorReference   IssueKind = "unknown_indicator_reference"
	KindUnknownFuzzySetReference    IssueKind = "unknown_fuzzy_set_reference"
	KindInvalidOutputName           IssueKind = "invalid_output_name"
	KindDotOnSingleOutput           IssueKind = "dot_notation_on_single_output_indicator"
	KindUnknownTimeframe            IssueKind = "unknown_timeframe"
)

// Issue is one validation finding. Subject names the offending declaration
// (indicator id, fuzzy set id, selector position).
type Issue struct {
	Kind    IssueKind
	Subject string
	Message string
}

func (i Issue) String() string {
	if i.Subject == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Subject, i.Message)
}

// Report accumulates every violation found in one validation pass. The
// validator never short-circuits: a user fixing issues wants the whole batch,
// not one error per run.
type Report struct {
	Errors   []Issue
	Warnings []Issue
}

// Valid reports whether the spec may proceed to resolution.
func (r *Report) Valid() bool { return len(r.Errors) == 0 }

// HasKind reports whether any error or warning carries the given kind.
func (r *Report) HasKind(kind IssueKind) bool {
	for _, i := range r.Errors {
		if i.Kind == kind {
			return true
		}
	}
	for _, i := range r.Warnings {
		if i.Kind == kind {
			return true
		}
	}
	return false
}

func (r *Report) errorf(kind IssueKind, subject, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Issue{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(kind IssueKind, subject, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Issue{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}
