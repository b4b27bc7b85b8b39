package align

import "strings"

// LegacyFields are the pre-migration single-valued fields stored directly on
// a main row. They carry no position semantics.
type LegacyFields struct {
	IssueDescription string
	TimeLoss         string
	ProblemNumber    string
	ProblemStatus    string
	ProblemLink      string
	IncidentNumber   string
	IncidentStatus   string
	IncidentLink     string
}

func (f LegacyFields) empty() bool {
	return strings.TrimSpace(f.IssueDescription) == "" &&
		strings.TrimSpace(f.ProblemNumber) == "" &&
		strings.TrimSpace(f.IncidentNumber) == ""
}

// MergeLegacy folds a main row's legacy fields into the reconstructed
// sequence. Each legacy payload lands in slot 0 unless an array entry at any
// position already represents the same record (normalized identifier for
// problem/incident records, trimmed description for issues); that prevents
// double-rendering without dropping pre-migration data. When slot 0 already
// holds a different record of the same kind, the legacy payloads that could
// not be placed go together into one trailing position: they originate from
// one pre-migration record bundle.
func MergeLegacy(sets []ItemSet, legacy LegacyFields) []ItemSet {
	if legacy.empty() {
		return sets
	}
	if len(sets) == 0 {
		sets = []ItemSet{{Position: 0}}
	}

	var overflow *ItemSet
	place := func(kind Kind, rec *SubRecord) {
		if sets[0].get(kind) == nil {
			sets[0].set(kind, rec)
			rec.Position = 0
			return
		}
		if overflow == nil {
			overflow = &ItemSet{Position: len(sets)}
		}
		rec.Position = overflow.Position
		overflow.set(kind, rec)
	}

	if desc := strings.TrimSpace(legacy.IssueDescription); desc != "" && !hasIssue(sets, desc) {
		place(KindIssue, &SubRecord{
			Kind:        KindIssue,
			Description: desc,
			TimeLoss:    strings.TrimSpace(legacy.TimeLoss),
			Legacy:      true,
		})
	}
	if num := strings.TrimSpace(legacy.ProblemNumber); num != "" && !hasRecord(sets, KindProblem, num) {
		place(KindProblem, &SubRecord{
			Kind:   KindProblem,
			Number: NormalizeIdentifier(num),
			Status: legacy.ProblemStatus,
			Link:   legacy.ProblemLink,
			Legacy: true,
		})
	}
	if num := strings.TrimSpace(legacy.IncidentNumber); num != "" && !hasRecord(sets, KindIncident, num) {
		place(KindIncident, &SubRecord{
			Kind:   KindIncident,
			Number: NormalizeIdentifier(num),
			Status: legacy.IncidentStatus,
			Link:   legacy.IncidentLink,
			Legacy: true,
		})
	}

	if overflow != nil {
		sets = append(sets, *overflow)
	}
	return sets
}

func hasRecord(sets []ItemSet, kind Kind, number string) bool {
	for _, set := range sets {
		if rec := set.get(kind); rec != nil && sameIdentifier(rec.Number, number) {
			return true
		}
	}
	return false
}

func hasIssue(sets []ItemSet, description string) bool {
	want := strings.TrimSpace(description)
	for _, set := range sets {
		if set.Issue != nil && strings.TrimSpace(set.Issue.Description) == want {
			return true
		}
	}
	return false
}
