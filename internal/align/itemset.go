// Package align implements the item-set alignment engine: rebuilding
// position-aligned item sets from independent sub-record rows, folding in
// pre-migration legacy fields, and serializing editable cards back into
// position-aligned arrays.
package align

import "fmt"

// Kind identifies which of the three sub-record slots a record occupies.
type Kind string

const (
	KindIssue    Kind = "issue"
	KindProblem  Kind = "problemRecord"
	KindIncident Kind = "incidentRecord"
)

// SubRecord is the unified representation of one sub-record, whichever way it
// was stored. Issue records use Description and TimeLoss; problem and incident
// records use Number, Status and Link. Legacy marks records that came from a
// main row's pre-migration single-valued fields rather than a positioned row;
// only the legacy merger sets it.
type SubRecord struct {
	Kind        Kind   `json:"kind"`
	RowID       string `json:"rowId,omitempty"`
	Position    int    `json:"position"`
	Description string `json:"description,omitempty"`
	TimeLoss    string `json:"timeLoss,omitempty"`
	Number      string `json:"number,omitempty"`
	Status      string `json:"status,omitempty"`
	Link        string `json:"link,omitempty"`
	Legacy      bool   `json:"legacy,omitempty"`
}

// Empty reports whether the record carries no payload for its kind.
func (r *SubRecord) Empty() bool {
	if r == nil {
		return true
	}
	if r.Kind == KindIssue {
		return r.Description == ""
	}
	return r.Number == ""
}

// ItemSet is one positional slot: at most one issue, one problem record and
// one incident record. A nil slot is an explicit empty marker, never an
// omission. ItemSets are rebuilt from the current row set on every read and
// are never persisted.
type ItemSet struct {
	Position int
	Issue    *SubRecord
	Problem  *SubRecord
	Incident *SubRecord
}

func (s ItemSet) get(kind Kind) *SubRecord {
	switch kind {
	case KindIssue:
		return s.Issue
	case KindProblem:
		return s.Problem
	case KindIncident:
		return s.Incident
	}
	return nil
}

func (s *ItemSet) set(kind Kind, rec *SubRecord) {
	switch kind {
	case KindIssue:
		s.Issue = rec
	case KindProblem:
		s.Problem = rec
	case KindIncident:
		s.Incident = rec
	}
}

// InconsistencyError reports two rows claiming the same
// (groupingKey, position, kind) triple. The reconstructor surfaces it instead
// of silently picking one row.
type InconsistencyError struct {
	GroupingKey string
	Position    int
	Kind        Kind
	RowIDs      []string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("alignment inconsistency: rows %v all claim %s position %d kind %s",
		e.RowIDs, e.GroupingKey, e.Position, e.Kind)
}

// ValidationError rejects a card sequence before anything is persisted.
// Position names the offending card.
type ValidationError struct {
	Position int
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("item set %d: %s", e.Position+1, e.Message)
}
