package store

import (
	"fmt"
	"time"
)

// RowKind distinguishes the four independently-owned row shapes. A main row
// carries the date-level common fields (and, for pre-migration entries, the
// legacy single-valued sub-record fields); the other three carry exactly one
// positioned sub-record each.
type RowKind string

const (
	RowKindMain     RowKind = "main"
	RowKindIssue    RowKind = "issue"
	RowKindProblem  RowKind = "problemRecord"
	RowKindIncident RowKind = "incidentRecord"
)

// ValidRowKind reports whether kind is one of the four persisted kinds.
func ValidRowKind(kind RowKind) bool {
	switch kind {
	case RowKindMain, RowKindIssue, RowKindProblem, RowKindIncident:
		return true
	}
	return false
}

// GroupingKey identifies which item-set sequence a row belongs to. It is the
// only thing rows of one logical entry share; there are no foreign keys
// between rows.
type GroupingKey struct {
	Date            string `json:"date"`
	ApplicationName string `json:"applicationName"`
}

func (k GroupingKey) String() string {
	return fmt.Sprintf("%s_%s", k.Date, k.ApplicationName)
}

// Row is one independently-owned persisted row. Editing or deleting a row
// never requires touching a sibling.
type Row struct {
	ID          string      `json:"id"`
	GroupingKey GroupingKey `json:"groupingKey"`
	RowKind     RowKind     `json:"rowKind"`
	RowPosition int         `json:"rowPosition"`

	// Issue payload (rowKind=issue, or legacy fields on a main row).
	IssueDescription string `json:"issueDescription,omitempty"`
	TimeLoss         string `json:"timeLoss,omitempty"`

	// Problem record payload (rowKind=problemRecord, or legacy on main).
	ProblemNumber string `json:"problemRecordNumber,omitempty"`
	ProblemStatus string `json:"problemRecordStatus,omitempty"`
	ProblemLink   string `json:"problemRecordLink,omitempty"`

	// Incident record payload (rowKind=incidentRecord, or legacy on main).
	IncidentNumber string `json:"incidentRecordNumber,omitempty"`
	IncidentStatus string `json:"incidentRecordStatus,omitempty"`
	IncidentLink   string `json:"incidentRecordLink,omitempty"`

	// Common fields, meaningful on rowKind=main only.
	Day            string `json:"day,omitempty"`
	PRCMailText    string `json:"prcMailText,omitempty"`
	PRCMailStatus  string `json:"prcMailStatus,omitempty"`
	CPAlertsText   string `json:"cpAlertsText,omitempty"`
	CPAlertsStatus string `json:"cpAlertsStatus,omitempty"`
	QualityStatus  string `json:"qualityStatus,omitempty"`
	Remarks        string `json:"remarks,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RowPatch mutates a subset of one row's fields. Nil fields are left alone.
// A patch never reaches beyond the row it targets.
type RowPatch struct {
	RowPosition *int

	IssueDescription *string
	TimeLoss         *string

	ProblemNumber *string
	ProblemStatus *string
	ProblemLink   *string

	IncidentNumber *string
	IncidentStatus *string
	IncidentLink   *string

	Day            *string
	PRCMailText    *string
	PRCMailStatus  *string
	CPAlertsText   *string
	CPAlertsStatus *string
	QualityStatus  *string
	Remarks        *string
}

// KindFilter selects sub-record rows for row-level listings.
type KindFilter string

const (
	FilterNone     KindFilter = ""
	FilterIssue    KindFilter = "issue"
	FilterProblem  KindFilter = "problemRecord"
	FilterIncident KindFilter = "incidentRecord"
	FilterTimeLoss KindFilter = "timeLoss"
)

// SummaryCounts are the dashboard header numbers for one application.
type SummaryCounts struct {
	Entries       int `json:"entries"`
	OpenProblems  int `json:"openProblemRecords"`
	OpenIncidents int `json:"openIncidentRecords"`
}

// NotFoundError reports a mutation that targeted a row id that no longer
// exists. It carries enough context to diagnose without re-querying.
type NotFoundError struct {
	ID          string
	GroupingKey string
	RowPosition int
}

func (e *NotFoundError) Error() string {
	if e.GroupingKey != "" {
		return fmt.Sprintf("row %s not found (grouping key %s, position %d)", e.ID, e.GroupingKey, e.RowPosition)
	}
	return fmt.Sprintf("row %s not found", e.ID)
}
