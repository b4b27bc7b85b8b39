package align

import "testing"

// A main-row-only entry from before the migration still renders: its legacy
// fields become slot 0.
func TestMergeLegacyIntoEmptySequence(t *testing.T) {
	sets, err := Reconstruct("key", nil)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	merged := MergeLegacy(sets, LegacyFields{ProblemNumber: "PRB-456", ProblemStatus: "active"})
	if len(merged) != 1 {
		t.Fatalf("expected 1 item set, got %d", len(merged))
	}
	if merged[0].Issue != nil {
		t.Errorf("issue slot should stay empty")
	}
	if merged[0].Problem == nil || merged[0].Problem.Number != "456" {
		t.Errorf("problem slot = %+v, want normalized 456", merged[0].Problem)
	}
	if !merged[0].Problem.Legacy {
		t.Errorf("merged record should carry legacy provenance")
	}
	if merged[0].Incident != nil {
		t.Errorf("incident slot should stay empty")
	}
}

// Legacy "PRB-123" and an array entry "123" are the same record; merging must
// not render it twice.
func TestMergeLegacySkipsDuplicateIdentifier(t *testing.T) {
	sets := []ItemSet{{
		Position: 0,
		Problem:  &SubRecord{Kind: KindProblem, RowID: "row_a", Position: 0, Number: "123"},
	}}
	merged := MergeLegacy(sets, LegacyFields{ProblemNumber: "PRB-123"})
	if len(merged) != 1 {
		t.Fatalf("expected 1 item set, got %d", len(merged))
	}
	if merged[0].Problem.RowID != "row_a" {
		t.Errorf("array entry should win over its legacy duplicate")
	}
}

func TestMergeLegacySkipsDuplicateIssueDescription(t *testing.T) {
	sets := []ItemSet{{
		Position: 0,
		Issue:    &SubRecord{Kind: KindIssue, RowID: "row_a", Description: "Network slowness"},
	}}
	merged := MergeLegacy(sets, LegacyFields{IssueDescription: "  Network slowness "})
	if len(merged) != 1 || merged[0].Issue.RowID != "row_a" {
		t.Errorf("matching legacy issue must not be duplicated: %+v", merged)
	}
}

// A distinct legacy record whose kind slot 0 already occupies is appended as
// a trailing position, not overwritten into slot 0.
func TestMergeLegacyAppendsOnSlotConflict(t *testing.T) {
	sets := []ItemSet{{
		Position: 0,
		Problem:  &SubRecord{Kind: KindProblem, RowID: "row_a", Number: "111"},
	}}
	merged := MergeLegacy(sets, LegacyFields{ProblemNumber: "PRB-222", ProblemStatus: "closed"})
	if len(merged) != 2 {
		t.Fatalf("expected appended trailing set, got %d sets", len(merged))
	}
	if merged[0].Problem.Number != "111" {
		t.Errorf("slot 0 must keep its array entry, got %q", merged[0].Problem.Number)
	}
	if merged[1].Position != 1 || merged[1].Problem == nil || merged[1].Problem.Number != "222" {
		t.Errorf("trailing set = %+v, want legacy 222 at position 1", merged[1])
	}
}

// Legacy payloads from one main row that all miss slot 0 land together in a
// single trailing set.
func TestMergeLegacyOverflowSharesOneTrailingSet(t *testing.T) {
	sets := []ItemSet{{
		Position: 0,
		Issue:    &SubRecord{Kind: KindIssue, Description: "existing"},
		Problem:  &SubRecord{Kind: KindProblem, Number: "1"},
		Incident: &SubRecord{Kind: KindIncident, Number: "2"},
	}}
	merged := MergeLegacy(sets, LegacyFields{
		IssueDescription: "legacy issue",
		ProblemNumber:    "PRB-3",
		IncidentNumber:   "HIIM-4",
	})
	if len(merged) != 2 {
		t.Fatalf("expected one shared trailing set, got %d sets", len(merged))
	}
	trailing := merged[1]
	if trailing.Issue == nil || trailing.Problem == nil || trailing.Incident == nil {
		t.Errorf("all three legacy payloads should share the trailing set: %+v", trailing)
	}
}

func TestMergeLegacyNoopWithoutLegacyData(t *testing.T) {
	sets := []ItemSet{{Position: 0, Issue: &SubRecord{Kind: KindIssue, Description: "X"}}}
	merged := MergeLegacy(sets, LegacyFields{})
	if len(merged) != 1 || merged[0].Issue.Description != "X" {
		t.Errorf("empty legacy fields must not change the sequence: %+v", merged)
	}
}
