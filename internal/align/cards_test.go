package align

import (
	"errors"
	"testing"
)

func TestSerializeCardsEmitsExplicitEmptySlots(t *testing.T) {
	cards := []Card{
		{Position: 0, IssueText: "first"},
		{Position: 1, IssueText: "second", ProblemNumber: "123", ProblemStatus: "active"},
	}
	arrays, err := SerializeCards(cards)
	if err != nil {
		t.Fatalf("SerializeCards failed: %v", err)
	}
	if len(arrays.Issues) != 2 || len(arrays.Problems) != 2 || len(arrays.Incidents) != 2 {
		t.Fatalf("all arrays must match the card count, got %d/%d/%d",
			len(arrays.Issues), len(arrays.Problems), len(arrays.Incidents))
	}
	if arrays.Problems[0] != nil {
		t.Errorf("slot 0 problem must be an explicit empty marker")
	}
	if arrays.Problems[1] == nil || arrays.Problems[1].Number != "123" || arrays.Problems[1].Position != 1 {
		t.Errorf("slot 1 problem = %+v", arrays.Problems[1])
	}
	if arrays.Incidents[0] != nil || arrays.Incidents[1] != nil {
		t.Errorf("incident slots should both be empty markers")
	}
}

// An unanchored record blocks submission and names the offending slot.
func TestValidateCardsRejectsUnanchoredRecord(t *testing.T) {
	cards := []Card{
		{Position: 0, IssueText: "ok"},
		{Position: 1, IssueText: "also ok"},
		{Position: 2, IncidentNumber: "HIIM-1"},
	}
	_, err := SerializeCards(cards)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if validation.Position != 2 {
		t.Errorf("error cites position %d, want 2", validation.Position)
	}
}

func TestValidateCardsRejectsProblemWithoutIssue(t *testing.T) {
	err := ValidateCards([]Card{{Position: 0, ProblemNumber: "123"}})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validation.Position != 0 {
		t.Errorf("error cites position %d, want 0", validation.Position)
	}
}

func TestValidateCardsAllowsWhollyEmptyCard(t *testing.T) {
	if err := ValidateCards([]Card{{Position: 0}}); err != nil {
		t.Errorf("an empty card is a legal gap: %v", err)
	}
}

// Reconstruct -> cards -> serialize -> reconstruct must be lossless for the
// payload/empty-marker state at every position.
func TestCardRoundTrip(t *testing.T) {
	original := []SubRecord{
		{Kind: KindIssue, RowID: "row_a", Position: 0, Description: "X", TimeLoss: "30 min"},
		{Kind: KindIssue, RowID: "row_b", Position: 2, Description: "Y"},
		{Kind: KindProblem, RowID: "row_c", Position: 2, Number: "123", Status: "active"},
		{Kind: KindIncident, RowID: "row_d", Position: 2, Number: "67890", Status: "closed"},
	}
	sets, err := Reconstruct("key", original)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}

	cards := CardsFromItemSets(sets)
	if len(cards) != len(sets) {
		t.Fatalf("inverse must emit one card per position: %d != %d", len(cards), len(sets))
	}
	arrays, err := SerializeCards(cards)
	if err != nil {
		t.Fatalf("SerializeCards failed: %v", err)
	}

	var again []SubRecord
	for _, rec := range arrays.Issues {
		if rec != nil {
			again = append(again, *rec)
		}
	}
	for _, rec := range arrays.Problems {
		if rec != nil {
			again = append(again, *rec)
		}
	}
	for _, rec := range arrays.Incidents {
		if rec != nil {
			again = append(again, *rec)
		}
	}
	rebuilt, err := Reconstruct("key", again)
	if err != nil {
		t.Fatalf("second Reconstruct failed: %v", err)
	}
	if len(rebuilt) != len(sets) {
		t.Fatalf("round trip changed length: %d != %d", len(rebuilt), len(sets))
	}
	for i := range sets {
		if (sets[i].Issue == nil) != (rebuilt[i].Issue == nil) ||
			(sets[i].Problem == nil) != (rebuilt[i].Problem == nil) ||
			(sets[i].Incident == nil) != (rebuilt[i].Incident == nil) {
			t.Errorf("position %d empty-marker state changed", i)
			continue
		}
		if sets[i].Issue != nil && sets[i].Issue.Description != rebuilt[i].Issue.Description {
			t.Errorf("position %d issue payload changed", i)
		}
		if sets[i].Problem != nil && sets[i].Problem.Number != rebuilt[i].Problem.Number {
			t.Errorf("position %d problem payload changed", i)
		}
		if sets[i].Incident != nil && sets[i].Incident.Number != rebuilt[i].Incident.Number {
			t.Errorf("position %d incident payload changed", i)
		}
	}
}

func TestCardRoundTripZeroLength(t *testing.T) {
	cards := CardsFromItemSets(nil)
	if len(cards) != 0 {
		t.Fatalf("no positions, no cards: got %d", len(cards))
	}
	arrays, err := SerializeCards(cards)
	if err != nil {
		t.Fatalf("SerializeCards failed: %v", err)
	}
	if len(arrays.Issues) != 0 {
		t.Errorf("expected empty arrays")
	}
}
