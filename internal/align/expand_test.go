package align

import "testing"

func TestExpandRowsFirstRowCarriesCommonFields(t *testing.T) {
	sets := []ItemSet{
		{Position: 0, Issue: &SubRecord{Kind: KindIssue, Description: "X"}},
		{Position: 1, Issue: &SubRecord{Kind: KindIssue, Description: "Y"}, Problem: &SubRecord{Kind: KindProblem, Number: "123"}},
		{Position: 2},
	}
	common := CommonFields{Date: "2025-10-03", ApplicationName: "CVAR ALL", Remarks: "No issues"}

	rows := ExpandRows(sets, common, false)
	if len(rows) != 3 {
		t.Fatalf("expected one display row per position, got %d", len(rows))
	}
	if !rows[0].First || rows[0].Common == nil || rows[0].Common.Date != "2025-10-03" {
		t.Errorf("first row must carry the common fields: %+v", rows[0])
	}
	if rows[0].HiddenCount != 2 {
		t.Errorf("hidden count = %d, want 2", rows[0].HiddenCount)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].First || rows[i].Common != nil {
			t.Errorf("follow-on row %d must not carry common fields", i)
		}
		if !rows[i].Collapsed {
			t.Errorf("follow-on row %d should be collapsed by default", i)
		}
	}
	if rows[1].Problem == nil || rows[1].Problem.Number != "123" {
		t.Errorf("row 1 should carry its slot payloads: %+v", rows[1])
	}
}

func TestExpandRowsExpandedKeepsRowsAddressable(t *testing.T) {
	sets := []ItemSet{{Position: 0}, {Position: 1}}
	rows := ExpandRows(sets, CommonFields{}, true)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Collapsed {
		t.Errorf("expanded view should uncollapse follow-on rows")
	}
}

func TestExpandRowsEmptySequenceStillRenders(t *testing.T) {
	rows := ExpandRows(nil, CommonFields{Date: "2025-10-03"}, false)
	if len(rows) != 1 {
		t.Fatalf("expected a single row for an empty sequence, got %d", len(rows))
	}
	if !rows[0].First || rows[0].HiddenCount != 0 {
		t.Errorf("single row = %+v", rows[0])
	}
}
