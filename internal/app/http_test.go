package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"prodvision/api/internal/store"
)

func doRequest(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return response
}

func TestHealthEndpoint(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")

	rr := doRequest(t, server.Handler(), http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["ok"] != true {
		t.Fatalf("expected ok=true, got %v", response["ok"])
	}
}

func TestReadyEndpointReportsDatabaseFailure(t *testing.T) {
	fs := newFakeStore()
	fs.pingFn = func(context.Context) error { return errors.New("connection refused") }
	server := NewHTTPServer(newTestService(fs), "*")

	rr := doRequest(t, server.Handler(), http.MethodGet, "/api/ready", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	if response := decodeResponse(t, rr); response["status"] != "not_ready" {
		t.Fatalf("expected not_ready, got %v", response["status"])
	}
}

func TestEntryLifecycleOverHTTP(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")
	handler := server.Handler()

	create := map[string]any{
		"date":            "2024-03-11",
		"applicationName": "CVAR ALL",
		"day":             "Monday",
		"issues": []any{
			map[string]any{"description": "X"},
			map[string]any{"description": "Y"},
		},
		"problemRecords": []any{
			nil,
			map[string]any{"number": "123", "status": "active"},
		},
	}

	rr := doRequest(t, handler, http.MethodPost, "/api/entries", create)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeResponse(t, rr)
	if created["id"] != "2024-03-11_CVAR ALL" {
		t.Fatalf("expected composite entry id, got %v", created["id"])
	}

	rr = doRequest(t, handler, http.MethodGet, "/api/entries/2024-03-11_CVAR%20ALL", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	entry := decodeResponse(t, rr)
	problems, ok := entry["problemRecords"].([]any)
	if !ok || len(problems) != 2 {
		t.Fatalf("expected 2 problem slots, got %v", entry["problemRecords"])
	}
	if problems[0] != nil {
		t.Fatalf("expected null empty marker at position 0, got %v", problems[0])
	}

	rr = doRequest(t, handler, http.MethodDelete, "/api/entries/2024-03-11_CVAR%20ALL", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, handler, http.MethodGet, "/api/entries/2024-03-11_CVAR%20ALL", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rr.Code)
	}
}

func TestCreateEntryValidationNamesOffendingPosition(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")

	body := map[string]any{
		"date":            "2024-03-11",
		"applicationName": "XVA",
		"issues": []any{
			map[string]any{"description": "X"},
		},
		"incidentRecords": []any{
			nil,
			nil,
			map[string]any{"number": "INC-9"},
		},
	}

	rr := doRequest(t, server.Handler(), http.MethodPost, "/api/entries", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	response := decodeResponse(t, rr)
	if response["code"] != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %v", response["code"])
	}
	details, ok := response["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details object, got %v", response["details"])
	}
	if details["position"] != float64(2) {
		t.Fatalf("expected offending position 2, got %v", details["position"])
	}
}

func TestRowUpdateAndDeleteOverHTTP(t *testing.T) {
	fs := newFakeStore()
	key := store.GroupingKey{Date: "2024-03-11", ApplicationName: "XVA"}
	row := fs.seed(store.Row{GroupingKey: key, RowKind: store.RowKindIssue, RowPosition: 0, IssueDescription: "before"})
	server := NewHTTPServer(newTestService(fs), "*")
	handler := server.Handler()

	rr := doRequest(t, handler, http.MethodPut, "/api/rows/"+row.ID, map[string]any{
		"issueDescription": "after",
		"rowPosition":      2,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	updated, _ := fs.GetRow(context.Background(), row.ID)
	if updated.IssueDescription != "after" || updated.RowPosition != 2 {
		t.Fatalf("row not patched: %+v", updated)
	}

	rr = doRequest(t, handler, http.MethodDelete, "/api/rows/"+row.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}

	rr = doRequest(t, handler, http.MethodDelete, "/api/rows/"+row.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing row: expected 404, got %d", rr.Code)
	}
}

func TestEntryDisplayRowsOverHTTP(t *testing.T) {
	fs := newFakeStore()
	key := store.GroupingKey{Date: "2024-03-11", ApplicationName: "XVA"}
	fs.seed(store.Row{GroupingKey: key, RowKind: store.RowKindMain, Day: "Monday", QualityStatus: "Green"})
	fs.seed(store.Row{GroupingKey: key, RowKind: store.RowKindIssue, RowPosition: 0, IssueDescription: "X"})
	fs.seed(store.Row{GroupingKey: key, RowKind: store.RowKindIssue, RowPosition: 1, IssueDescription: "Y"})
	server := NewHTTPServer(newTestService(fs), "*")

	rr := doRequest(t, server.Handler(), http.MethodGet, "/api/entries/2024-03-11_XVA/rows?expanded=true", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	response := decodeResponse(t, rr)
	rows, ok := response["rows"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 display rows, got %v", response["rows"])
	}
	first, _ := rows[0].(map[string]any)
	if first["first"] != true || first["common"] == nil {
		t.Fatalf("first row must carry common fields, got %v", first)
	}
	second, _ := rows[1].(map[string]any)
	if second["common"] != nil {
		t.Fatalf("follow-on row must not repeat common fields, got %v", second)
	}
	if second["collapsed"] == true {
		t.Fatal("expanded view must not mark follow-on rows collapsed")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")

	rr := doRequest(t, server.Handler(), http.MethodGet, "/api/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestEntriesMethodNotAllowed(t *testing.T) {
	server := NewHTTPServer(newTestService(newFakeStore()), "*")

	rr := doRequest(t, server.Handler(), http.MethodPatch, "/api/entries", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
