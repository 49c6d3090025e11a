package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunScanCommand_PathsFromArgs(t *testing.T) {
	var gotPaths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tools/files/scan" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Paths []string `json:"paths"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotPaths = req.Paths
		json.NewEncoder(w).Encode(map[string]any{
			"scanned": 3,
			"proposed_tasks": []map[string]any{
				{"title": "Review report", "due_date": "2026-09-02"},
			},
		})
	}))
	defer ts.Close()

	setTestConfig(t, ts.URL)

	code := runScanCommand(context.Background(), []string{"~/Documents"})
	if code != 0 {
		t.Fatalf("got exit code %d, want 0", code)
	}
	if len(gotPaths) != 1 || gotPaths[0] != "~/Documents" {
		t.Fatalf("got paths %v, want [~/Documents]", gotPaths)
	}
}

func TestRunScanCommand_BackendDown(t *testing.T) {
	setTestConfig(t, "http://127.0.0.1:1")

	code := runScanCommand(context.Background(), nil)
	if code != 1 {
		t.Fatalf("got exit code %d, want 1", code)
	}
}
