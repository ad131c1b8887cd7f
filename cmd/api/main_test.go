package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestOrderActionRejectsMalformedBody(t *testing.T) {
	srv := &server{log: zap.NewNop()}

	req := httptest.NewRequest(http.MethodPost, "/orders/7/cancel", strings.NewReader("{not json"))
	req.Header.Set("X-Actor-Id", "1")
	req.Header.Set("X-Actor-Role", "admin")
	rec := httptest.NewRecorder()

	srv.handleOrderByID(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid request body") {
		t.Errorf("Expected invalid-body error, got: %s", rec.Body.String())
	}
}

func TestActorFromHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-Actor-Id", "42")
	req.Header.Set("X-Actor-Role", "staff")

	actor, err := actorFrom(req)
	if err != nil {
		t.Fatalf("actorFrom: %v", err)
	}
	if actor.ID != 42 || !actor.IsStaff() {
		t.Errorf("Expected staff actor 42, got %+v", actor)
	}

	req.Header.Set("X-Actor-Role", "intruder")
	if _, err := actorFrom(req); err == nil {
		t.Error("Expected error for unknown role")
	}

	req.Header.Del("X-Actor-Id")
	if _, err := actorFrom(req); err == nil {
		t.Error("Expected error for missing actor id")
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		id     int64
		action string
	}{
		{"/orders/7", "/orders/", 7, ""},
		{"/orders/7/approve", "/orders/", 7, "approve"},
		{"/devices/12/transfer", "/devices/", 12, "transfer"},
		{"/orders/abc", "/orders/", 0, ""},
	}
	for _, tc := range tests {
		id, action := pathID(tc.path, tc.prefix)
		if id != tc.id || action != tc.action {
			t.Errorf("pathID(%q): got (%d, %q), want (%d, %q)", tc.path, id, action, tc.id, tc.action)
		}
	}
}
