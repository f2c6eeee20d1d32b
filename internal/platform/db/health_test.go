package db

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestBuildReport_Healthy(t *testing.T) {
	info := poolInfo{Total: 4, Idle: 3, Acquired: 1, Max: 10}
	code, body := buildReport(nil, info)
	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if body.Status != "healthy" {
		t.Errorf("expected healthy, got %q", body.Status)
	}
	if body.Error != "" {
		t.Errorf("expected no error message, got %q", body.Error)
	}
	if body.Pool != info {
		t.Errorf("expected pool snapshot passed through, got %+v", body.Pool)
	}
}

func TestBuildReport_PingFailure(t *testing.T) {
	code, body := buildReport(errors.New("connection refused"), poolInfo{Max: 10})
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if body.Status != "unhealthy" {
		t.Errorf("expected unhealthy, got %q", body.Status)
	}
	if body.Error != "connection refused" {
		t.Errorf("expected ping error surfaced, got %q", body.Error)
	}
}

func TestHealthReport_OmitsEmptyError(t *testing.T) {
	_, body := buildReport(nil, poolInfo{Total: 1, Max: 5})
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	if strings.Contains(s, `"error"`) {
		t.Errorf("expected error key omitted when healthy, got %s", s)
	}
	for _, key := range []string{`"status"`, `"pool"`, `"total_conns"`, `"max_conns"`} {
		if !strings.Contains(s, key) {
			t.Errorf("expected %s in response, got %s", key, s)
		}
	}
}
