package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context, key string) (bool, error)

func (f pingerFunc) Exists(ctx context.Context, key string) (bool, error) { return f(ctx, key) }

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		store      Pinger
		wantStatus int
		wantCheck  string
	}{
		{"store up", pingerFunc(func(context.Context, string) (bool, error) { return false, nil }), http.StatusOK, "ok"},
		{"store down", pingerFunc(func(context.Context, string) (bool, error) { return false, errors.New("dial tcp: refused") }), http.StatusServiceUnavailable, "error"},
		{"no store", nil, http.StatusOK, "not_configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New("svc", "1.0.0", tt.store)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Data ReadyResponse `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Data.Checks) != 1 || body.Data.Checks[0].Status != tt.wantCheck {
				t.Errorf("checks = %+v, want store %s", body.Data.Checks, tt.wantCheck)
			}
		})
	}
}

func TestStatus_Degraded(t *testing.T) {
	h := New("svc", "1.0.0", pingerFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("timeout")
	}))
	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var body struct {
		Data StatusResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Status != "degraded" || body.Data.Store.Error != "timeout" {
		t.Errorf("status = %+v", body.Data)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}
