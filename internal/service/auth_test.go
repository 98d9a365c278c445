package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/repository"
	"marketplace-bulk-api/internal/store"
)

func newAuthService(t *testing.T, appID string) (*AuthService, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	svc := NewAuthService(s, repository.NewKeys("test"), AuthConfig{
		AppID:       appID,
		RedirectURI: "http://localhost:8080/auth/callback",
		Scope:       "catalog_management,business_management",
		DialogURL:   "https://www.facebook.com/",
		APIVersion:  "v24.0",
	})
	return svc, s
}

func TestAuthService_BeginLoginRequiresAppID(t *testing.T) {
	svc, _ := newAuthService(t, "")

	if svc.Configured() {
		t.Error("Configured() = true without an app id")
	}
	if _, err := svc.BeginLogin(context.Background()); !errors.Is(err, ErrAuthNotConfigured) {
		t.Errorf("BeginLogin() error = %v, want ErrAuthNotConfigured", err)
	}
}

func TestAuthService_BeginLoginBuildsDialogURL(t *testing.T) {
	svc, _ := newAuthService(t, "12345")

	req, err := svc.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}
	if !strings.HasPrefix(req.URL, "https://www.facebook.com/v24.0/dialog/oauth?") {
		t.Errorf("URL = %q", req.URL)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	q := u.Query()
	want := map[string]string{
		"client_id":     "12345",
		"redirect_uri":  "http://localhost:8080/auth/callback",
		"scope":         "catalog_management,business_management",
		"response_type": "token",
		"state":         req.State,
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("query %s = %q, want %q", k, q.Get(k), v)
		}
	}
	if req.State == "" {
		t.Error("State is empty")
	}
}

func TestAuthService_CallbackStoresToken(t *testing.T) {
	svc, _ := newAuthService(t, "12345")
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	req, _ := svc.BeginLogin(ctx)
	st, err := svc.HandleCallback(ctx, model.AuthCallback{AccessToken: "EAAB", ExpiresIn: 3600, State: req.State})
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if !st.Authenticated || !st.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("status = %+v", st)
	}

	tok, err := svc.AccessToken(ctx)
	if err != nil || tok != "EAAB" {
		t.Errorf("AccessToken() = %q, %v", tok, err)
	}

	// The state cannot be replayed.
	_, err = svc.HandleCallback(ctx, model.AuthCallback{AccessToken: "other", State: req.State})
	if !errors.Is(err, ErrStateMismatch) {
		t.Errorf("replayed callback error = %v, want ErrStateMismatch", err)
	}
}

func TestAuthService_CallbackRejections(t *testing.T) {
	svc, _ := newAuthService(t, "12345")
	ctx := context.Background()

	if _, err := svc.HandleCallback(ctx, model.AuthCallback{AccessToken: "x", State: "forged"}); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("unknown state error = %v", err)
	}
	if _, err := svc.HandleCallback(ctx, model.AuthCallback{AccessToken: "x"}); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("empty state error = %v", err)
	}

	req, _ := svc.BeginLogin(ctx)
	if _, err := svc.HandleCallback(ctx, model.AuthCallback{State: req.State}); !errors.Is(err, ErrMissingToken) {
		t.Errorf("missing token error = %v", err)
	}

	req, _ = svc.BeginLogin(ctx)
	past := time.Now().Add(-time.Minute)
	if _, err := svc.HandleCallback(ctx, model.AuthCallback{AccessToken: "x", ExpiresAt: past, State: req.State}); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token error = %v", err)
	}
}

func TestAuthService_ExpiredTokenIsCleared(t *testing.T) {
	svc, s := newAuthService(t, "12345")
	ctx := context.Background()
	now := time.Now()
	svc.now = func() time.Time { return now }

	req, _ := svc.BeginLogin(ctx)
	if _, err := svc.HandleCallback(ctx, model.AuthCallback{AccessToken: "EAAB", ExpiresIn: 60, State: req.State}); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.AccessToken(ctx); !errors.Is(err, catalog.ErrNotAuthenticated) {
		t.Errorf("AccessToken() error = %v, want ErrNotAuthenticated", err)
	}
	if ok, _ := s.Exists(ctx, repository.NewKeys("test").AccessToken()); ok {
		t.Error("expired token is still stored")
	}

	st, err := svc.Status(ctx)
	if err != nil || st.Authenticated || !st.Configured {
		t.Errorf("Status() = %+v, %v", st, err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _ := newAuthService(t, "12345")
	ctx := context.Background()

	req, _ := svc.BeginLogin(ctx)
	if _, err := svc.HandleCallback(ctx, model.AuthCallback{AccessToken: "EAAB", State: req.State}); err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.AccessToken(ctx); !errors.Is(err, catalog.ErrNotAuthenticated) {
		t.Errorf("AccessToken() after logout error = %v", err)
	}
}
