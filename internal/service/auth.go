package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/repository"
	"marketplace-bulk-api/internal/store"
	"marketplace-bulk-api/pkg/uid"
)

const (
	// DefaultStateTTL is how long a login nonce stays valid.
	DefaultStateTTL = 10 * time.Minute

	// DefaultTokenLifetime applies when the callback carries no expiry.
	DefaultTokenLifetime = 1 * time.Hour
)

// AuthConfig holds the OAuth dialog settings.
type AuthConfig struct {
	AppID       string
	RedirectURI string
	Scope       string
	DialogURL   string
	APIVersion  string
	StateTTL    time.Duration
}

// AuthService keeps the marketplace access token and the login nonces.
type AuthService struct {
	store  store.Store
	keys   repository.Keys
	cfg    AuthConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(s store.Store, keys repository.Keys, cfg AuthConfig) *AuthService {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = DefaultStateTTL
	}
	if cfg.DialogURL == "" {
		cfg.DialogURL = "https://www.facebook.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = catalog.DefaultAPIVersion
	}
	return &AuthService{
		store:  s,
		keys:   keys,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.With("component", "auth_service"),
	}
}

// Configured reports whether an app id is set.
func (s *AuthService) Configured() bool {
	return strings.TrimSpace(s.cfg.AppID) != ""
}

// BeginLogin stores a fresh nonce and returns the dialog URL carrying it.
func (s *AuthService) BeginLogin(ctx context.Context) (*model.LoginRequest, error) {
	if !s.Configured() {
		return nil, ErrAuthNotConfigured
	}

	state := uid.Nonce()
	if err := s.store.Set(ctx, s.keys.AuthState(state), []byte(state), s.cfg.StateTTL); err != nil {
		return nil, fmt.Errorf("failed to store login state: %w", err)
	}

	params := url.Values{}
	params.Set("client_id", s.cfg.AppID)
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("scope", s.cfg.Scope)
	params.Set("state", state)
	params.Set("response_type", "token")

	dialog := strings.TrimRight(s.cfg.DialogURL, "/") + "/" + s.cfg.APIVersion + "/dialog/oauth?" + params.Encode()

	return &model.LoginRequest{
		URL:       dialog,
		State:     state,
		ExpiresAt: s.now().Add(s.cfg.StateTTL),
	}, nil
}

// HandleCallback checks the returned state and stores the access token.
// A state is accepted once.
func (s *AuthService) HandleCallback(ctx context.Context, cb model.AuthCallback) (*model.AuthStatus, error) {
	if cb.State == "" {
		return nil, ErrStateMismatch
	}

	key := s.keys.AuthState(cb.State)
	stored, err := s.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrStateMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load login state: %w", err)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete used login state", "error", err)
	}
	if subtle.ConstantTimeCompare(stored, []byte(cb.State)) != 1 {
		return nil, ErrStateMismatch
	}

	if strings.TrimSpace(cb.AccessToken) == "" {
		return nil, ErrMissingToken
	}

	now := s.now()
	expiresAt := cb.ExpiresAt
	if expiresAt.IsZero() {
		lifetime := DefaultTokenLifetime
		if cb.ExpiresIn > 0 {
			lifetime = time.Duration(cb.ExpiresIn) * time.Second
		}
		expiresAt = now.Add(lifetime)
	}
	if !expiresAt.After(now) {
		return nil, ErrTokenExpired
	}

	tok := model.StoredToken{
		AccessToken: cb.AccessToken,
		ObtainedAt:  now,
		ExpiresAt:   expiresAt,
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize token: %w", err)
	}
	if err := s.store.Set(ctx, s.keys.AccessToken(), data, expiresAt.Sub(now)); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.logger.Info("marketplace login completed", "expires_at", expiresAt)
	return &model.AuthStatus{Configured: s.Configured(), Authenticated: true, ExpiresAt: &expiresAt}, nil
}

// AccessToken returns the stored token, or catalog.ErrNotAuthenticated when
// there is none or it has expired.
func (s *AuthService) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (s *AuthService) load(ctx context.Context) (*model.StoredToken, error) {
	data, err := s.store.Get(ctx, s.keys.AccessToken())
	if errors.Is(err, store.ErrNotFound) {
		return nil, catalog.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	var tok model.StoredToken
	if err := json.Unmarshal(data, &tok); err != nil {
		s.logger.Warn("stored token is unreadable, clearing it", "error", err)
		_ = s.store.Delete(ctx, s.keys.AccessToken())
		return nil, catalog.ErrNotAuthenticated
	}

	if tok.AccessToken == "" || !s.now().Before(tok.ExpiresAt) {
		_ = s.store.Delete(ctx, s.keys.AccessToken())
		return nil, catalog.ErrNotAuthenticated
	}
	return &tok, nil
}

// Status reports whether a usable token is stored.
func (s *AuthService) Status(ctx context.Context) (*model.AuthStatus, error) {
	st := &model.AuthStatus{Configured: s.Configured()}

	tok, err := s.load(ctx)
	if errors.Is(err, catalog.ErrNotAuthenticated) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}

	st.Authenticated = true
	st.ExpiresAt = &tok.ExpiresAt
	return st, nil
}

// Logout forgets the stored token.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.keys.AccessToken()); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	s.logger.Info("marketplace logout")
	return nil
}
