package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"cinescope/proj/internal/clients/api"
	"cinescope/proj/internal/domain/models"
	validatorlib "cinescope/proj/internal/lib/validator"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// Backend is the slice of the API client the session needs.
type Backend interface {
	Get(ctx context.Context, path string, dst any) error
	Post(ctx context.Context, path string, body any, dst any) error
	PostForm(ctx context.Context, path string, form url.Values, dst any) error
	Put(ctx context.Context, path string, body any, dst any) error
	Delete(ctx context.Context, path string, body any, dst any) error
}

// TokenStore persists the credentials between runs. The session never
// touches the token file directly.
type TokenStore interface {
	Set(token string, ttl time.Duration) error
	Get() (string, bool)
	SetUser(u *models.User) error
	User() *models.User
	Clear() error
}

// Resettable is anything holding per-user state that must be dropped
// when the session ends: caches, watchlist flags, comment lists.
type Resettable interface {
	Reset()
}

// State is an immutable snapshot of the session for callers to render.
type State struct {
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

type Config struct {
	DefaultTokenTTL time.Duration
	RevalidateEvery time.Duration
}

// Manager owns the authentication lifecycle: login, registration,
// password recovery, revalidation and logout. All state transitions
// happen under mu; reads go through Snapshot.
type Manager struct {
	log      *slog.Logger
	api      Backend
	tokens   TokenStore
	validate *govalidator.Validate
	cfg      Config

	mu     sync.Mutex
	state  State
	resets []Resettable
}

func New(log *slog.Logger, apiClient Backend, tokens TokenStore, validate *govalidator.Validate, cfg Config) *Manager {
	m := &Manager{
		log:      log,
		api:      apiClient,
		tokens:   tokens,
		validate: validate,
		cfg:      cfg,
	}
	// Start from whatever the store remembers. The first
	// ValidateSession call confirms or clears it.
	if u := tokens.User(); u != nil {
		if _, ok := tokens.Get(); ok {
			m.state = State{User: u, IsAuthenticated: true}
		}
	}
	return m
}

// RegisterOnLogout adds a state holder to reset whenever the session
// ends, whether by explicit logout or forced expiry.
func (m *Manager) RegisterOnLogout(r Resettable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, r)
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,password"`
}

type PasswordReset struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
}

// Login authenticates with the backend and loads the user profile.
// On any failure the session is left fully anonymous: a half-logged-in
// state (token without user, or the reverse) never survives.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	const op = "session.Manager.Login"
	log := m.log.With("op", op, "email", creds.Email)

	if errs := validatorlib.ValidateStruct(m.validate, creds); errs != nil {
		return &ValidationError{Fields: errs}
	}

	m.setLoading(true)
	defer m.setLoading(false)

	// The token endpoint speaks OAuth2 password flow: form-encoded,
	// with the email passed as username.
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)

	var tokenResp loginResponse
	if err := m.api.PostForm(ctx, "/auth/login", form, &tokenResp); err != nil {
		log.Warn("login rejected", "err", err)
		return m.fail(friendlyAuthError(err, "Invalid email or password"), err)
	}

	ttl := m.tokenTTL(tokenResp.AccessToken)
	if err := m.tokens.Set(tokenResp.AccessToken, ttl); err != nil {
		log.Error("failed to persist token", "err", err)
		return m.fail("Could not save your session", err)
	}

	var raw models.RawUser
	if err := m.api.Get(ctx, "/auth/me", &raw); err != nil {
		log.Warn("profile fetch failed after login", "err", err)
		return m.fail("Could not load your profile", err)
	}
	user := raw.Normalize()
	if err := m.tokens.SetUser(user); err != nil {
		log.Error("failed to persist user", "err", err)
		return m.fail("Could not save your session", err)
	}

	m.mu.Lock()
	m.state = State{User: user, IsAuthenticated: true}
	m.mu.Unlock()
	log.Info("logged in", "user_id", user.ID)
	return nil
}

// Register creates the account and, on success, chains straight into
// Login so the caller lands authenticated.
func (m *Manager) Register(ctx context.Context, reg Registration) error {
	const op = "session.Manager.Register"
	log := m.log.With("op", op, "email", reg.Email)

	if violations := validatorlib.PasswordViolations(reg.Password); len(violations) > 0 {
		return &PasswordPolicyError{Violations: violations}
	}
	if errs := validatorlib.ValidateStruct(m.validate, reg); errs != nil {
		return &ValidationError{Fields: errs}
	}

	m.setLoading(true)
	if err := m.api.Post(ctx, "/auth/register", reg, nil); err != nil {
		m.setLoading(false)
		log.Warn("registration rejected", "err", err)
		m.setError(friendlyAuthError(err, "Registration failed"))
		return err
	}
	m.setLoading(false)

	log.Info("registered, logging in")
	return m.Login(ctx, Credentials{Email: reg.Email, Password: reg.Password})
}

// ForgotPassword asks the backend to email a one-time code.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	const op = "session.Manager.ForgotPassword"
	log := m.log.With("op", op, "email", email)

	if errs := validatorlib.ValidateStruct(m.validate, Credentials{Email: email, Password: "-"}); errs != nil {
		if msg, ok := errs["email"]; ok {
			return &ValidationError{Fields: map[string]string{"email": msg}}
		}
	}
	// Fire-and-confirm: a failure here never touches the current
	// session or the stored token.
	if err := m.api.Post(ctx, "/auth/forgot-password", map[string]string{"email": email}, nil); err != nil {
		log.Warn("forgot password request failed", "err", err)
		m.setError(friendlyAuthError(err, "Could not send the reset code"))
		return err
	}
	log.Info("reset code requested")
	return nil
}

// ResetPassword redeems the emailed code and logs the user in with the
// new password.
func (m *Manager) ResetPassword(ctx context.Context, reset PasswordReset) error {
	const op = "session.Manager.ResetPassword"
	log := m.log.With("op", op, "email", reset.Email)

	if violations := validatorlib.PasswordViolations(reset.NewPassword); len(violations) > 0 {
		return &PasswordPolicyError{Violations: violations}
	}
	if errs := validatorlib.ValidateStruct(m.validate, reset); errs != nil {
		return &ValidationError{Fields: errs}
	}

	if err := m.api.Post(ctx, "/auth/reset-password", reset, nil); err != nil {
		log.Warn("password reset rejected", "err", err)
		m.setError(friendlyAuthError(err, "Password reset failed"))
		return err
	}

	log.Info("password reset, logging in")
	return m.Login(ctx, Credentials{Email: reset.Email, Password: reset.NewPassword})
}

// ValidateSession confirms the stored token against the backend. With
// no stored token it resolves to anonymous immediately, without a
// network call. Any failure to confirm, 401 or not, clears the token
// and drops the session to anonymous: a session may only stay live on
// a positive answer from the backend.
func (m *Manager) ValidateSession(ctx context.Context) (bool, error) {
	const op = "session.Manager.ValidateSession"
	log := m.log.With("op", op)

	m.setLoading(true)
	defer m.setLoading(false)

	if _, ok := m.tokens.Get(); !ok {
		m.toAnonymous("")
		return false, nil
	}

	var raw models.RawUser
	if err := m.api.Get(ctx, "/auth/me", &raw); err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			// The client's 401 handler already forced logout.
			return false, nil
		}
		log.Warn("revalidation failed", "err", err)
		if clearErr := m.tokens.Clear(); clearErr != nil {
			log.Error("failed to clear stored session", "err", clearErr)
		}
		m.toAnonymous(friendlyAuthError(err, "Could not verify your session"))
		return false, fmt.Errorf("%s: %w", op, err)
	}
	user := raw.Normalize()
	if err := m.tokens.SetUser(user); err != nil {
		log.Error("failed to persist user", "err", err)
	}
	m.mu.Lock()
	m.state.User = user
	m.state.IsAuthenticated = true
	m.mu.Unlock()
	return true, nil
}

// Run revalidates the session on a timer until ctx is cancelled.
// Transient failures are logged and swallowed; the next tick retries.
func (m *Manager) Run(ctx context.Context) {
	const op = "session.Manager.Run"
	log := m.log.With("op", op)

	ticker := time.NewTicker(m.cfg.RevalidateEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.IsAuthenticated() {
				continue
			}
			if _, err := m.ValidateSession(ctx); err != nil {
				log.Warn("periodic revalidation failed", "err", err)
			}
		}
	}
}

// Logout ends the session locally. No network call: the bearer token
// simply stops being presented.
func (m *Manager) Logout() {
	const op = "session.Manager.Logout"
	if err := m.tokens.Clear(); err != nil {
		m.log.With("op", op).Error("failed to clear stored session", "err", err)
	}
	m.toAnonymous("")
	m.log.With("op", op).Info("logged out")
}

// ForceLogout is the 401 path: same teardown as Logout, plus an error
// message so the caller knows why the session vanished.
func (m *Manager) ForceLogout() {
	const op = "session.Manager.ForceLogout"
	if err := m.tokens.Clear(); err != nil {
		m.log.With("op", op).Error("failed to clear stored session", "err", err)
	}
	m.toAnonymous(ErrSessionExpired.Error())
	m.log.With("op", op).Warn("session force-expired")
}

// IsAuthenticated reports whether the session is live. A session that
// claims authentication but has no valid stored token is torn down on
// the spot.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	authed := m.state.IsAuthenticated
	m.mu.Unlock()
	if !authed {
		return false
	}
	if _, ok := m.tokens.Get(); !ok {
		m.ForceLogout()
		return false
	}
	return true
}

// UpdateUser pushes profile changes and refreshes the local copy.
func (m *Manager) UpdateUser(ctx context.Context, changes map[string]any) (*models.User, error) {
	const op = "session.Manager.UpdateUser"
	log := m.log.With("op", op)

	var raw models.RawUser
	if err := m.api.Put(ctx, "/auth/me", changes, &raw); err != nil {
		log.Warn("profile update failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := raw.Normalize()
	if err := m.tokens.SetUser(user); err != nil {
		log.Error("failed to persist user", "err", err)
	}
	m.mu.Lock()
	m.state.User = user
	m.mu.Unlock()
	return user, nil
}

// DeleteAccount removes the account after password confirmation and
// tears the session down.
func (m *Manager) DeleteAccount(ctx context.Context, password string) error {
	const op = "session.Manager.DeleteAccount"
	log := m.log.With("op", op)

	m.mu.Lock()
	user := m.state.User
	m.mu.Unlock()
	if user == nil {
		return ErrSessionExpired
	}

	path := fmt.Sprintf("/auth/users/%d", user.ID)
	if err := m.api.Delete(ctx, path, map[string]string{"password": password}, nil); err != nil {
		log.Warn("account deletion rejected", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("account deleted", "user_id", user.ID)
	m.Logout()
	return nil
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Error = ""
}

// tokenTTL reads the exp claim out of the token without verifying the
// signature (the backend owns verification). Falls back to the
// configured default when the token carries no usable expiry.
func (m *Manager) tokenTTL(token string) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return m.cfg.DefaultTokenTTL
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return m.cfg.DefaultTokenTTL
	}
	ttl := time.Until(exp.Time)
	if ttl <= 0 {
		return m.cfg.DefaultTokenTTL
	}
	return ttl
}

// fail drops the session to anonymous with the given message and
// re-raises the cause.
func (m *Manager) fail(msg string, cause error) error {
	if err := m.tokens.Clear(); err != nil {
		m.log.Error("failed to clear stored session", "err", err)
	}
	m.toAnonymous(msg)
	return cause
}

func (m *Manager) toAnonymous(errMsg string) {
	m.mu.Lock()
	m.state = State{Error: errMsg}
	resets := make([]Resettable, len(m.resets))
	copy(resets, m.resets)
	m.mu.Unlock()
	for _, r := range resets {
		r.Reset()
	}
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsLoading = v
}

// setError records a message without touching the rest of the session.
func (m *Manager) setError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Error = msg
}

// friendlyAuthError prefers the backend's detail message, falling back
// to the given default for transport failures.
func friendlyAuthError(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
