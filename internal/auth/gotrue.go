package auth

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/hydratemate/internal/keyring"
	"github.com/julianstephens/hydratemate/internal/logger"
)

// Function variables so tests can keep the session out of the OS keyring
var (
	loadSessionToken   = keyring.GetSessionToken
	storeSessionToken  = keyring.SetSessionToken
	deleteSessionToken = keyring.DeleteSessionToken
)

// storedSession is the document cached in the keyring after sign-in
type storedSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// tokenResponse covers both shapes GoTrue returns from signup and token:
// a session with a nested user, or a bare user when confirmation is pending.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// APIError is a non-2xx response from the auth service
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth service returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("auth service returned %d: %s", e.Status, e.Message)
}

// GoTrueClient talks to a Supabase-compatible GoTrue REST API
type GoTrueClient struct {
	baseURL string
	anonKey string
	client  *http.Client
	now     func() time.Time
}

// NewGoTrueClient returns ErrNotConfigured when either value is empty
func NewGoTrueClient(baseURL, anonKey string) (*GoTrueClient, error) {
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}
	return &GoTrueClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}, nil
}

// SignUp creates the account and then signs in, as a confirmed account
// would be on the mobile client. A failed follow-up sign-in still returns
// the created user.
func (c *GoTrueClient) SignUp(ctx context.Context, data SignUpData) (*User, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	email := normalizeEmail(data.Email)
	body := map[string]any{
		"email":    email,
		"password": data.Password,
		"data":     map[string]string{"full_name": strings.TrimSpace(data.FullName)},
	}

	raw, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body)
	if err != nil {
		return nil, mapSignUpError(err)
	}
	created, err := decodeUser(raw)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, stderrors.New("account creation failed, please try again")
	}

	user, err := c.SignIn(ctx, SignInData{Email: email, Password: data.Password})
	if err != nil {
		logger.Warn("Account created but automatic sign-in failed", "error", err)
		return created, nil
	}
	return user, nil
}

func (c *GoTrueClient) SignIn(ctx context.Context, data SignInData) (*User, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	body := map[string]string{
		"email":    normalizeEmail(data.Email),
		"password": data.Password,
	}
	raw, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return nil, mapSignInError(err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if tok.AccessToken == "" || tok.User == nil {
		return nil, stderrors.New("sign in failed, please try again")
	}

	sess := storedSession{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(tok.ExpiresIn) * time.Second),
		User:         tok.User,
	}
	if err := saveSession(sess); err != nil {
		return nil, err
	}
	return tok.User, nil
}

// SignOut revokes the cached session and forgets it locally. The local
// copy is removed even when the service call fails.
func (c *GoTrueClient) SignOut(ctx context.Context) error {
	sess, err := loadSession()
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	_, callErr := c.do(ctx, http.MethodPost, "/auth/v1/logout", sess.AccessToken, nil)
	if err := deleteSessionToken(); err != nil && !stderrors.Is(err, keyring.ErrNotFound) {
		return err
	}
	var apiErr *APIError
	if stderrors.As(callErr, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return nil
	}
	return callErr
}

// CurrentUser validates the cached session with the service. An expired or
// revoked session is dropped and reported as signed out.
func (c *GoTrueClient) CurrentUser(ctx context.Context) (*User, error) {
	sess, err := loadSession()
	if err != nil || sess == nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && c.now().After(sess.ExpiresAt) {
		logger.Debug("Cached session expired")
		_ = deleteSessionToken()
		return nil, nil
	}

	raw, err := c.do(ctx, http.MethodGet, "/auth/v1/user", sess.AccessToken, nil)
	if err != nil {
		var apiErr *APIError
		if stderrors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			_ = deleteSessionToken()
			return nil, nil
		}
		return nil, err
	}
	return decodeUser(raw)
}

func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, parseAPIError(res.StatusCode, raw)
	}
	return raw, nil
}

// parseAPIError understands both GoTrue error shapes:
// {"error","error_description"} and {"code","error_code","msg"}.
func parseAPIError(status int, raw []byte) error {
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)

	apiErr := &APIError{Status: status, Code: body.ErrorCode}
	if apiErr.Code == "" {
		apiErr.Code = body.Error
	}
	for _, m := range []string{body.ErrorDescription, body.Msg, body.Message} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func mapSignUpError(err error) error {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		return err
	}
	if strings.Contains(strings.ToLower(apiErr.Message), "already registered") {
		return ErrAlreadyRegistered
	}
	return err
}

func mapSignInError(err error) error {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		return err
	}
	msg := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(msg, "invalid login credentials"):
		return ErrInvalidCredentials
	case strings.Contains(msg, "email not confirmed"):
		return ErrEmailNotConfirmed
	}
	return err
}

// decodeUser accepts a bare user or a session wrapping one
func decodeUser(raw []byte) (*User, error) {
	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if tok.User != nil {
		return tok.User, nil
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

func loadSession() (*storedSession, error) {
	raw, err := loadSessionToken()
	if stderrors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess storedSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		logger.Warn("Discarding unreadable cached session", "error", err)
		_ = deleteSessionToken()
		return nil, nil
	}
	return &sess, nil
}

func saveSession(sess storedSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return storeSessionToken(string(data))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
