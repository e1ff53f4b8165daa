package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/store"
)

const (
	defaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL    = "https://securetoken.googleapis.com/v1"

	// refreshSkew is how long before expiry a token is refreshed.
	refreshSkew = time.Minute
)

// Config holds identity provider settings.
type Config struct {
	APIKey      string        `mapstructure:"api_key"`
	IdentityURL string        `mapstructure:"identity_url"` // Default: Identity Toolkit v1
	TokenURL    string        `mapstructure:"token_url"`    // Default: Secure Token v1
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Client signs users in and persists their credentials.
type Client struct {
	apiKey      string
	identityURL string
	tokenURL    string
	http        *http.Client
	creds       store.CredentialRepo
	log         *zap.Logger
	now         func() time.Time

	mu sync.Mutex
}

// NewClient creates an identity client that stores credentials in creds.
func NewClient(cfg Config, creds store.CredentialRepo, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("firebase API key is required (auth.api_key / MOCKT_AUTH_API_KEY)")
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		apiKey:      cfg.APIKey,
		identityURL: strings.TrimRight(cfg.IdentityURL, "/"),
		tokenURL:    strings.TrimRight(cfg.TokenURL, "/"),
		http:        &http.Client{Timeout: timeout},
		creds:       creds,
		log:         log.Named("auth"),
		now:         time.Now,
	}
	if c.identityURL == "" {
		c.identityURL = defaultIdentityURL
	}
	if c.tokenURL == "" {
		c.tokenURL = defaultTokenURL
	}
	return c, nil
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn authenticates with email and password and stores the credential.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	return c.passwordFlow(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates an account and signs the new user in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	return c.passwordFlow(ctx, "accounts:signUp", email, password)
}

func (c *Client) passwordFlow(ctx context.Context, method, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	body, err := json.Marshal(passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.identityURL + "/" + method + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp passwordResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}

	u := &User{
		UID:          resp.LocalID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    c.expiry(resp.IDToken, resp.ExpiresIn),
	}
	if u.Email == "" {
		u.Email = email
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.creds.Save(ctx, u.credential()); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	c.log.Info("signed in", zap.String("uid", u.UID), zap.String("method", method))
	return u, nil
}

// SignOut forgets the stored credential.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.creds.Delete(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	c.log.Info("signed out")
	return nil
}

// CurrentUser returns the signed-in user, refreshing the ID token when it
// is about to expire. It returns ErrNotSignedIn when nobody is signed in or
// the refresh token was revoked.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cred, err := c.creds.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil, ErrNotSignedIn
	}
	u := userFromCredential(cred)
	if c.now().Add(refreshSkew).Before(u.ExpiresAt) {
		return u, nil
	}

	refreshed, err := c.refresh(ctx, u)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) {
			// The refresh token is no longer valid; the user must sign in again.
			c.log.Warn("refresh rejected, clearing credential", zap.String("code", authErr.Code))
			if delErr := c.creds.Delete(ctx); delErr != nil {
				c.log.Warn("clear credential", zap.Error(delErr))
			}
			return nil, fmt.Errorf("%w: %v", ErrNotSignedIn, err)
		}
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if err := c.creds.Save(ctx, refreshed.credential()); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	return refreshed, nil
}

// Token returns a valid ID token for the signed-in user.
func (c *Client) Token(ctx context.Context) (string, error) {
	u, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return u.IDToken, nil
}

func (c *Client) refresh(ctx context.Context, u *User) (*User, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {u.RefreshToken},
	}
	endpoint := c.tokenURL + "/token?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp refreshResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	c.log.Debug("refreshed ID token", zap.String("uid", u.UID))

	out := *u
	out.IDToken = resp.IDToken
	if resp.RefreshToken != "" {
		out.RefreshToken = resp.RefreshToken
	}
	if resp.UserID != "" {
		out.UID = resp.UserID
	}
	out.ExpiresAt = c.expiry(resp.IDToken, resp.ExpiresIn)
	return &out, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
			return newError(resp.StatusCode, e.Error.Message)
		}
		return newError(resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// expiry reads the exp claim of idToken, falling back to expiresIn seconds
// from now when the token cannot be parsed.
func (c *Client) expiry(idToken, expiresIn string) time.Time {
	if exp, err := TokenExpiry(idToken); err == nil {
		return exp
	}
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return c.now().Add(time.Duration(secs) * time.Second).UTC()
}

// TokenExpiry returns the exp claim of a JWT. The signature is not
// verified.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return claims.ExpiresAt.Time.UTC(), nil
}
