package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrStateMismatch is returned when the callback state does not belong to this browser.
var ErrStateMismatch = errors.New("oauth state mismatch")

const (
	nonceCookieName = "gigdash_oauth_nonce"
	stateTTL        = 5 * time.Minute
)

// OAuthConfig describes an OpenID Connect style identity provider.
type OAuthConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Identity is the subset of provider userinfo the app keeps.
type Identity struct {
	Provider  string
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	FirstName string `json:"given_name"`
	LastName  string `json:"family_name"`
	Picture   string `json:"picture"`

	// EmailVerified is the provider's email_verified claim; false when the provider omits it.
	EmailVerified bool `json:"email_verified"`
}

// OAuthProvider runs the authorization-code flow against one identity provider.
type OAuthProvider struct {
	name        string
	conf        *oauth2.Config
	userInfoURL string
	tokens      *TokenManager
	secure      bool
}

// NewOAuthProvider wires the oauth2 config. State tokens are signed by tokens.
func NewOAuthProvider(cfg OAuthConfig, tokens *TokenManager, secureCookie bool) *OAuthProvider {
	return &OAuthProvider{
		name: cfg.Provider,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL},
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		tokens:      tokens,
		secure:      secureCookie,
	}
}

// Name returns the provider label stored on linked users.
func (p *OAuthProvider) Name() string { return p.name }

// Begin sets the nonce cookie and returns the provider consent URL.
func (p *OAuthProvider) Begin(w http.ResponseWriter, redirect string) (string, error) {
	nonce := uuid.NewString()
	state, err := p.tokens.SignState(nonce, safeRedirect(redirect), stateTTL)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Value:    nonce,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return p.conf.AuthCodeURL(state), nil
}

// Complete validates state, exchanges the code and fetches the identity.
// It returns the redirect that was requested when the flow began.
func (p *OAuthProvider) Complete(ctx context.Context, w http.ResponseWriter, r *http.Request) (Identity, string, error) {
	nonce, redirect, err := p.tokens.ParseState(r.URL.Query().Get("state"))
	if err != nil {
		return Identity{}, "", err
	}
	c, err := r.Cookie(nonceCookieName)
	if err != nil || c.Value != nonce {
		return Identity{}, "", ErrStateMismatch
	}
	http.SetCookie(w, &http.Cookie{Name: nonceCookieName, Value: "", Path: "/", MaxAge: -1})

	if msg := r.URL.Query().Get("error"); msg != "" {
		return Identity{}, "", fmt.Errorf("provider returned error: %s", msg)
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		return Identity{}, "", errors.New("missing authorization code")
	}
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, "", fmt.Errorf("exchange code: %w", err)
	}
	id, err := p.fetchIdentity(ctx, tok)
	if err != nil {
		return Identity{}, "", err
	}
	return id, redirect, nil
}

func (p *OAuthProvider) fetchIdentity(ctx context.Context, tok *oauth2.Token) (Identity, error) {
	client := p.conf.Client(ctx, tok)
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if id.Subject == "" || id.Email == "" {
		return Identity{}, errors.New("userinfo missing sub or email")
	}
	id.Provider = p.name
	return id, nil
}

// safeRedirect keeps post-login redirects on this site. Targets a browser could resolve to
// another origin, such as "//host" or "/\host", collapse to "/".
func safeRedirect(target string) string {
	if len(target) == 0 || target[0] != '/' {
		return "/"
	}
	if len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return "/"
	}
	if strings.ContainsAny(target, "\\\r\n\t") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return target
}
