// Package auth exchanges the stored refresh token for access tokens and
// carries the account identity every remote call needs.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"bingads-extractor/shared/observability"
	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/settings"
)

const (
	productionTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	sandboxTokenURL    = "https://login.windows-ppe.net/consumers/oauth2/v2.0/token"

	productionScope = "https://ads.microsoft.com/msads.manage"
	sandboxScope    = "https://api.ads.microsoft.com/msads.manage"
)

// Credentials is everything needed to authorize, with no I/O performed yet.
type Credentials struct {
	ClientID       string
	ClientSecret   string
	DeveloperToken string
	CustomerID     string
	AccountIDs     []string
	Environment    string
	RefreshToken   string
}

// CredentialsFromSettings copies the identity fields out of the job configuration.
func CredentialsFromSettings(p settings.Parameters) Credentials {
	return Credentials{
		ClientID:       p.ClientID,
		ClientSecret:   p.ClientSecret,
		DeveloperToken: p.Authorization.DeveloperToken,
		CustomerID:     p.Authorization.CustomerID,
		AccountIDs:     append([]string(nil), p.Authorization.AccountIDs...),
		Environment:    p.Authorization.Environment,
		RefreshToken:   p.RefreshToken,
	}
}

func (c Credentials) sandbox() bool {
	return c.Environment == settings.EnvironmentSandbox
}

// Authorizer performs the refresh-token grant.
type Authorizer struct {
	tokenURL   string
	httpClient *http.Client
	logger     observability.Logger
}

// NewAuthorizer returns an Authorizer. An empty tokenURL selects the
// endpoint of the credentials' environment; a nil client uses http.DefaultClient.
func NewAuthorizer(tokenURL string, httpClient *http.Client, logger observability.Logger) *Authorizer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Authorizer{tokenURL: tokenURL, httpClient: httpClient, logger: logger}
}

func (a *Authorizer) oauthConfig(creds Credentials) *oauth2.Config {
	tokenURL, scope := productionTokenURL, productionScope
	if creds.sandbox() {
		tokenURL, scope = sandboxTokenURL, sandboxScope
	}
	if a.tokenURL != "" {
		tokenURL = a.tokenURL
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{scope, "offline_access"},
	}
}

// Authorize redeems creds.RefreshToken. If the token endpoint rejects it,
// fallback (the token saved by a previous run) is tried once. onToken, when
// set, receives the refresh token after the first success and again
// whenever the service rotates it.
func (a *Authorizer) Authorize(ctx context.Context, creds Credentials, fallback string, onToken func(string)) (*Context, error) {
	if creds.RefreshToken == "" && fallback == "" {
		return nil, domain.AuthError("no refresh token is available; authorize the application again", nil)
	}

	cfg := a.oauthConfig(creds)
	// The token source outlives this call and refreshes lazily.
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, a.httpClient)

	primary := creds.RefreshToken
	if primary == "" {
		primary = fallback
	}

	tok, err := redeem(tokenCtx, cfg, primary)
	if err != nil && isRejected(err) && fallback != "" && fallback != primary {
		a.logger.Warn(ctx, "Refresh token was rejected, retrying with the token saved in state", observability.Fields{
			"error": err.Error(),
		})
		tok, err = redeem(tokenCtx, cfg, fallback)
	}
	if err != nil {
		return nil, classify(err)
	}

	a.logger.Info(ctx, "Refresh token authentication successful", nil)

	src := &notifyingSource{
		base:    cfg.TokenSource(tokenCtx, tok),
		current: tok.RefreshToken,
		onToken: onToken,
	}
	if onToken != nil {
		onToken(tok.RefreshToken)
	}
	return NewContext(src, creds), nil
}

func redeem(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*oauth2.Token, error) {
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

func isRejected(err error) bool {
	var re *oauth2.RetrieveError
	return errors.As(err, &re)
}

func classify(err error) error {
	if isRejected(err) {
		return domain.AuthError("the token endpoint rejected the refresh token", err)
	}
	return domain.TransientError("token endpoint unreachable", err)
}

// notifyingSource reports rotated refresh tokens.
type notifyingSource struct {
	base    oauth2.TokenSource
	onToken func(string)

	mu      sync.Mutex
	current string
}

func (s *notifyingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	rotated := tok.RefreshToken != "" && tok.RefreshToken != s.current
	if rotated {
		s.current = tok.RefreshToken
	}
	s.mu.Unlock()

	if rotated && s.onToken != nil {
		s.onToken(tok.RefreshToken)
	}
	return tok, nil
}

func (s *notifyingSource) refreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Context is a live authorization: a token source plus the account identity.
type Context struct {
	source         oauth2.TokenSource
	developerToken string
	customerID     string
	accountIDs     []string
	environment    string
}

// NewContext wraps an existing token source.
func NewContext(source oauth2.TokenSource, creds Credentials) *Context {
	return &Context{
		source:         source,
		developerToken: creds.DeveloperToken,
		customerID:     creds.CustomerID,
		accountIDs:     append([]string(nil), creds.AccountIDs...),
		environment:    creds.Environment,
	}
}

// AccessToken returns a valid access token, refreshing it when expired.
func (c *Context) AccessToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := c.source.Token()
	if err != nil {
		return "", classify(err)
	}
	return tok.AccessToken, nil
}

func (c *Context) DeveloperToken() string { return c.developerToken }
func (c *Context) CustomerID() string     { return c.customerID }
func (c *Context) Environment() string    { return c.environment }

func (c *Context) AccountIDs() []string {
	return append([]string(nil), c.accountIDs...)
}

// AccountID is the single account a scoped context addresses, or "".
func (c *Context) AccountID() string {
	if len(c.accountIDs) == 1 {
		return c.accountIDs[0]
	}
	return ""
}

func (c *Context) Sandbox() bool {
	return c.environment == settings.EnvironmentSandbox
}

// RefreshToken is the most recent refresh token seen, or "" when the source
// does not track one.
func (c *Context) RefreshToken() string {
	if ns, ok := c.source.(*notifyingSource); ok {
		return ns.refreshToken()
	}
	return ""
}

// ForAccount returns a copy scoped to accountID that shares the token source.
func (c *Context) ForAccount(accountID string) *Context {
	scoped := *c
	scoped.accountIDs = []string{accountID}
	return &scoped
}
