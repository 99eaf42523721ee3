package keycloak

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sakif/identity-facade/internal/apperror"
)

// expirySkew is subtracted from a cached token's expiry so a token is never
// handed out moments before Keycloak would reject it.
const expirySkew = 30 * time.Second

// tokenSource performs the client-credentials exchange.
type tokenSource struct {
	endpoints Endpoints
	client    *http.Client
	cache     *tokenCache // nil disables caching
}

// token returns an admin access token, from the cache when enabled and fresh.
func (s *tokenSource) token(ctx context.Context) (string, error) {
	if s.endpoints.ClientSecret == nil || s.endpoints.ClientSecret.IsZero() {
		return "", apperror.Upstream("Client secret not set for auth provider")
	}

	if s.cache != nil {
		if access, ok := s.cache.get(s.endpoints.ClientID); ok {
			return access, nil
		}
	}

	cfg := clientcredentials.Config{
		ClientID:     s.endpoints.ClientID,
		ClientSecret: s.endpoints.ClientSecret.Expose(),
		TokenURL:     s.endpoints.Token,
		// client_id and client_secret travel in the form body
		AuthStyle: oauth2.AuthStyleInParams,
	}

	// x/oauth2 takes its HTTP client from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", tokenError(err)
	}

	if s.cache != nil {
		s.cache.put(s.endpoints.ClientID, tok)
	}
	return tok.AccessToken, nil
}

// tokenError maps x/oauth2 failures onto the Upstream kind.
func tokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return apperror.Upstream("Failed to get admin token from Keycloak: %s", retrieveErr.Response.Status)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return apperror.Upstream("Failed to send request to Keycloak")
	}
	return apperror.Upstream("Failed to parse Keycloak response: %v", err)
}

type cachedToken struct {
	access string
	expiry time.Time
}

// tokenCache holds one token per client id.
type tokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	now    func() time.Time
}

func newTokenCache() *tokenCache {
	return &tokenCache{
		tokens: make(map[string]cachedToken),
		now:    time.Now,
	}
}

func (c *tokenCache) get(clientID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.tokens[clientID]
	if !ok || !c.now().Add(expirySkew).Before(entry.expiry) {
		return "", false
	}
	return entry.access, true
}

// put stores tok unless no expiry can be determined for it.
func (c *tokenCache) put(clientID string, tok *oauth2.Token) {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = jwtExpiry(tok.AccessToken)
	}
	if expiry.IsZero() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[clientID] = cachedToken{access: tok.AccessToken, expiry: expiry}
}

// jwtExpiry reads the exp claim without verifying the signature. Returns the
// zero time when the token is opaque or has no exp.
func jwtExpiry(raw string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
