package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/identity"
	"github.com/sakif/identity-facade/internal/model"
)

// compile-time check that *Provider implements identity.Provider
var _ identity.Provider = (*Provider)(nil)

const tracerName = "github.com/sakif/identity-facade/internal/identity/keycloak"

// Options tunes a Provider. The zero value is a valid configuration.
type Options struct {
	// CacheTokens reuses admin tokens until shortly before they expire.
	CacheTokens bool
}

// Provider talks to one Keycloak realm.
//
// The http.Client is shared by every call and must be safe for concurrent
// use (http.Client always is). Timeouts belong on the client.
type Provider struct {
	client    *http.Client
	endpoints Endpoints
	tokens    *tokenSource
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewProvider builds a Provider. When client is nil a client with an otelhttp
// transport and no timeout is used.
func NewProvider(client *http.Client, endpoints Endpoints, opts Options, logger *slog.Logger) *Provider {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	tokens := &tokenSource{endpoints: endpoints, client: client}
	if opts.CacheTokens {
		tokens.cache = newTokenCache()
	}
	return &Provider{
		client:    client,
		endpoints: endpoints,
		tokens:    tokens,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// NewHTTPClient returns a client whose transport records a span per request.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func (p *Provider) RetrieveAuthToken(ctx context.Context) (string, error) {
	ctx, span := p.tracer.Start(ctx, "keycloak.RetrieveAuthToken")
	defer span.End()

	access, err := p.tokens.token(ctx)
	return access, endSpan(span, err)
}

// SignupUser creates the account and returns the id Keycloak assigned, taken
// from the Location header of the 201 response.
func (p *Provider) SignupUser(ctx context.Context, user *model.User) (string, error) {
	ctx, span := p.tracer.Start(ctx, "keycloak.SignupUser")
	defer span.End()

	id, err := p.signupUser(ctx, user)
	if err == nil {
		span.SetAttributes(attribute.String("keycloak.user_id", id))
	}
	return id, endSpan(span, err)
}

func (p *Provider) signupUser(ctx context.Context, user *model.User) (string, error) {
	token, err := p.tokens.token(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(user.SignupPayload(true, true))
	if err != nil {
		return "", apperror.Internal(fmt.Errorf("keycloak: encoding signup payload: %w", err))
	}

	req, err := p.newRequest(ctx, http.MethodPost, p.endpoints.Users, token, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperror.Upstream("Failed to send request to Keycloak: %v", transportCause(err))
	}
	defer resp.Body.Close()

	p.logger.Debug("keycloak signup", slog.Int("status", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusCreated:
		return userIDFromLocation(resp.Header.Get("Location"))
	case http.StatusConflict:
		return "", apperror.UserExists()
	default:
		return "", apperror.Network("Failed to create user in Keycloak: %s", resp.Status)
	}
}

// userIDFromLocation returns the last path segment of a created-resource URL,
// e.g. ".../users/8f2c..." → "8f2c...".
func userIDFromLocation(location string) (string, error) {
	if location == "" {
		return "", apperror.Upstream("Keycloak response is missing the Location header")
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", apperror.Upstream("Keycloak returned an invalid Location header: %v", err)
	}
	id := path.Base(strings.TrimRight(u.Path, "/"))
	if id == "" || id == "." || id == "/" {
		return "", apperror.Upstream("Keycloak Location header has no user id")
	}
	return id, nil
}

func (p *Provider) LoginUser(_ context.Context, _ model.Email, _ model.Password) (*model.User, error) {
	return nil, apperror.NotSupported("keycloak: login user")
}

func (p *Provider) LogoutUser(_ context.Context, _ string) error {
	return apperror.NotSupported("keycloak: logout user")
}

func (p *Provider) UpdateUser(_ context.Context, _ model.UserUpdate) error {
	return apperror.NotSupported("keycloak: update user")
}

func (p *Provider) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := p.tracer.Start(ctx, "keycloak.DeleteUser",
		trace.WithAttributes(attribute.String("keycloak.user_id", userID)))
	defer span.End()

	return endSpan(span, p.deleteUser(ctx, userID))
}

func (p *Provider) deleteUser(ctx context.Context, userID string) error {
	token, err := p.tokens.token(ctx)
	if err != nil {
		return err
	}

	req, err := p.newRequest(ctx, http.MethodDelete, p.endpoints.Users+"/"+url.PathEscape(userID), token, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return apperror.Upstream("Failed to send request to Keycloak: %v", transportCause(err))
	}
	defer resp.Body.Close()

	p.logger.Debug("keycloak delete user", slog.Int("status", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return apperror.UserNotFound()
	default:
		return apperror.Network("Failed to delete user in Keycloak: %s", resp.Status)
	}
}

func (p *Provider) GetUserID(ctx context.Context, email model.Email) (string, bool, error) {
	ctx, span := p.tracer.Start(ctx, "keycloak.GetUserID")
	defer span.End()

	id, found, err := p.getUserID(ctx, email)
	span.SetAttributes(attribute.Bool("keycloak.user_found", found))
	return id, found, endSpan(span, err)
}

func (p *Provider) getUserID(ctx context.Context, email model.Email) (string, bool, error) {
	token, err := p.tokens.token(ctx)
	if err != nil {
		return "", false, err
	}

	// Without exact=true Keycloak matches the email as a substring.
	query := url.Values{"email": {email.Expose()}, "exact": {"true"}}
	req, err := p.newRequest(ctx, http.MethodGet, p.endpoints.Users+"?"+query.Encode(), token, nil)
	if err != nil {
		return "", false, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", false, apperror.Network("Failed to send request to Keycloak: %v", transportCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, apperror.Upstream("Failed to get user from Keycloak: %s", resp.Status)
	}

	// Entries are decoded loosely: only "id" matters and its absence or a
	// non-string value means "not found" rather than a protocol error.
	var users []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return "", false, apperror.Network("Failed to parse Keycloak response: %v", err)
	}
	if len(users) == 0 {
		return "", false, nil
	}
	id, ok := users[0]["id"].(string)
	if !ok {
		return "", false, nil
	}
	return id, true, nil
}

func (p *Provider) newRequest(ctx context.Context, method, target, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("keycloak: building %s request: %w", method, err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// transportCause strips the request URL from a client error. Lookup URLs
// carry the email address in their query string.
func transportCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// endSpan records err on span and returns it unchanged.
func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.KindOf(err)))
	}
	return err
}
