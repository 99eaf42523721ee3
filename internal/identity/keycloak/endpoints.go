// Package keycloak implements identity.Provider against the Keycloak admin
// REST API.
//
// HOW A CALL WORKS:
//  1. Exchange the service client's id and secret for an admin access token at
//     the realm's OpenID Connect token endpoint (client-credentials grant).
//  2. Call the admin users endpoint with that token as a bearer credential.
//  3. Translate the response status into the apperror taxonomy.
//
// By default a fresh token is fetched before every admin call. Setting
// KEYCLOAK_TOKEN_CACHE=true reuses a token until shortly before it expires.
package keycloak

import (
	"fmt"
	"strings"

	"github.com/sakif/identity-facade/internal/model"
)

// Endpoints holds the URLs and service credentials for one realm. It is built
// once at startup and never modified.
type Endpoints struct {
	Admin        string // {base}/admin/realms/{realm}
	Token        string // {base}/realms/{realm}/protocol/openid-connect/token
	Users        string // {admin}/users
	ClientID     string
	ClientSecret *model.Secret // nil when not configured
}

// NewEndpoints derives every URL from the server base URL and realm name.
func NewEndpoints(baseURL, realm, clientID string, clientSecret *model.Secret) Endpoints {
	base := strings.TrimRight(baseURL, "/")
	admin := fmt.Sprintf("%s/admin/realms/%s", base, realm)
	return Endpoints{
		Admin:        admin,
		Token:        fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", base, realm),
		Users:        admin + "/users",
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}
