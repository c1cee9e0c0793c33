package keycloakauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// EndpointResolver exposes the realm endpoints to an oauth2 client
type EndpointResolver interface {
	Endpoints() Endpoints
}

// UserMapper turns userinfo claims into a User
type UserMapper interface {
	MapUser(claims map[string]interface{}) *User
}

// TokenFieldsAugmenter provides the form fields for the code -> token exchange
type TokenFieldsAugmenter interface {
	TokenFields(code string) url.Values
}

var (
	_ EndpointResolver     = (*KeycloakAuth)(nil)
	_ UserMapper           = (*KeycloakAuth)(nil)
	_ TokenFieldsAugmenter = (*KeycloakAuth)(nil)
)

// KeycloakAuth authenticates end-users against a single keycloak realm
type KeycloakAuth struct {
	config    Config
	endpoints Endpoints

	httpClient   *http.Client
	oauth2Config *oauth2.Config

	roleExtractor *RoleExtractor

	// reference to oidc.RemoteKeySet (will be initialized
	// lazily from the realm's certs endpoint)
	remoteKeySet *oidc.RemoteKeySet

	// reference to IDTokenVerifier (backed by remoteKeySet)
	idTokenVerifier *oidc.IDTokenVerifier
}

// NewKeycloakAuth builds the realm endpoints, oauth2 config and verifiers for config
func NewKeycloakAuth(config Config, opts ...Option) (*KeycloakAuth, error) {
	config.BaseURL = strings.TrimSpace(config.BaseURL)
	if config.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if config.Realm == "" {
		config.Realm = defaultRealm
	}
	if len(config.Scopes) == 0 {
		config.Scopes = []string{oidc.ScopeOpenID}
	}

	k := &KeycloakAuth{
		config:     config,
		endpoints:  ResolveEndpoints(config.BaseURL, config.Realm),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(k)
	}

	k.oauth2Config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     k.endpoints.OAuth2Endpoint(),
		RedirectURL:  config.RedirectURL,
		Scopes:       config.Scopes,
	}

	k.roleExtractor = NewRoleExtractor(k.endpoints.KeysURL, config.PublicKey, config.Algorithm, k.httpClient)

	// no request is made until the first verification
	ctx := oidc.ClientContext(context.Background(), k.httpClient)
	k.remoteKeySet = oidc.NewRemoteKeySet(ctx, k.endpoints.CertsURL)
	k.idTokenVerifier = oidc.NewVerifier(k.endpoints.Issuer, k.remoteKeySet, &oidc.Config{ClientID: config.ClientID})

	return k, nil
}

// Endpoints returns the resolved realm endpoints
func (k *KeycloakAuth) Endpoints() Endpoints {
	return k.endpoints
}

// OAuth2Config returns the config used for the authorization code flow
func (k *KeycloakAuth) OAuth2Config() *oauth2.Config {
	return k.oauth2Config
}

// AuthCodeURL returns the url to redirect the user to for login
func (k *KeycloakAuth) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return k.oauth2Config.AuthCodeURL(state, opts...)
}

// TokenFields returns the form fields sent to the token endpoint when exchanging code
func (k *KeycloakAuth) TokenFields(code string) url.Values {
	return url.Values{
		"client_id":    {k.config.ClientID},
		"code":         {code},
		"redirect_uri": {k.config.RedirectURL},
		"grant_type":   {"authorization_code"},
	}
}

// Exchange trades an authorization code for tokens
func (k *KeycloakAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	// client credentials and the code itself are handled by oauth2
	opts := []oauth2.AuthCodeOption{}
	for key, values := range k.TokenFields(code) {
		if key == "code" || key == "client_id" || len(values) == 0 || values[0] == "" {
			continue
		}
		opts = append(opts, oauth2.SetAuthURLParam(key, values[0]))
	}
	return k.oauth2Config.Exchange(oidc.ClientContext(ctx, k.httpClient), code, opts...)
}

// VerifyIDToken verifies an id_token against the realm's signing keys
func (k *KeycloakAuth) VerifyIDToken(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
	return k.idTokenVerifier.Verify(ctx, rawIDToken)
}

// Roles returns client id -> roles of accessToken, see RoleExtractor.ExtractRoles
func (k *KeycloakAuth) Roles(ctx context.Context, accessToken, clientID string) map[string][]string {
	return k.roleExtractor.ExtractRoles(ctx, accessToken, clientID)
}

// LogoutURL returns the realm's logout url, see BuildLogoutURL
func (k *KeycloakAuth) LogoutURL(req LogoutRequest) (string, error) {
	return BuildLogoutURL(k.endpoints.LogoutURL, req)
}

// StaticLogoutURL returns the realm's logout url redirecting to the configured PostLogoutRedirectURI
func (k *KeycloakAuth) StaticLogoutURL(idTokenHint string) string {
	return StaticLogoutURL(k.endpoints.LogoutURL, idTokenHint, k.config.PostLogoutRedirectURI)
}
