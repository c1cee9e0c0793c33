package keycloakauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dunv/ulog"
	"github.com/golang-jwt/jwt/v5"
)

// RoleExtractor reads the per-client roles out of keycloak access tokens.
//
// If no public key is configured, the active key for the configured algorithm
// is fetched from the realm on every call using the token that is being decoded.
// Nothing is cached.
type RoleExtractor struct {
	keysURL   string
	publicKey string
	algorithm string
	client    *http.Client
}

// NewRoleExtractor uses http.DefaultClient if client is nil
func NewRoleExtractor(keysURL, publicKey, algorithm string, client *http.Client) *RoleExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &RoleExtractor{
		keysURL:   keysURL,
		publicKey: publicKey,
		algorithm: algorithm,
		client:    client,
	}
}

type accessClaims struct {
	jwt.RegisteredClaims
	ResourceAccess KeycloakResourceAccess `json:"resource_access"`
}

// ExtractRoles returns client id -> roles from the resource_access claim of accessToken.
// If clientID is set, only that client is returned.
//
// ExtractRoles never fails: if the token cannot be verified for whatever reason
// an empty map is returned and the cause is logged.
func (e *RoleExtractor) ExtractRoles(ctx context.Context, accessToken, clientID string) map[string][]string {
	if e.publicKey == "" && e.algorithm == "" {
		return map[string][]string{}
	}

	claims, err := e.verify(ctx, accessToken)
	if err != nil {
		ulog.Debugf("could not extract roles from token (%s)", err)
		return map[string][]string{}
	}

	if clientID != "" {
		access, ok := claims.ResourceAccess[clientID]
		if !ok {
			ulog.Tracef("token has no roles for client %s", clientID)
			return map[string][]string{}
		}
		return map[string][]string{clientID: access.Roles}
	}

	return claims.ResourceAccess.RoleMap()
}

func (e *RoleExtractor) verify(ctx context.Context, accessToken string) (*accessClaims, error) {
	if e.algorithm == "" {
		return nil, errors.New("no algorithm configured")
	}

	publicKey := e.publicKey
	if publicKey == "" {
		rawKey, err := FetchRealmKey(ctx, e.client, e.keysURL, e.algorithm, accessToken)
		if err != nil {
			return nil, err
		}
		publicKey = rawKey
	}

	key, err := verificationKey(e.algorithm, publicKey)
	if err != nil {
		return nil, err
	}

	claims := accessClaims{}
	_, err = jwt.ParseWithClaims(accessToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{e.algorithm}))
	if err != nil {
		return nil, fmt.Errorf("could not verify token (%w)", err)
	}

	if claims.ResourceAccess == nil {
		return nil, errors.New("token has no resource_access claim")
	}

	return &claims, nil
}

// verificationKey parses key into what jwt expects for algorithm
func verificationKey(algorithm, key string) (interface{}, error) {
	switch {
	case strings.HasPrefix(algorithm, "HS"):
		return []byte(key), nil
	case strings.HasPrefix(algorithm, "RS"), strings.HasPrefix(algorithm, "PS"):
		return jwt.ParseRSAPublicKeyFromPEM([]byte(armorPublicKey(key)))
	case strings.HasPrefix(algorithm, "ES"):
		return jwt.ParseECPublicKeyFromPEM([]byte(armorPublicKey(key)))
	case algorithm == "EdDSA":
		return jwt.ParseEdPublicKeyFromPEM([]byte(armorPublicKey(key)))
	}
	return nil, fmt.Errorf("unsupported algorithm %s", algorithm)
}
