package keycloakauth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestExtractRolesDisabled(t *testing.T) {
	key := newTestKey(t)
	s := newKeysServer(t, http.StatusOK, keysResponse("RS256", key.raw))
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor(s.keysURL(), "", "", nil)
	roles := e.ExtractRoles(context.Background(), token, "")

	assert.Empty(t, roles)
	assert.Equal(t, 0, s.callCount())
}

func TestExtractRolesStaticKeyForClient(t *testing.T) {
	key := newTestKey(t)
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "RS256", nil)
	roles := e.ExtractRoles(context.Background(), token, "client-x")

	assert.Equal(t, map[string][]string{"client-x": {"admin"}}, roles)
}

func TestExtractRolesStaticRawKey(t *testing.T) {
	key := newTestKey(t)
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor("http://unused.invalid", key.raw, "RS256", nil)
	roles := e.ExtractRoles(context.Background(), token, "client-y")

	assert.Equal(t, map[string][]string{"client-y": {"viewer", "editor"}}, roles)
}

func TestExtractRolesFetchedKey(t *testing.T) {
	key := newTestKey(t)
	s := newKeysServer(t, http.StatusOK, keysResponse("RS256", key.raw))
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor(s.keysURL(), "", "RS256", s.Client())
	roles := e.ExtractRoles(context.Background(), token, "")

	assert.Equal(t, map[string][]string{
		"client-x": {"admin"},
		"client-y": {"viewer", "editor"},
	}, roles)
	assert.Equal(t, 1, s.callCount())
	assert.Equal(t, "Bearer "+token, s.lastAuthz.Load().(string))
}

func TestExtractRolesNoCaching(t *testing.T) {
	key := newTestKey(t)
	s := newKeysServer(t, http.StatusOK, keysResponse("RS256", key.raw))
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor(s.keysURL(), "", "RS256", s.Client())
	e.ExtractRoles(context.Background(), token, "")
	e.ExtractRoles(context.Background(), token, "")

	assert.Equal(t, 2, s.callCount())
}

func TestExtractRolesBadSignature(t *testing.T) {
	key := newTestKey(t)
	other := newTestKey(t)
	token := other.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "RS256", nil)
	assert.Empty(t, e.ExtractRoles(context.Background(), token, "client-x"))
}

func TestExtractRolesAlgorithmMismatch(t *testing.T) {
	key := newTestKey(t)
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "RS512", nil)
	assert.Empty(t, e.ExtractRoles(context.Background(), token, ""))
}

func TestExtractRolesUnknownClient(t *testing.T) {
	key := newTestKey(t)
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "RS256", nil)
	roles := e.ExtractRoles(context.Background(), token, "client-z")

	assert.NotNil(t, roles)
	assert.Empty(t, roles)
}

func TestExtractRolesExpired(t *testing.T) {
	key := newTestKey(t)
	claims := testClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := key.sign(t, jwt.SigningMethodRS256, claims)

	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "RS256", nil)
	assert.Empty(t, e.ExtractRoles(context.Background(), token, ""))
}

func TestExtractRolesMissingClaim(t *testing.T) {
	key := newTestKey(t)
	claims := testClaims()
	delete(claims, "resource_access")
	token := key.sign(t, jwt.SigningMethodRS256, claims)

	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "RS256", nil)
	assert.Empty(t, e.ExtractRoles(context.Background(), token, ""))
}

func TestExtractRolesKeyFetchFails(t *testing.T) {
	key := newTestKey(t)
	s := newKeysServer(t, http.StatusForbidden, map[string]string{"error": "forbidden"})
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor(s.keysURL(), "", "RS256", s.Client())
	assert.Empty(t, e.ExtractRoles(context.Background(), token, ""))
	assert.Equal(t, 1, s.callCount())
}

func TestExtractRolesInactiveAlgorithm(t *testing.T) {
	key := newTestKey(t)
	s := newKeysServer(t, http.StatusOK, keysResponse("RS256", key.raw))
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor(s.keysURL(), "", "ES256", s.Client())
	assert.Empty(t, e.ExtractRoles(context.Background(), token, ""))
}

func TestExtractRolesMalformedToken(t *testing.T) {
	key := newTestKey(t)
	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "RS256", nil)
	assert.Empty(t, e.ExtractRoles(context.Background(), "not-a-jwt", ""))
}

func TestExtractRolesPublicKeyWithoutAlgorithm(t *testing.T) {
	key := newTestKey(t)
	token := key.sign(t, jwt.SigningMethodRS256, testClaims())

	e := NewRoleExtractor("http://unused.invalid", key.pem(t), "", nil)
	assert.Empty(t, e.ExtractRoles(context.Background(), token, ""))
}
