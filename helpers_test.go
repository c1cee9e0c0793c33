package keycloakauth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testKID = "test-kid"

type testKey struct {
	private *rsa.PrivateKey
	// base64 DER without PEM armor, the way keycloak returns it
	raw string
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	require.NoError(t, err)
	return testKey{private: private, raw: base64.StdEncoding.EncodeToString(der)}
}

func (k testKey) pem(t *testing.T) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&k.private.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func (k testKey) sign(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = testKID
	signed, err := token.SignedString(k.private)
	require.NoError(t, err)
	return signed
}

func testClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":                "0b1c",
		"preferred_username": "alice",
		"exp":                time.Now().Add(time.Hour).Unix(),
		"iat":                time.Now().Unix(),
		"resource_access": map[string]interface{}{
			"client-x": map[string]interface{}{"roles": []string{"admin"}},
			"client-y": map[string]interface{}{"roles": []string{"viewer", "editor"}},
		},
	}
}

type keysServer struct {
	*httptest.Server
	calls     int32
	lastAuthz atomic.Value
}

// newKeysServer serves realm "acme" keys under /admin/realms/acme/keys
func newKeysServer(t *testing.T, status int, body interface{}) *keysServer {
	t.Helper()
	s := &keysServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/realms/acme/keys" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&s.calls, 1)
		s.lastAuthz.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *keysServer) keysURL() string {
	return ResolveEndpoints(s.URL, "acme").KeysURL
}

func (s *keysServer) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func keysResponse(algorithm, publicKey string) map[string]interface{} {
	return map[string]interface{}{
		"active": map[string]string{algorithm: testKID},
		"keys": []map[string]string{
			{"kid": "hmac", "algorithm": "HS256", "type": "OCT"},
			{"kid": testKID, "algorithm": algorithm, "type": "RSA", "publicKey": publicKey},
		},
	}
}
