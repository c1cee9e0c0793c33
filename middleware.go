package keycloakauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dunv/uhelpers"
	"github.com/dunv/uhttp"
	"github.com/dunv/ulog"
	jwt "gopkg.in/square/go-jose.v2/jwt"
)

var errUnauthorized = errors.New("Unauthorized")

// HasAccessFn decides whether a verified token may access a resource
type HasAccessFn func(KeycloakToken) bool

// LimitAccessToOr grants access if the token holds any of roles for the client resource
func LimitAccessToOr(resource string, roles ...string) HasAccessFn {
	return func(t KeycloakToken) bool {
		for _, role := range t.ResourceAccess.RoleMap()[resource] {
			if uhelpers.SliceContainsItem(roles, role) {
				return true
			}
		}
		return false
	}
}

// VerifyAccessToken checks that rawToken was signed by the realm, was issued by it
// and has not expired. The claims are returned only if all checks pass.
func (k *KeycloakAuth) VerifyAccessToken(ctx context.Context, rawToken string) (*KeycloakToken, error) {
	if _, err := k.remoteKeySet.VerifySignature(ctx, rawToken); err != nil {
		return nil, fmt.Errorf("could not verify signature (%w)", err)
	}

	token, err := jwt.ParseSigned(rawToken)
	if err != nil {
		return nil, fmt.Errorf("could not parse token (%w)", err)
	}

	// signature has been verified above
	registered := jwt.Claims{}
	claims := KeycloakToken{}
	if err := token.UnsafeClaimsWithoutVerification(&registered, &claims); err != nil {
		return nil, fmt.Errorf("could not extract claims from token (%w)", err)
	}

	if err := registered.Validate(jwt.Expected{Issuer: k.endpoints.Issuer, Time: time.Now()}); err != nil {
		return nil, fmt.Errorf("invalid token for realm %s (%w)", k.config.Realm, err)
	}

	return &claims, nil
}

// TokenFromRequest verifies the bearer token of r, see VerifyAccessToken
func (k *KeycloakAuth) TokenFromRequest(r *http.Request) (*KeycloakToken, error) {
	rawToken, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	return k.VerifyAccessToken(r.Context(), rawToken)
}

// authorize returns the verified token of r if any of hasAccessFns grants access.
// Without hasAccessFns every verified token is authorized.
func (k *KeycloakAuth) authorize(r *http.Request, hasAccessFns []HasAccessFn) (*KeycloakToken, error) {
	token, err := k.TokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	if len(hasAccessFns) == 0 {
		return token, nil
	}
	for _, hasAccessFn := range hasAccessFns {
		if hasAccessFn(*token) {
			return token, nil
		}
	}
	return nil, fmt.Errorf("%s has no access to resource", token.PreferredUsername)
}

// RequireAuth rejects requests without a valid realm token.
// If hasAccessFns are passed, one of them has to grant access as well.
func (k *KeycloakAuth) RequireAuth(u *uhttp.UHTTP, hasAccessFns ...HasAccessFn) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := k.authorize(r, hasAccessFns)
			if err != nil {
				ulog.Tracef("Unauthorized: %s", err)
				u.RenderError(w, r, errUnauthorized)
				return
			}
			next.ServeHTTP(w, withToken(w, r, *token))
		}
	}
}

// OptionalAuth adds the token to the request context if there is a valid one
func (k *KeycloakAuth) OptionalAuth(u *uhttp.UHTTP) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := k.TokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, withToken(w, r, *token))
		}
	}
}

// Permission reports whether r carries a valid token that one of fn authorizes
func (k *KeycloakAuth) Permission(fn ...HasAccessFn) func(*http.Request) bool {
	return func(r *http.Request) bool {
		_, err := k.authorize(r, fn)
		if err != nil {
			ulog.Trace(err)
		}
		return err == nil
	}
}

// TokenFromContext returns the token stored by RequireAuth or OptionalAuth.
// Panics if no middleware stored one.
func TokenFromContext(ctx context.Context) KeycloakToken {
	if token, ok := ctx.Value(CtxKeyKeycloakUser).(KeycloakToken); ok {
		return token
	}
	panic("usage of keycloakUser without registering middleware")
}

// TokenFromRequest is TokenFromContext for the context of r
func TokenFromRequest(r *http.Request) KeycloakToken {
	return TokenFromContext(r.Context())
}

func withToken(w http.ResponseWriter, r *http.Request, token KeycloakToken) *http.Request {
	// fails for writers not created by uhttp, e.g. websockets
	_ = uhttp.AddLogOutput(w, "user", token.PreferredUsername)
	return r.WithContext(context.WithValue(r.Context(), CtxKeyKeycloakUser, token))
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("no bearer token")
	}
	return strings.TrimPrefix(header, "Bearer "), nil
}
