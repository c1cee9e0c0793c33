package keycloakauth

import (
	"errors"

	"github.com/dunv/uhttp"
)

// CtxKeyKeycloakUser holds the verified KeycloakToken of a request
const CtxKeyKeycloakUser uhttp.ContextKey = "keycloakUser"

const (
	defaultRealm = "master"

	openIDConnectPath = "/protocol/openid-connect"

	pemHeader = "-----BEGIN PUBLIC KEY-----"
	pemFooter = "-----END PUBLIC KEY-----"
)

var (
	// ErrInvalidArgument is returned when a logout parameter is not a single key/value pair
	ErrInvalidArgument = errors.New("invalid argument: expected a single key and a value")

	// ErrMissingBaseURL is returned by NewKeycloakAuth without Config.BaseURL
	ErrMissingBaseURL = errors.New("base url is required")

	// ErrKeyNotFound is returned when the realm does not publish an active key for the requested algorithm
	ErrKeyNotFound = errors.New("no active realm key for algorithm")
)
