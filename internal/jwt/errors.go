package jwt

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jamestelfer/bearer-guard/internal/pipeline"
)

// ErrorKind classifies why a supplied Authorization header was rejected.
type ErrorKind int

const (
	// InvalidAuthHeader: the header value holds bytes outside visible ASCII.
	InvalidAuthHeader ErrorKind = iota + 1
	// InvalidJWTHeader: the header does not start with "Bearer ".
	InvalidJWTHeader
	// InvalidJWTToken: the token failed to parse, verify or satisfy the policy.
	InvalidJWTToken
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidAuthHeader:
		return "InvalidAuthHeader"
	case InvalidJWTHeader:
		return "InvalidJWTHeader"
	case InvalidJWTToken:
		return "InvalidJWTToken"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels for use with errors.Is against a *DecodeError.
var (
	ErrInvalidAuthHeader = errors.New("invalid authorization header encoding")
	ErrInvalidJWTHeader  = errors.New("invalid authorization header format")
	ErrInvalidJWTToken   = errors.New("invalid JWT token")
)

// DecodeError is returned for a request whose Authorization header could not
// be turned into claims. Cause is only set for InvalidJWTToken.
type DecodeError struct {
	Kind  ErrorKind
	Cause error
}

// Error returns the client facing description of the failure.
func (e *DecodeError) Error() string {
	switch e.Kind {
	case InvalidAuthHeader:
		return "Invalid authorization header - header contains invalid ASCII characters"
	case InvalidJWTHeader:
		return "Invalid authorization header - header needs to have the format 'Bearer HEADER.PAYLOAD.SIGNATURE' " +
			"where all three parts are base64url encoded and separated by a dot"
	case InvalidJWTToken:
		return fmt.Sprintf("Invalid JWT token - an error occurred when decoding token: %v", e.Cause)
	default:
		return fmt.Sprintf("Invalid authorization - %s", e.Kind)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrInvalidAuthHeader:
		return e.Kind == InvalidAuthHeader
	case ErrInvalidJWTHeader:
		return e.Kind == InvalidJWTHeader
	case ErrInvalidJWTToken:
		return e.Kind == InvalidJWTToken
	}
	return false
}

// ErrorMapper turns a rejected request's error into the response sent in
// place of calling the next handler. Mappers are shared by all requests and
// must not hold mutable state.
type ErrorMapper func(err *DecodeError) pipeline.Response

// DefaultErrorMapper responds 400 with the error description as plain text.
func DefaultErrorMapper(err *DecodeError) pipeline.Response {
	return pipeline.Text(http.StatusBadRequest, err.Error())
}
