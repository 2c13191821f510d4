// Package jwt authenticates requests that carry a bearer JWT in their
// Authorization header, making the decoded claims available to later
// handlers through the request context.
package jwt

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jamestelfer/bearer-guard/internal/audit"
	"github.com/jamestelfer/bearer-guard/internal/token"
	"github.com/rs/zerolog"
)

const bearerPrefix = "Bearer "

// Middleware holds the verification configuration used to decode claims of
// type T. It is immutable: the same Middleware can wrap any number of
// handlers, and requests through them may run concurrently.
//
// A request without an Authorization header passes through with no claims
// attached. Routes that require authentication must check for the claims
// themselves (see RequireClaimsFromContext).
type Middleware[T any] struct {
	decoder  *token.Decoder[T]
	mapError ErrorMapper
}

// New returns middleware that verifies tokens with the key and policy. Failures
// are reported with DefaultErrorMapper unless another is installed with
// WithErrorMapper.
func New[T any](key token.Key, policy token.Policy) (*Middleware[T], error) {
	decoder, err := token.NewDecoder[T](key, policy)
	if err != nil {
		return nil, fmt.Errorf("JWT middleware configuration failed: %w", err)
	}

	return &Middleware[T]{
		decoder:  decoder,
		mapError: DefaultErrorMapper,
	}, nil
}

// WithErrorMapper returns a copy of the middleware that renders failures with
// mapper. The receiver is unchanged. A nil mapper restores the default.
func (m *Middleware[T]) WithErrorMapper(mapper ErrorMapper) *Middleware[T] {
	if mapper == nil {
		mapper = DefaultErrorMapper
	}

	c := *m
	c.mapError = mapper

	return &c
}

// Handler wraps next for use in a standard middleware chain. On failure the
// mapped error response is written and next is not called.
func (m *Middleware[T]) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, decodeErr := m.authenticate(r)
		if decodeErr != nil {
			if err := m.mapError(decodeErr).Write(w); err != nil {
				zerolog.Ctx(r.Context()).Info().Err(err).Msg("failed to write response")
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate returns the request to forward, with claims attached when a
// valid token was supplied, or the reason the request must be rejected.
func (m *Middleware[T]) authenticate(r *http.Request) (*http.Request, *DecodeError) {
	ctx := r.Context()

	// only the first value is considered when the header is repeated
	values := r.Header.Values("Authorization")
	if len(values) == 0 {
		recordOutcome(ctx, outcomeAbsent)
		return r, nil
	}

	entry := audit.Log(ctx)
	entry.TokenPresented = true

	claims, decodeErr := m.decode(values[0])
	if decodeErr != nil {
		entry.AuthFailure = decodeErr.Kind.String()
		entry.Error = decodeErr.Error()

		recordOutcome(ctx, decodeErr.Kind.outcome())
		zerolog.Ctx(ctx).Info().
			Str("kind", decodeErr.Kind.String()).
			AnErr("cause", decodeErr.Cause).
			Msg("JWT rejected")

		return r, decodeErr
	}

	entry.Authorized = true
	recordOutcome(ctx, outcomeAccepted)
	zerolog.Ctx(ctx).Debug().Msg("JWT accepted")

	return r.WithContext(ContextWithClaims(ctx, claims)), nil
}

func (m *Middleware[T]) decode(header string) (T, *DecodeError) {
	var zero T

	if !isVisibleASCII(header) {
		return zero, &DecodeError{Kind: InvalidAuthHeader}
	}

	compact, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return zero, &DecodeError{Kind: InvalidJWTHeader}
	}

	claims, err := m.decoder.Decode(compact)
	if err != nil {
		return zero, &DecodeError{Kind: InvalidJWTToken, Cause: err}
	}

	return claims, nil
}

// isVisibleASCII reports whether s holds only tab and printable ASCII.
func isVisibleASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b != '\t' && (b < 0x20 || b > 0x7e) {
			return false
		}
	}
	return true
}
