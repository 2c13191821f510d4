// Package token decodes and verifies compact JWTs into caller defined claim
// types.
package token

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Decoder verifies compact tokens against a fixed key and policy and decodes
// their payload into T. A Decoder is immutable and safe for concurrent use.
type Decoder[T any] struct {
	key    Key
	policy Policy
	parser *jwt.Parser
}

// NewDecoder returns a decoder for the key and policy. The policy is copied,
// so later changes by the caller have no effect.
func NewDecoder[T any](key Key, policy Policy) (*Decoder[T], error) {
	if key.IsZero() {
		return nil, errors.New("verification key is required")
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid validation policy: %w", err)
	}

	policy = policy.clone()

	return &Decoder[T]{
		key:    key,
		policy: policy,
		parser: jwt.NewParser(policy.parserOptions()...),
	}, nil
}

// Decode parses the compact serialization, verifies its signature, applies the
// policy and returns the payload as T. Any failure results in a single error
// and a zero T.
func (d *Decoder[T]) Decode(compact string) (T, error) {
	var zero T

	claims := &payload[T]{}
	if _, err := d.parser.ParseWithClaims(compact, claims, d.key.resolve); err != nil {
		return zero, err
	}

	return claims.custom, nil
}

// payload reads the registered claims needed for policy checks and the
// caller's claim type from the same JSON object.
type payload[T any] struct {
	jwt.RegisteredClaims
	custom T
}

func (p *payload[T]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.RegisteredClaims); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.custom); err != nil {
		return fmt.Errorf("claims do not match %T: %w", p.custom, err)
	}
	return nil
}

// Sign creates a compact token for the claims using the named algorithm. The
// keyID is written to the "kid" header when non-empty.
func Sign(alg, keyID string, key any, claims jwt.Claims) (string, error) {
	method := jwt.GetSigningMethod(alg)
	if method == nil || method == jwt.SigningMethodNone {
		return "", fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	t := jwt.NewWithClaims(method, claims)
	if keyID != "" {
		t.Header["kid"] = keyID
	}

	return t.SignedString(key)
}
