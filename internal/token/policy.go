package token

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 60 * time.Second

// Policy describes the checks a token must pass in addition to a valid
// signature.
type Policy struct {
	// Algorithms is the allow-list of "alg" header values. It must not be
	// empty, and "none" is never accepted.
	Algorithms []string

	// Issuer, Audience and Subject are compared with the registered claims
	// when non-empty.
	Issuer   string
	Audience string
	Subject  string

	// Leeway is the clock skew tolerated for exp, nbf and iat.
	Leeway time.Duration

	// RequireExpiry rejects tokens with no exp claim. When false, exp is
	// still checked if present.
	RequireExpiry bool

	VerifyIssuedAt bool

	// SkipClaimsValidation disables every time and registered claim check,
	// leaving only structure and signature verification.
	SkipClaimsValidation bool
}

// NewPolicy returns a policy for the given algorithms (HS256 if none are
// given) that requires an expiry and allows 60 seconds of clock skew.
func NewPolicy(algorithms ...string) Policy {
	if len(algorithms) == 0 {
		algorithms = []string{jwt.SigningMethodHS256.Alg()}
	}

	return Policy{
		Algorithms:    algorithms,
		Leeway:        defaultLeeway,
		RequireExpiry: true,
	}
}

// Validate reports whether the policy can be used to decode tokens.
func (p Policy) Validate() error {
	if len(p.Algorithms) == 0 {
		return errors.New("at least one algorithm must be allowed")
	}

	for _, alg := range p.Algorithms {
		if alg == jwt.SigningMethodNone.Alg() {
			return errors.New(`algorithm "none" cannot be allowed`)
		}
		if jwt.GetSigningMethod(alg) == nil {
			return fmt.Errorf("unknown algorithm %q", alg)
		}
	}

	if p.Leeway < 0 {
		return fmt.Errorf("leeway must not be negative, got %s", p.Leeway)
	}

	return nil
}

func (p Policy) clone() Policy {
	p.Algorithms = slices.Clone(p.Algorithms)
	return p
}

func (p Policy) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(p.Algorithms),
	}

	if p.SkipClaimsValidation {
		return append(opts, jwt.WithoutClaimsValidation())
	}

	if p.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(p.Leeway))
	}
	if p.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.Issuer))
	}
	if p.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.Audience))
	}
	if p.Subject != "" {
		opts = append(opts, jwt.WithSubject(p.Subject))
	}
	if p.RequireExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	if p.VerifyIssuedAt {
		opts = append(opts, jwt.WithIssuedAt())
	}

	return opts
}
