package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jamestelfer/bearer-guard/internal/token"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Authorization AuthorizationConfig
	Server        ServerConfig
	Observe       ObserveConfig
}

type ServerConfig struct {
	Port                   int `env:"PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`
}

// AuthorizationConfig configures token verification. Exactly one of the key
// sources (HMACSecret, PublicKeyPEM, JWKSStatic, IssuerURL) must be set.
type AuthorizationConfig struct {
	HMACSecret   string `env:"JWT_HMAC_SECRET"`
	PublicKeyPEM string `env:"JWT_PUBLIC_KEY_PEM"`
	JWKSStatic   string `env:"JWT_JWKS_STATIC"`
	IssuerURL    string `env:"JWT_ISSUER_URL"`

	Algorithms     []string `env:"JWT_ALGORITHMS, default=HS256"`
	Issuer         string   `env:"JWT_ISSUER"`
	Audience       string   `env:"JWT_AUDIENCE"`
	Subject        string   `env:"JWT_SUBJECT"`
	LeewaySeconds  int      `env:"JWT_LEEWAY_SECONDS, default=60"`
	RequireExpiry  bool     `env:"JWT_REQUIRE_EXPIRY, default=true"`
	VerifyIssuedAt bool     `env:"JWT_VERIFY_ISSUED_AT, default=false"`
}

type ObserveConfig struct {
	Enabled                   bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled            bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                      string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName               string `env:"OBSERVE_OTEL_SERVICE_NAME, default=bearer-guard"`
	TraceBatchTimeoutSeconds  int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
}

func Load(ctx context.Context) (cfg Config, err error) {
	err = envconfig.Process(ctx, &cfg)
	if err != nil {
		return
	}

	err = cfg.Authorization.validate()
	return
}

// Policy returns the validation policy described by the configuration.
func (c AuthorizationConfig) Policy() token.Policy {
	p := token.NewPolicy(c.Algorithms...)

	p.Issuer = c.Issuer
	p.Audience = c.Audience
	p.Subject = c.Subject
	p.Leeway = time.Duration(c.LeewaySeconds) * time.Second
	p.RequireExpiry = c.RequireExpiry
	p.VerifyIssuedAt = c.VerifyIssuedAt

	return p
}

// Key builds the verification key from whichever key source is configured.
// When an issuer URL is configured its key set is fetched immediately, so
// this is expected to be called once at startup.
func (c AuthorizationConfig) Key(ctx context.Context) (token.Key, error) {
	if err := c.validate(); err != nil {
		return token.Key{}, err
	}

	switch {
	case c.HMACSecret != "":
		return token.HMACKey([]byte(c.HMACSecret)), nil

	case c.PublicKeyPEM != "":
		return c.publicKey()

	case c.JWKSStatic != "":
		return token.KeySetFromJWKS([]byte(c.JWKSStatic))

	default:
		issuer, err := url.Parse(c.IssuerURL)
		if err != nil {
			return token.Key{}, fmt.Errorf("JWT_ISSUER_URL is not a valid URL: %w", err)
		}
		return token.FetchKeySet(ctx, issuer)
	}
}

func (c AuthorizationConfig) validate() error {
	sources := 0
	for _, s := range []string{c.HMACSecret, c.PublicKeyPEM, c.JWKSStatic, c.IssuerURL} {
		if s != "" {
			sources++
		}
	}

	switch {
	case sources == 0:
		return errors.New("no verification key configured: set one of JWT_HMAC_SECRET, JWT_PUBLIC_KEY_PEM, JWT_JWKS_STATIC or JWT_ISSUER_URL")
	case sources > 1:
		return errors.New("only one of JWT_HMAC_SECRET, JWT_PUBLIC_KEY_PEM, JWT_JWKS_STATIC or JWT_ISSUER_URL may be set")
	}

	if c.LeewaySeconds < 0 {
		return errors.New("JWT_LEEWAY_SECONDS must not be negative")
	}

	return nil
}

// publicKey parses the PEM key according to the family of the allowed
// algorithms. All algorithms must share the same family.
func (c AuthorizationConfig) publicKey() (token.Key, error) {
	family := ""
	for _, alg := range c.Policy().Algorithms {
		f := algorithmFamily(alg)
		if family != "" && f != family {
			return token.Key{}, fmt.Errorf("algorithms %v cannot share a single public key", c.Algorithms)
		}
		family = f
	}

	data := []byte(c.PublicKeyPEM)

	switch family {
	case "RSA":
		return token.RSAPublicKeyFromPEM(data)
	case "EC":
		return token.ECPublicKeyFromPEM(data)
	case "OKP":
		return token.EdPublicKeyFromPEM(data)
	default:
		return token.Key{}, fmt.Errorf("algorithms %v do not use a public key", c.Algorithms)
	}
}

func algorithmFamily(alg string) string {
	switch {
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		return "RSA"
	case strings.HasPrefix(alg, "ES"):
		return "EC"
	case alg == "EdDSA":
		return "OKP"
	default:
		return alg
	}
}
