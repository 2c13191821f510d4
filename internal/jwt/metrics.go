package jwt

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationScope = "github.com/jamestelfer/bearer-guard/internal/jwt"

const (
	outcomeAbsent   = "absent"
	outcomeAccepted = "accepted"
)

// outcomeCounter follows the global meter provider, so it reports nothing
// until telemetry is configured.
var outcomeCounter = newOutcomeCounter()

func newOutcomeCounter() metric.Int64Counter {
	counter, err := otel.Meter(instrumentationScope).Int64Counter(
		"jwt.decode.outcome",
		metric.WithDescription("Authorization header decode results by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}

	return counter
}

func recordOutcome(ctx context.Context, outcome string) {
	outcomeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (k ErrorKind) outcome() string {
	switch k {
	case InvalidAuthHeader:
		return "invalid_auth_header"
	case InvalidJWTHeader:
		return "invalid_jwt_header"
	case InvalidJWTToken:
		return "invalid_jwt_token"
	default:
		return "unknown"
	}
}
