package observe

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Multiplexer is satisfied by http.ServeMux.
type Multiplexer interface {
	Handle(pattern string, handler http.Handler)
	http.Handler
}

// Mux instruments every request it serves, tagging each with the pattern of
// the route it was registered under. Routes registered directly on the
// wrapped multiplexer are served without telemetry.
type Mux struct {
	wrapped Multiplexer
	handler http.Handler
}

func NewMux(wrapped Multiplexer) *Mux {
	return &Mux{
		wrapped: wrapped,
		handler: otelhttp.NewHandler(wrapped, "/"),
	}
}

func (mux *Mux) Handle(pattern string, handler http.Handler) {
	// sets "http.route" on the labeler added by the otel handler
	mux.wrapped.Handle(pattern, otelhttp.WithRouteTag(pattern, handler))
}

func (mux *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux.handler.ServeHTTP(w, r)
}
