package jwt

import (
	"net/http"

	"github.com/jamestelfer/bearer-guard/internal/pipeline"
)

var _ pipeline.Service[pipeline.Either[string, pipeline.Response]] = (*Interceptor[struct{}, string])(nil)

// Interceptor is Middleware bound to a typed downstream service. Its result is
// the downstream response when the request was forwarded, or the mapped error
// response when it was rejected.
type Interceptor[T, D any] struct {
	middleware *Middleware[T]
	next       pipeline.Service[D]
}

// Bind wraps next with the middleware's authentication. It never fails and has
// no side effects.
func Bind[T, D any](m *Middleware[T], next pipeline.Service[D]) *Interceptor[T, D] {
	return &Interceptor[T, D]{
		middleware: m,
		next:       next,
	}
}

// Call authenticates r, then either calls the downstream service once and
// returns its response and error unchanged, or returns the mapped error
// response without calling it.
func (i *Interceptor[T, D]) Call(r *http.Request) (pipeline.Either[D, pipeline.Response], error) {
	r, decodeErr := i.middleware.authenticate(r)
	if decodeErr != nil {
		return pipeline.Local[D](i.middleware.mapError(decodeErr)), nil
	}

	res, err := i.next.Call(r)
	if err != nil {
		return pipeline.Either[D, pipeline.Response]{}, err
	}

	return pipeline.Downstream[D, pipeline.Response](res), nil
}
