// Package pipeline models request handling as a chain of typed stages. A
// stage that can answer a request itself (for example, an authentication
// check) returns an Either so that callers further out can still see which
// branch produced the response and with what type.
package pipeline

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Service handles one request and produces a response of type R. An error is
// a fault in the service itself, not an unsuccessful response.
type Service[R any] interface {
	Call(r *http.Request) (R, error)
}

// ServiceFunc adapts a function to a Service.
type ServiceFunc[R any] func(r *http.Request) (R, error)

func (f ServiceFunc[R]) Call(r *http.Request) (R, error) {
	return f(r)
}

// Either holds exactly one of a downstream response of type D or a locally
// produced response of type L. The zero value is an empty downstream
// response.
type Either[D, L any] struct {
	downstream D
	local      L
	isLocal    bool
}

// Downstream wraps a response produced by the next stage.
func Downstream[D, L any](d D) Either[D, L] {
	return Either[D, L]{downstream: d}
}

// Local wraps a response produced by the current stage without calling the
// next one.
func Local[D, L any](l L) Either[D, L] {
	return Either[D, L]{local: l, isLocal: true}
}

func (e Either[D, L]) IsLocal() bool {
	return e.isLocal
}

func (e Either[D, L]) Downstream() (D, bool) {
	return e.downstream, !e.isLocal
}

func (e Either[D, L]) Local() (L, bool) {
	return e.local, e.isLocal
}

// Fold reduces e to a single value using the function for the branch it holds.
func Fold[D, L, R any](e Either[D, L], downstream func(D) R, local func(L) R) R {
	if e.isLocal {
		return local(e.local)
	}
	return downstream(e.downstream)
}

// Writer is a response that can render itself onto the wire.
type Writer interface {
	Write(w http.ResponseWriter) error
}

// Handler adapts a pipeline whose branches are both writable to an
// http.Handler. A fault returned by the service is logged and reported to the
// client as a 500 without detail.
func Handler[D, L Writer](svc Service[Either[D, L]]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Call(r)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var writer Writer
		if l, ok := res.Local(); ok {
			writer = l
		} else {
			d, _ := res.Downstream()
			writer = d
		}

		if err := writer.Write(w); err != nil {
			// the status has likely been sent: nothing useful can be returned
			zerolog.Ctx(r.Context()).Info().Err(err).Msg("failed to write response")
		}
	})
}

// Inspect returns a stage that passes requests to next and reports each
// result to fn before returning it unchanged. Faults are returned without
// calling fn.
func Inspect[D, L any](next Service[Either[D, L]], fn func(r *http.Request, res Either[D, L])) Service[Either[D, L]] {
	return ServiceFunc[Either[D, L]](func(r *http.Request) (Either[D, L], error) {
		res, err := next.Call(r)
		if err != nil {
			return res, err
		}

		fn(r, res)

		return res, nil
	})
}
