package pipeline_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamestelfer/bearer-guard/internal/pipeline"
	"github.com/jamestelfer/bearer-guard/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teapot struct{}

func (teapot) Write(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusTeapot)
	return nil
}

func TestEither(t *testing.T) {
	t.Run("downstream", func(t *testing.T) {
		e := pipeline.Downstream[string, int]("body")

		assert.False(t, e.IsLocal())

		d, ok := e.Downstream()
		assert.True(t, ok)
		assert.Equal(t, "body", d)

		_, ok = e.Local()
		assert.False(t, ok)
	})

	t.Run("local", func(t *testing.T) {
		e := pipeline.Local[string, int](400)

		assert.True(t, e.IsLocal())

		l, ok := e.Local()
		assert.True(t, ok)
		assert.Equal(t, 400, l)

		_, ok = e.Downstream()
		assert.False(t, ok)
	})

	t.Run("zero value is downstream", func(t *testing.T) {
		var e pipeline.Either[string, int]
		assert.False(t, e.IsLocal())
	})
}

func TestFold(t *testing.T) {
	describe := func(e pipeline.Either[string, int]) string {
		return pipeline.Fold(e,
			func(d string) string { return "downstream:" + d },
			func(l int) string { return "local" },
		)
	}

	assert.Equal(t, "downstream:ok", describe(pipeline.Downstream[string, int]("ok")))
	assert.Equal(t, "local", describe(pipeline.Local[string, int](1)))
}

func TestHandler(t *testing.T) {
	type result = pipeline.Either[pipeline.Response, teapot]

	t.Run("writes downstream branch", func(t *testing.T) {
		svc := pipeline.ServiceFunc[result](func(r *http.Request) (result, error) {
			return pipeline.Downstream[pipeline.Response, teapot](pipeline.Text(http.StatusCreated, "made")), nil
		})

		w := httptest.NewRecorder()
		pipeline.Handler[pipeline.Response, teapot](svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "made", w.Body.String())
	})

	t.Run("writes local branch", func(t *testing.T) {
		svc := pipeline.ServiceFunc[result](func(r *http.Request) (result, error) {
			return pipeline.Local[pipeline.Response](teapot{}), nil
		})

		w := httptest.NewRecorder()
		pipeline.Handler[pipeline.Response, teapot](svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("fault is a 500 without detail", func(t *testing.T) {
		testhelpers.SetupLogger(t)

		svc := pipeline.ServiceFunc[result](func(r *http.Request) (result, error) {
			return result{}, errors.New("secret internal detail")
		})

		w := httptest.NewRecorder()
		pipeline.Handler[pipeline.Response, teapot](svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal Server Error\n", w.Body.String())
	})
}

func TestInspect(t *testing.T) {
	type result = pipeline.Either[string, int]

	t.Run("observes result", func(t *testing.T) {
		var seen []result
		next := pipeline.ServiceFunc[result](func(r *http.Request) (result, error) {
			return pipeline.Local[string](7), nil
		})

		svc := pipeline.Inspect[string, int](next, func(r *http.Request, res result) {
			seen = append(seen, res)
		})

		res, err := svc.Call(httptest.NewRequest(http.MethodGet, "/", nil))

		require.NoError(t, err)
		assert.Equal(t, pipeline.Local[string](7), res)
		assert.Equal(t, []result{pipeline.Local[string](7)}, seen)
	})

	t.Run("faults pass through", func(t *testing.T) {
		expected := errors.New("downstream failed")
		called := false
		next := pipeline.ServiceFunc[result](func(r *http.Request) (result, error) {
			return result{}, expected
		})

		svc := pipeline.Inspect[string, int](next, func(*http.Request, result) { called = true })

		_, err := svc.Call(httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Same(t, expected, err)
		assert.False(t, called)
	})
}

func TestResponse_Write(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := pipeline.Text(http.StatusBadRequest, "nope").Write(w)

		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "nope", w.Body.String())
	})

	t.Run("json", func(t *testing.T) {
		res, err := pipeline.JSON(http.StatusOK, map[string]string{"user_id": "42"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		require.NoError(t, res.Write(w))

		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"user_id":"42"}`, w.Body.String())
	})

	t.Run("json marshal failure", func(t *testing.T) {
		_, err := pipeline.JSON(http.StatusOK, make(chan int))
		assert.ErrorContains(t, err, "failed to marshal response body")
	})

	t.Run("zero status", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, pipeline.Response{}.Write(w))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})
}
