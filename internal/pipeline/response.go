package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
)

var _ Writer = Response{}

// Response is a fully materialized HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Text returns a plain text response.
func Text(status int, body string) Response {
	return Response{
		Status: status,
		Header: http.Header{
			"Content-Type":           []string{"text/plain; charset=utf-8"},
			"X-Content-Type-Options": []string{"nosniff"},
		},
		Body: []byte(body),
	}
}

// JSON returns a response with v marshalled as the body.
func JSON(status int, v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal response body: %w", err)
	}

	return Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, nil
}

// Write sends the response. A zero Status is sent as 200.
func (res Response) Write(w http.ResponseWriter) error {
	for name, values := range res.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(res.Body) == 0 {
		return nil
	}

	_, err := w.Write(res.Body)
	return err
}
