package main

import (
	"net/http"

	"github.com/jamestelfer/bearer-guard/internal/audit"
	"github.com/jamestelfer/bearer-guard/internal/jwt"
	"github.com/jamestelfer/bearer-guard/internal/pipeline"
	"github.com/rs/zerolog/log"
)

// Claims is the application payload carried by tokens accepted by this
// server.
type Claims struct {
	UserID string `json:"user_id"`
}

// handleWhoAmI responds with the user ID of the authenticated caller.
func handleWhoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the middleware forwards requests without an Authorization header
		claims, ok := jwt.ClaimsFromContext[Claims](r.Context())
		if !ok {
			requestError(w, http.StatusUnauthorized)
			return
		}

		audit.Log(r.Context()).Principal = claims.UserID

		err := pipeline.Text(http.StatusOK, claims.UserID).Write(w)
		if err != nil {
			// record failure to log: trying to respond to the client at this
			// point will likely fail
			log.Info().Msgf("failed to write response: %v\n", err)
		}
	})
}

// claimsService returns the decoded claims of the caller as JSON.
func claimsService() pipeline.Service[pipeline.Response] {
	return pipeline.ServiceFunc[pipeline.Response](func(r *http.Request) (pipeline.Response, error) {
		claims, ok := jwt.ClaimsFromContext[Claims](r.Context())
		if !ok {
			return pipeline.Text(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)), nil
		}

		audit.Log(r.Context()).Principal = claims.UserID

		return pipeline.JSON(http.StatusOK, claims)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// maxRequestSize limits the size of the request body that will be read.
func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func requestError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}
