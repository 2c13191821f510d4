package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/jamestelfer/bearer-guard/internal/audit"
	"github.com/jamestelfer/bearer-guard/internal/config"
	"github.com/jamestelfer/bearer-guard/internal/jwt"
	"github.com/jamestelfer/bearer-guard/internal/testhelpers"
	"github.com/jamestelfer/bearer-guard/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

func TestHandleWhoAmI_RequiresClaims(t *testing.T) {
	req, err := http.NewRequest("GET", "/whoami", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	handleWhoAmI().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleWhoAmI_ReturnsUserID(t *testing.T) {
	ctx, entry := audit.Context(context.Background())
	ctx = jwt.ContextWithClaims(ctx, Claims{UserID: "42"})

	req, err := http.NewRequest("GET", "/whoami", nil)
	require.NoError(t, err)
	req = req.WithContext(ctx)
	rr := httptest.NewRecorder()

	handleWhoAmI().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "42", rr.Body.String())
	assert.Equal(t, "42", entry.Principal)
}

func TestClaimsService(t *testing.T) {
	req := httptest.NewRequest("GET", "/claims", nil)

	res, err := claimsService().Call(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	req = req.WithContext(jwt.ContextWithClaims(req.Context(), Claims{UserID: "42"}))

	res, err = claimsService().Call(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `{"user_id":"42"}`, string(res.Body))
}

func TestMaxRequestSize(t *testing.T) {
	var readErr error
	handler := maxRequestSize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, readErr = r.Body.Read(buf)
	}))

	req := httptest.NewRequest("POST", "/", strings.NewReader("more than four bytes"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxBytesErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxBytesErr)
}

func TestConfigureServerRoutes(t *testing.T) {
	testhelpers.SetupLogger(t)

	cfg := config.Config{
		Authorization: config.AuthorizationConfig{
			HMACSecret:    testSecret,
			Algorithms:    []string{"HS256"},
			LeewaySeconds: 60,
			RequireExpiry: true,
		},
	}

	handler, err := configureServerRoutes(context.Background(), cfg)
	require.NoError(t, err)

	valid := "Bearer " + signToken(t, testSecret)
	invalid := "Bearer " + signToken(t, "wrong-secret")

	testCases := []struct {
		name         string
		path         string
		header       string
		expectedCode int
		expectedBody string
	}{
		{name: "whoami accepted", path: "/whoami", header: valid, expectedCode: http.StatusOK, expectedBody: "42"},
		{name: "whoami wrong secret", path: "/whoami", header: invalid, expectedCode: http.StatusBadRequest, expectedBody: "Invalid JWT token"},
		{name: "whoami no header", path: "/whoami", expectedCode: http.StatusUnauthorized, expectedBody: "Unauthorized"},
		{name: "whoami not bearer", path: "/whoami", header: "Basic Zm9vOmJhcg==", expectedCode: http.StatusBadRequest, expectedBody: "Invalid authorization header"},
		{name: "claims accepted", path: "/claims", header: valid, expectedCode: http.StatusOK, expectedBody: `{"user_id":"42"}`},
		{name: "claims wrong secret", path: "/claims", header: invalid, expectedCode: http.StatusBadRequest, expectedBody: "Invalid JWT token"},
		{name: "claims no header", path: "/claims", expectedCode: http.StatusUnauthorized, expectedBody: "Unauthorized"},
		{name: "healthcheck", path: "/healthcheck", header: invalid, expectedCode: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.expectedBody)
		})
	}
}

func TestConfigureServerRoutes_KeyRequired(t *testing.T) {
	_, err := configureServerRoutes(context.Background(), config.Config{})

	assert.ErrorContains(t, err, "verification key configuration failed")
}

func signToken(t *testing.T, secret string) string {
	t.Helper()

	compact, err := token.Sign("HS256", "", []byte(secret), gojwt.MapClaims{
		"user_id": "42",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	return compact
}
