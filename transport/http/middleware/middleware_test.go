package middleware_test

import (
	"errors"
	"messbook/config"
	"messbook/infras/jwt"
	jwtMocks "messbook/infras/jwt/mocks"
	otelMocks "messbook/infras/otel/mocks"
	"messbook/permissions"
	cacheMocks "messbook/shared/cache/mocks"
	"messbook/transport/http/middleware"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

// principalEcho answers 200 with the caller's id, or 204 when the request is anonymous.
func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := permissions.PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(principal.UserID + "|" + principal.Role.String()))
	})
}

func newAuthRole(t *testing.T, cfg *config.Config) (middleware.AuthRole, *jwtMocks.MockJWT) {
	t.Helper()

	ctrl := gomock.NewController(t)
	jwtService := jwtMocks.NewMockJWT(ctrl)

	return middleware.NewAuthRoleMiddleware(jwtService, otelMocks.NewOtel(), permissions.Get(), cfg), jwtService
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		header       string
		setup        func(jwtService *jwtMocks.MockJWT)
		expectedCode int
		expectedBody string
	}{
		{
			name:         "public route skips token check",
			method:       http.MethodPost,
			path:         "/v1/bookings/webhook",
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "missing header",
			method:       http.MethodGet,
			path:         "/v1/bookings/history",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "malformed header",
			method:       http.MethodGet,
			path:         "/v1/bookings/history",
			header:       "Token abc",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:   "expired token",
			method: http.MethodGet,
			path:   "/v1/bookings/history",
			header: "Bearer expired",
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken("expired", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:   "unknown role in claims",
			method: http.MethodGet,
			path:   "/v1/bookings/history",
			header: "Bearer tampered",
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken("tampered", jwt.AccessToken).
					Return(&jwt.Claims{UserID: "u-1", Role: "superuser"}, nil)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:   "valid token builds principal",
			method: http.MethodGet,
			path:   "/v1/bookings/history",
			header: "Bearer good",
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken("good", jwt.AccessToken).
					Return(&jwt.Claims{UserID: "u-1", Email: "rafi@example.com", Role: "user"}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: "u-1|user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authRole, jwtService := newAuthRole(t, &config.Config{})
			if tt.setup != nil {
				tt.setup(jwtService)
			}

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			authRole.Auth(principalEcho()).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)

			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestRBAC(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		role         permissions.Role
		expectedCode int
	}{
		{name: "admin lists users", method: http.MethodGet, path: "/v1/users", role: permissions.RoleAdmin, expectedCode: http.StatusOK},
		{name: "student cannot list users", method: http.MethodGet, path: "/v1/users", role: permissions.RoleUser, expectedCode: http.StatusForbidden},
		{name: "student cannot create listing", method: http.MethodPost, path: "/v1/listings", role: permissions.RoleUser, expectedCode: http.StatusForbidden},
		{name: "owner creates listing", method: http.MethodPost, path: "/v1/listings", role: permissions.RoleOwner, expectedCode: http.StatusOK},
		{name: "student cancels booking", method: http.MethodPatch, path: "/v1/bookings/9c1d/cancel", role: permissions.RoleUser, expectedCode: http.StatusOK},
		{name: "public route", method: http.MethodGet, path: "/v1/listings/9c1d/seats", expectedCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authRole, _ := newAuthRole(t, &config.Config{})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req = req.WithContext(permissions.WithPrincipal(req.Context(), permissions.Principal{UserID: "u-1", Role: tt.role}))
			}

			rec := httptest.NewRecorder()
			authRole.RBAC(principalEcho()).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestAPIKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.APIKey = "internal-secret"

	chain := func(authRole middleware.AuthRole) http.Handler {
		return authRole.APIKey(authRole.Auth(authRole.RBAC(principalEcho())))
	}

	t.Run("valid key acts as admin without a token", func(t *testing.T) {
		authRole, _ := newAuthRole(t, cfg)

		req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
		req.Header.Set("X-API-Key", "internal-secret")

		rec := httptest.NewRecorder()
		chain(authRole).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "internal|admin", rec.Body.String())
	})

	t.Run("wrong key is forbidden", func(t *testing.T) {
		authRole, _ := newAuthRole(t, cfg)

		req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
		req.Header.Set("X-API-Key", "guess")

		rec := httptest.NewRecorder()
		chain(authRole).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no key falls through to token auth", func(t *testing.T) {
		authRole, _ := newAuthRole(t, cfg)

		rec := httptest.NewRecorder()
		chain(authRole).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	newLimiter := func(t *testing.T, enable bool) (func(http.Handler) http.Handler, *cacheMocks.MockRedisCache) {
		t.Helper()

		cfg := &config.Config{}
		cfg.App.RateLimiter.Enable = enable
		cfg.App.RateLimiter.MaxRequests = 2
		cfg.App.RateLimiter.WindowSeconds = 60

		redisCache := cacheMocks.NewMockRedisCache(gomock.NewController(t))

		return middleware.NewAppMiddleware(otelMocks.NewOtel(), cfg, redisCache).RateLimit(), redisCache
	}

	t.Run("keyed by forwarded client and user agent", func(t *testing.T) {
		limiter, redisCache := newLimiter(t, true)
		redisCache.EXPECT().Increment(gomock.Any(), "limiter:203.0.113.7:unknown", 60).Return(int64(1), nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/listings", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

		rec := httptest.NewRecorder()
		limiter(principalEcho()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("over the limit", func(t *testing.T) {
		limiter, redisCache := newLimiter(t, true)
		redisCache.EXPECT().Increment(gomock.Any(), gomock.Any(), 60).Return(int64(3), nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/listings", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		rec := httptest.NewRecorder()
		limiter(principalEcho()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("cache failure lets the request through", func(t *testing.T) {
		limiter, redisCache := newLimiter(t, true)
		redisCache.EXPECT().Increment(gomock.Any(), gomock.Any(), 60).Return(int64(0), errors.New("redis down"))

		rec := httptest.NewRecorder()
		limiter(principalEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/listings", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		limiter, _ := newLimiter(t, false)

		rec := httptest.NewRecorder()
		limiter(principalEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/listings", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestTracing_PassesThrough(t *testing.T) {
	app := middleware.NewAppMiddleware(otelMocks.NewOtel(), &config.Config{}, nil)

	rec := httptest.NewRecorder()
	app.Tracing(principalEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
