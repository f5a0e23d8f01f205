package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func mintToken(t *testing.T, secret, sub, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": time.Now().Add(ttl).Unix()}
	if sub != "" {
		claims["sub"] = sub
	}
	if role != "" {
		claims["role"] = role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestBearerAuthentication(t *testing.T) {
	f := newAPIFixture()
	defer f.close()

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{
			name:   "valid token",
			bearer: mintToken(t, jwtSecret, "u1", "", time.Hour),
			want:   http.StatusCreated,
		},
		{
			name:   "admin token",
			bearer: mintToken(t, jwtSecret, "root", "admin", time.Hour),
			want:   http.StatusCreated,
		},
		{
			name: "no token",
			want: http.StatusUnauthorized,
		},
		{
			name:   "expired token",
			bearer: mintToken(t, jwtSecret, "u1", "", -time.Hour),
			want:   http.StatusUnauthorized,
		},
		{
			name:   "wrong secret",
			bearer: mintToken(t, "other-secret", "u1", "", time.Hour),
			want:   http.StatusUnauthorized,
		},
		{
			name:   "missing subject",
			bearer: mintToken(t, jwtSecret, "", "", time.Hour),
			want:   http.StatusUnauthorized,
		},
		{
			name: "unsigned algorithm",
			bearer: func() string {
				tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
					"sub": "u1", "exp": time.Now().Add(time.Hour).Unix(),
				})
				signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return signed
			}(),
			want: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/scoreboards",
				jsonBody(t, map[string]string{"title": "Board " + tc.name}))
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAnonymousReadsPass(t *testing.T) {
	f := newAPIFixture()
	defer f.close()

	req := httptest.NewRequest(http.MethodGet, "/api/scoreboards", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	f := newAPIFixture()
	defer f.close()

	req := httptest.NewRequest(http.MethodGet, "/api/scoreboards", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
