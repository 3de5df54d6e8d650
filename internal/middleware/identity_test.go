package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/parking-management/internal/config"
)

func newEchoContext(t *testing.T) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/lots", nil)
    return e.NewContext(req, httptest.NewRecorder())
}

func TestUserIDReadsJWTAuthContextValue(t *testing.T) {
    // JWTAuth stores the raw sub claim, which the JWT library decodes
    // as float64 for numeric subjects.
    c := newEchoContext(t)
    c.Set("user_id", float64(42))
    assert.Equal(t, "42", userID(c))

    c = newEchoContext(t)
    c.Set("user_id", uint64(7))
    assert.Equal(t, "7", userID(c))

    c = newEchoContext(t)
    c.Set("user_id", "9")
    assert.Equal(t, "9", userID(c))
}

func TestUserIDAnonymousIsGuest(t *testing.T) {
    c := newEchoContext(t)
    assert.Equal(t, "guest", userID(c))
}

func TestBuildRateKeyUsesAuthenticatedUser(t *testing.T) {
    cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}

    c := newEchoContext(t)
    c.Set("user_id", float64(42))
    assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))

    // Anonymous requests all share the guest bucket.
    c = newEchoContext(t)
    assert.Equal(t, "rl:user:guest", buildRateKey(cfg, c))
}
