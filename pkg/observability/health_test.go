package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealth(t *testing.T) (*HealthChecker, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	checker := NewHealthChecker(rdb)

	return checker, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestLivenessAlwaysHealthy(t *testing.T) {
	checker, mr, cleanup := setupHealth(t)
	defer cleanup()

	mr.Close() // liveness must not depend on Redis

	rr := httptest.NewRecorder()
	checker.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReadinessHealthy(t *testing.T) {
	checker, _, cleanup := setupHealth(t)
	defer cleanup()

	rr := httptest.NewRecorder()
	checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, StatusHealthy, status.Dependencies["redis"].Status)
}

func TestReadinessDegradedOnRedisOutage(t *testing.T) {
	checker, mr, cleanup := setupHealth(t)
	defer cleanup()

	mr.Close()

	rr := httptest.NewRecorder()
	checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	// Degraded still serves traffic: the verifier falls back upstream and
	// the limiter fails open, so readiness stays 200
	require.Equal(t, http.StatusOK, rr.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, StatusUnhealthy, status.Dependencies["redis"].Status)
}

func TestRegisterHealthRoutes(t *testing.T) {
	checker, _, cleanup := setupHealth(t)
	defer cleanup()

	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, checker)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}
