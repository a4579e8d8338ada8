package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthChecks(t *testing.T) {
	env := newTestEnv(t, "")

	resp := env.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", decode[map[string]any](t, resp)["status"])

	resp = env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Status  string            `json:"status"`
		Modules []string          `json:"modules"`
		Checks  map[string]string `json:"checks"`
	}](t, resp)
	assert.Equal(t, moduleNames, body.Modules)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "healthy", body.Checks["redis"])

	t.Run("redis missing", func(t *testing.T) {
		env.srv.redis = nil
		resp := env.do(t, http.MethodGet, "/health/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestServer_DisabledModuleIsNotMounted(t *testing.T) {
	env := newTestEnv(t, "payments=off")
	_, token := env.user(t, "user@example.com", false)

	resp := env.do(t, http.MethodGet, "/modules/payments/get_subscription_plans", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/modules/camera/user_wall", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "other modules stay mounted")
}

func TestServer_PercentageRollout(t *testing.T) {
	env := newTestEnv(t, "social-feed=50%")
	// Users 1 and 2 hash to buckets 84 and 41.
	outside, outsideToken := env.user(t, "outside@example.com", false)
	inside, insideToken := env.user(t, "inside@example.com", false)
	require.Equal(t, uint(1), outside.ID)
	require.Equal(t, uint(2), inside.ID)

	resp := env.do(t, http.MethodGet, "/modules/social-feed/posts", outsideToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/modules/social-feed/posts", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "anonymous callers are outside every rollout")

	resp = env.do(t, http.MethodGet, "/modules/social-feed/posts", insideToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_FeatureFlagsEndpoint(t *testing.T) {
	env := newTestEnv(t, "payments=off,camera=on")
	_, token := env.user(t, "user@example.com", false)
	_, adminToken := env.user(t, "admin@example.com", true)

	resp := env.do(t, http.MethodGet, "/api/admin/feature-flags", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/feature-flags", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
		Mounted   map[string]bool   `json:"mounted"`
		Rollouts  []string          `json:"rollouts"`
	}](t, resp)
	assert.Equal(t, "off", body.Raw["payments"])
	assert.True(t, body.Evaluated["camera"])
	assert.False(t, body.Mounted[ModulePayments])
	assert.True(t, body.Mounted[ModuleSocialFeed])
	assert.Len(t, body.Mounted, len(moduleNames))
	assert.Empty(t, body.Rollouts)
}
