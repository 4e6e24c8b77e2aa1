package routes

import (
	"net/http"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSuspectProduct(t *testing.T, env *testEnv, id string) {
	t.Helper()

	payload := productPayload(id)
	payload["nombre"] = "Producto de prueba"
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", payload, env.adminCookie(t)))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/cleanup", nil, env.editorCookie(t)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/cleanup", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCleanupIdentify(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	seedSuspectProduct(t, env, "test-1")

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", productPayload("real-1"), cookie))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/cleanup", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["count"])

	candidates := body["testProducts"].([]interface{})
	require.Len(t, candidates, 1)
	first := candidates[0].(map[string]interface{})
	assert.Equal(t, "test-1", first["id"])
	assert.NotEmpty(t, first["reasons"])
}

func TestCleanupRun(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	seedSuspectProduct(t, env, "test-1")

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/cleanup",
		fiber.Map{"productIds": []string{"test-1", "ausente"}}, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, []interface{}{"test-1"}, result["removed"])
	assert.Len(t, result["errors"], 1)

	backupPath := body["backupPath"].(string)
	_, err = os.Stat(backupPath)
	assert.NoError(t, err, "backup file written before removal")

	// product is gone
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/productos/test-1", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCleanupRun_RequiresIDs(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/cleanup",
		fiber.Map{"productIds": []string{}}, env.adminCookie(t)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBrokenLinksEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// hit two stale admin paths
	for i := 0; i < 2; i++ {
		resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/admin/usuarios", nil, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusFound, resp.StatusCode)
	}

	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/broken-links", nil, env.adminCookie(t)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	summary := body["summary"].([]interface{})
	require.Len(t, summary, 1)
	first := summary[0].(map[string]interface{})
	assert.Equal(t, "/admin/usuarios", first["url"])
	assert.Equal(t, float64(2), first["count"])
	assert.Len(t, body["events"], 2)
}

func TestLogsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	env.audit.Info("producto_creado", "Producto creado: test", nil, "admin@superiorpamerca.com")
	env.audit.Info("login", "Inicio de sesión", nil, "admin@superiorpamerca.com")

	// default: today
	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/logs", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])

	// empty day
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/logs?date=2000-01-01", nil, cookie))
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(0), body["count"])

	// bad range
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/logs?start=no-es-fecha&end=2000-01-02", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// a date that is really a path must never reach the filesystem
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/logs?date=..%2Fsecret", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
