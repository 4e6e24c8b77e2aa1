package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productPayload(id string) fiber.Map {
	return fiber.Map{
		"id":          id,
		"nombre":      "Interruptor termomagnético",
		"precio":      35.90,
		"descripcion": "Interruptor de dos polos para tableros residenciales",
		"stock":       40,
		"categorias":  []string{"electricidad"},
		"imagenes":    []string{"/uploads/productos/" + id + "/frontal.jpg"},
	}
}

func TestProducts_RequireSession(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/productos", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_CRUDFlow(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	// create
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", productPayload("producto-7"), cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	// read back
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/productos/producto-7", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body = decodeBody(t, resp)
	producto := body["producto"].(map[string]interface{})
	data := producto["data"].(map[string]interface{})
	assert.Equal(t, "Interruptor termomagnético", data["nombre"])
	assert.Equal(t, 35.90, data["precio"])

	// list
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/productos", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body = decodeBody(t, resp)
	assert.Len(t, body["productos"], 1)

	// partial update keeps unsent fields
	resp, err = env.app.Test(jsonRequest(t, http.MethodPut, "/api/productos/producto-7",
		fiber.Map{"precio": 42.00}, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/productos/producto-7", nil, cookie))
	require.NoError(t, err)
	body = decodeBody(t, resp)
	data = body["producto"].(map[string]interface{})["data"].(map[string]interface{})
	assert.Equal(t, 42.00, data["precio"])
	assert.Equal(t, "Interruptor termomagnético", data["nombre"])
	assert.Equal(t, float64(40), data["stock"])

	// delete
	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/api/productos/producto-7", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/productos/producto-7", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_CreateGeneratesID(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	payload := productPayload("")
	delete(payload, "id")

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", payload, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	producto := body["producto"].(map[string]interface{})
	assert.Contains(t, producto["id"], "producto-")
}

func TestProducts_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos",
		fiber.Map{"descripcion": "sin nombre ni precio"}, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducts_CreateDuplicateConflicts(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", productPayload("producto-7"), cookie))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", productPayload("producto-7"), cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProducts_UpdateMissingIs404(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPut, "/api/productos/ausente",
		fiber.Map{"precio": 10.0}, env.adminCookie(t)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_DeleteRemovesImages(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", productPayload("producto-9"), cookie))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	imgDir := filepath.Join(env.uploadsDir, "productos", "producto-9")
	require.NoError(t, os.MkdirAll(imgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(imgDir, "frontal.jpg"), []byte("img"), 0o644))

	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/api/productos/producto-9", nil, cookie))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = os.Stat(imgDir)
	assert.True(t, os.IsNotExist(err))
}

func TestProducts_LegacyStringImagesAreNormalized(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	payload := productPayload("producto-10")
	payload["imagenes"] = []interface{}{
		"https://cdn.superiorpamerca.com/externa.jpg",
		fiber.Map{"url": "/uploads/productos/producto-10/local.jpg", "principal": true},
	}

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/productos", payload, cookie))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/productos/producto-10", nil, cookie))
	require.NoError(t, err)
	body := decodeBody(t, resp)
	data := body["producto"].(map[string]interface{})["data"].(map[string]interface{})
	imagenes := data["imagenes"].([]interface{})
	require.Len(t, imagenes, 2)

	first := imagenes[0].(map[string]interface{})
	assert.Equal(t, "url", first["tipo"])
	second := imagenes[1].(map[string]interface{})
	assert.Equal(t, "local", second["tipo"])
	assert.Equal(t, true, second["principal"])
}
