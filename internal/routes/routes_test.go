package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/auth"
	"github.com/superior-pamerca/admin-api/internal/cleanup"
	"github.com/superior-pamerca/admin-api/internal/config"
	"github.com/superior-pamerca/admin-api/internal/images"
	"github.com/superior-pamerca/admin-api/internal/linkmon"
	"github.com/superior-pamerca/admin-api/internal/models"
	"github.com/superior-pamerca/admin-api/internal/store"
	"github.com/superior-pamerca/admin-api/internal/token"
)

const (
	testAdminPassword  = "clave-admin"
	testEditorPassword = "clave-editor"
)

type testEnv struct {
	app        *fiber.App
	codec      token.Codec
	store      *store.ContentStore
	audit      *auditlog.Logger
	monitor    *linkmon.Monitor
	cfg        *config.Config
	uploadsDir string
	backupDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth: config.AuthConfig{
			Mode:       "signed",
			Secret:     "secreto-de-pruebas",
			CookieName: "auth_token",
			TokenTTL:   time.Hour,
		},
		Content: config.ContentConfig{Dir: t.TempDir(), Collection: "productos"},
		Uploads: config.UploadsConfig{
			Dir:           t.TempDir(),
			URLPrefix:     "/uploads",
			MaxSizeBytes:  10 * 1024 * 1024,
			MaxPerProduct: 5,
			AllowedExts:   ".jpg,.jpeg,.png,.gif,.webp",
			DefaultExt:    ".jpg",
			MaxNameLength: 50,
		},
		Audit: config.AuditConfig{Dir: t.TempDir(), RetentionDays: 30},
	}

	codec := token.NewSignedCodec(cfg.Auth.Secret)
	guard := auth.NewGuard(cfg, codec, logger)
	audit := auditlog.New(cfg.Audit.Dir, logger)
	st := store.New(cfg.Content.Dir, logger)
	img := images.New(&cfg.Uploads, logger, audit)
	backupDir := filepath.Join(t.TempDir(), "backups")
	cl := cleanup.New(st, img, audit, logger, cfg.Content.Collection, backupDir)
	monitor := linkmon.NewDefault(logger)

	adminHash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	editorHash, err := bcrypt.GenerateFromPassword([]byte(testEditorPassword), bcrypt.MinCost)
	require.NoError(t, err)

	users := auth.NewUserStoreWith([]models.Credential{
		{ID: "1", Email: "admin@superiorpamerca.com", Username: "admin", PasswordHash: string(adminHash), Name: "Administrador", Role: "admin"},
		{ID: "2", Email: "editor@superiorpamerca.com", Username: "editor", PasswordHash: string(editorHash), Name: "Editor", Role: "editor"},
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(false, logger),
	})

	Setup(app, cfg, logger, Dependencies{
		Store:   st,
		Images:  img,
		Audit:   audit,
		Users:   users,
		Guard:   guard,
		Cleanup: cl,
		Monitor: monitor,
	})

	return &testEnv{
		app:        app,
		codec:      codec,
		store:      st,
		audit:      audit,
		monitor:    monitor,
		cfg:        cfg,
		uploadsDir: cfg.Uploads.Dir,
		backupDir:  backupDir,
	}
}

func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	return e.cookieFor(t, &models.User{ID: "1", Email: "admin@superiorpamerca.com", Name: "Administrador", Role: "admin"})
}

func (e *testEnv) editorCookie(t *testing.T) *http.Cookie {
	t.Helper()
	return e.cookieFor(t, &models.User{ID: "2", Email: "editor@superiorpamerca.com", Name: "Editor", Role: "editor"})
}

func (e *testEnv) cookieFor(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	tok, err := e.codec.Encode(user, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: "auth_token", Value: tok}
}

func jsonRequest(t *testing.T, method, path string, payload interface{}, cookie *http.Cookie) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestNotFound_StaleAdminPathRedirects(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/admin/usuarios", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/productos", resp.Header.Get(fiber.HeaderLocation))

	events := env.monitor.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "/admin/usuarios", events[0].URL)
}

func TestNotFound_UnknownAdminPathGoesTo404Page(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/admin/inventado", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin/404", resp.Header.Get(fiber.HeaderLocation))
}

func TestNotFound_NonAdminPathIsPlainJSON(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/tienda/nada", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, env.monitor.Events())
}
