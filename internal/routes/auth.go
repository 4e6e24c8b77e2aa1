package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/auth"
	"github.com/superior-pamerca/admin-api/internal/models"
)

// AuthHandler handles the login, logout and session endpoints
type AuthHandler struct {
	users    *auth.UserStore
	guard    *auth.Guard
	audit    *auditlog.Logger
	tokenTTL time.Duration
	logger   *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *auth.UserStore, guard *auth.Guard, audit *auditlog.Logger, tokenTTL time.Duration, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		guard:    guard,
		audit:    audit,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Login authenticates the credentials and sets the session cookie
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Formato de solicitud inválido",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email y contraseña son requeridos",
		})
	}

	user := h.users.Authenticate(req.Email, req.Password)
	if user == nil {
		h.logger.WithField("email", req.Email).Warn("Login rejected, invalid credentials")
		h.audit.Log(auditlog.LevelWarning, "login_fallido", "Credenciales inválidas para "+req.Email, nil, "")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Credenciales inválidas",
		})
	}

	tok, err := h.guard.IssueToken(user, h.tokenTTL)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error interno del servidor",
		})
	}

	h.guard.SetSessionCookie(c, tok)

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User logged in")
	h.audit.Info("login", "Inicio de sesión: "+user.Email, nil, user.Email)

	return c.JSON(models.LoginResponse{Success: true, User: *user})
}

// Logout clears the session cookie. It succeeds even without a session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if user := h.guard.CurrentUser(c); user != nil {
		h.audit.Info("logout", "Cierre de sesión: "+user.Email, nil, user.Email)
	}

	h.guard.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the current session's user, 401 when there is none
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := h.guard.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "No autenticado",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
