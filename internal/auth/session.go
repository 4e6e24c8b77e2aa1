package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/config"
	"github.com/superior-pamerca/admin-api/internal/models"
	"github.com/superior-pamerca/admin-api/internal/token"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// loginPath is exempt from the session check so the panel can always
// reach the login form.
const loginPath = "/admin/login"

// userLocalsKey stores the authenticated user on the request context
const userLocalsKey = "auth.user"

// Guard validates session cookies and exposes the request's user.
type Guard struct {
	cfg    config.AuthConfig
	env    string
	codec  token.Codec
	logger *logrus.Logger
}

// NewGuard creates a session guard over the configured token codec
func NewGuard(cfg *config.Config, codec token.Codec, logger *logrus.Logger) *Guard {
	return &Guard{
		cfg:    cfg.Auth,
		env:    cfg.Server.Environment,
		codec:  codec,
		logger: logger,
	}
}

// devBypassActive is only ever true outside production: the bypass flag
// is ignored unless the server runs in development mode.
func (g *Guard) devBypassActive() bool {
	return g.env == "development" && g.cfg.DevBypass
}

func devUser() *models.User {
	return &models.User{
		ID:    "dev",
		Email: "dev@superiorpamerca.com",
		Name:  "Modo Desarrollo",
		Role:  "admin",
	}
}

// CurrentUser resolves the user for a request, or nil when the session
// cookie is absent, malformed, tampered or expired.
func (g *Guard) CurrentUser(c *fiber.Ctx) *models.User {
	if g.devBypassActive() {
		return devUser()
	}

	raw := c.Cookies(g.cfg.CookieName)
	if raw == "" {
		return nil
	}

	claims := g.codec.Decode(raw)
	if claims == nil {
		return nil
	}
	return claims.User()
}

// IsAuthenticated reports whether the request carries a valid session
func (g *Guard) IsAuthenticated(c *fiber.Ctx) bool {
	return g.CurrentUser(c) != nil
}

// RequireAuth reports whether the request may proceed: the login page
// is always reachable, everything else needs a valid session.
func (g *Guard) RequireAuth(c *fiber.Ctx) bool {
	if c.Path() == loginPath {
		return true
	}
	return g.IsAuthenticated(c)
}

// IsAdmin reports whether the request's user has the admin role
func (g *Guard) IsAdmin(c *fiber.Ctx) bool {
	user := g.CurrentUser(c)
	return user != nil && user.Role == "admin"
}

// RequireSession is the middleware for protected route groups. It
// resolves the session once and stashes the user in request locals.
func (g *Guard) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == loginPath {
			return c.Next()
		}

		user := g.CurrentUser(c)
		if user == nil {
			g.logger.WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("Rejected unauthenticated request")
			return apperrors.New(apperrors.CodeUnauthenticated, "Authentication required", nil)
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// RequireAdmin restricts a group to admin users. It must run after
// RequireSession.
func (g *Guard) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromContext(c)
		if user == nil || user.Role != "admin" {
			return apperrors.New(apperrors.CodeForbidden, "Admin role required", nil)
		}
		return c.Next()
	}
}

// UserFromContext returns the user stashed by RequireSession, or nil
func UserFromContext(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalsKey).(*models.User)
	return user
}

// IssueToken encodes a session token for the user
func (g *Guard) IssueToken(user *models.User, ttl time.Duration) (string, error) {
	return g.codec.Encode(user, ttl)
}

// SetSessionCookie attaches the session token to the response. The
// cookie mirrors the panel's original attributes: root path, HttpOnly,
// SameSite=Strict, lifetime equal to the token TTL.
func (g *Guard) SetSessionCookie(c *fiber.Ctx, tok string) {
	c.Cookie(&fiber.Cookie{
		Name:     g.cfg.CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(g.cfg.TokenTTL.Seconds()),
		HTTPOnly: true,
		Secure:   g.env == "production",
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie immediately
func (g *Guard) ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     g.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   g.env == "production",
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
