package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/cleanup"
	"github.com/superior-pamerca/admin-api/internal/linkmon"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// AdminHandler handles the maintenance endpoints
type AdminHandler struct {
	cleanup *cleanup.Service
	monitor *linkmon.Monitor
	audit   *auditlog.Logger
	logger  *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cl *cleanup.Service, monitor *linkmon.Monitor, audit *auditlog.Logger, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		cleanup: cl,
		monitor: monitor,
		audit:   audit,
		logger:  logger,
	}
}

// IdentifyTestProducts lists products flagged by the test-data heuristics
func (h *AdminHandler) IdentifyTestProducts(c *fiber.Ctx) error {
	candidates, err := h.cleanup.Identify()
	if err != nil {
		h.audit.Error("api_cleanup_get", "Error al identificar productos de prueba: "+err.Error(), nil, auditUser(c))
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"testProducts": candidates,
		"count":        len(candidates),
	})
}

// cleanupRequest names the products to remove
type cleanupRequest struct {
	ProductIDs []string `json:"productIds"`
}

// RunCleanup backs up the collection and removes the given products
func (h *AdminHandler) RunCleanup(c *fiber.Ctx) error {
	var req cleanupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.New(apperrors.CodeValidation, "Cuerpo de solicitud inválido", err)
	}

	if len(req.ProductIDs) == 0 {
		return apperrors.New(apperrors.CodeValidation, "No se proporcionaron IDs de productos válidos", nil)
	}

	backupPath, err := h.cleanup.Backup()
	if err != nil {
		h.audit.Error("api_cleanup_post", "Error al crear backup: "+err.Error(), nil, auditUser(c))
		return err
	}

	result := h.cleanup.RemoveProducts(req.ProductIDs, auditUser(c))

	h.logger.WithFields(logrus.Fields{
		"removed": len(result.Removed),
		"errors":  len(result.Errors),
	}).Info("Cleanup run completed")

	return c.JSON(fiber.Map{
		"success":    true,
		"result":     result,
		"backupPath": backupPath,
	})
}

// BrokenLinks returns the link monitor's aggregated hits and raw events
func (h *AdminHandler) BrokenLinks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"summary": h.monitor.Summary(),
		"events":  h.monitor.Events(),
	})
}

// Logs reads audit entries back, either one day (?date=) or an
// inclusive range (?start=&end=). Defaults to today.
func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	date := c.Query("date")
	start := c.Query("start")
	end := c.Query("end")

	var entries []auditlog.Entry
	var err error

	switch {
	case start != "" && end != "":
		entries, err = h.audit.ReadRange(start, end)
	case date != "":
		entries, err = h.audit.ReadForDate(date)
	default:
		entries, err = h.audit.ReadForDate(time.Now().UTC().Format("2006-01-02"))
	}
	if err != nil {
		return apperrors.New(apperrors.CodeValidation, "Rango de fechas inválido", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"entries": entries,
		"count":   len(entries),
	})
}
