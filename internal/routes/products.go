package routes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/auth"
	"github.com/superior-pamerca/admin-api/internal/images"
	"github.com/superior-pamerca/admin-api/internal/models"
	"github.com/superior-pamerca/admin-api/internal/store"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// ProductHandler handles the product CRUD endpoints
type ProductHandler struct {
	store      *store.ContentStore
	images     *images.Ingest
	audit      *auditlog.Logger
	collection string
	logger     *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(st *store.ContentStore, img *images.Ingest, audit *auditlog.Logger, collection string, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		store:      st,
		images:     img,
		audit:      audit,
		collection: collection,
		logger:     logger,
	}
}

// List returns every product in the collection
func (h *ProductHandler) List(c *fiber.Ctx) error {
	entities, err := h.store.List(h.collection)
	if err != nil {
		h.audit.Error("api_productos_get", "Error al obtener productos: "+err.Error(), nil, auditUser(c))
		return err
	}

	return c.JSON(fiber.Map{"productos": entities})
}

// Get returns one product by ID, 404 when absent
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	entity, err := h.store.Get(h.collection, id)
	if err != nil {
		return err
	}
	if entity == nil {
		return apperrors.Newf(apperrors.CodeNotFound, nil, "producto %s no encontrado", id)
	}

	return c.JSON(fiber.Map{"producto": entity})
}

// Create validates the payload and writes a new product. The ID comes
// from the payload or is derived from the current time.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req models.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.New(apperrors.CodeValidation, "Cuerpo de solicitud inválido", err)
	}

	if req.Nombre == "" || req.Precio == nil {
		return apperrors.New(apperrors.CodeValidation, "Faltan campos requeridos (nombre, precio)", nil)
	}

	id := req.ID
	if id == "" {
		id = "producto-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
	}

	product := productFromRequest(id, &req)

	entity, err := h.store.Create(h.collection, id, product)
	if err != nil {
		h.audit.Error("api_productos_post", "Error al crear producto: "+err.Error(), nil, auditUser(c))
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"id":     id,
		"nombre": product.Nombre,
	}).Info("Product created")
	h.audit.Info("producto_creado", fmt.Sprintf("Producto creado: %s (%s)", product.Nombre, id), nil, auditUser(c))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"producto": entity,
	})
}

// Update merges the payload over the stored product and overwrites it.
// Absent payload fields keep their stored values.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	existing, err := h.store.Get(h.collection, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.Newf(apperrors.CodeNotFound, nil, "producto %s no encontrado", id)
	}

	var req models.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.New(apperrors.CodeValidation, "Cuerpo de solicitud inválido", err)
	}

	var product models.Product
	if err := json.Unmarshal(existing.Data, &product); err != nil {
		return apperrors.Newf(apperrors.CodeInternalError, err, "producto %s almacenado es ilegible", id)
	}

	mergeRequest(&product, &req)
	product.ID = id

	entity, err := h.store.Update(h.collection, id, product)
	if err != nil {
		h.audit.Error("api_producto_put", fmt.Sprintf("Error al actualizar producto %s: %v", id, err), nil, auditUser(c))
		return err
	}

	h.audit.Info("producto_actualizado", fmt.Sprintf("Producto actualizado: %s (%s)", product.Nombre, id), nil, auditUser(c))

	return c.JSON(fiber.Map{
		"success":  true,
		"producto": entity,
	})
}

// Delete removes a product and its uploaded images
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	existing, err := h.store.Get(h.collection, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.Newf(apperrors.CodeNotFound, nil, "producto %s no encontrado", id)
	}

	if err := h.store.Remove(h.collection, id); err != nil {
		h.audit.Error("api_producto_delete", fmt.Sprintf("Error al eliminar producto %s: %v", id, err), nil, auditUser(c))
		return err
	}

	imgResult := h.images.RemoveAll(id)
	if len(imgResult.Errors) > 0 {
		h.logger.WithField("id", id).WithField("errors", imgResult.Errors).Warn("Some product images could not be deleted")
	}

	h.audit.Info("producto_eliminado", "Producto eliminado: "+id, nil, auditUser(c))

	return c.JSON(fiber.Map{"success": true})
}

// productFromRequest builds a full product from a create payload,
// applying the original defaults for absent fields.
func productFromRequest(id string, req *models.ProductRequest) models.Product {
	product := models.Product{
		ID:              id,
		Nombre:          req.Nombre,
		Precio:          *req.Precio,
		Categorias:      req.Categorias,
		Caracteristicas: req.Caracteristicas,
		Imagenes:        req.Images(),
	}
	if req.Descripcion != nil {
		product.Descripcion = *req.Descripcion
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Destacado != nil {
		product.Destacado = *req.Destacado
	}
	return product
}

// mergeRequest applies the present payload fields over the stored product
func mergeRequest(product *models.Product, req *models.ProductRequest) {
	if req.Nombre != "" {
		product.Nombre = req.Nombre
	}
	if req.Precio != nil {
		product.Precio = *req.Precio
	}
	if req.Descripcion != nil {
		product.Descripcion = *req.Descripcion
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Categorias != nil {
		product.Categorias = req.Categorias
	}
	if req.Caracteristicas != nil {
		product.Caracteristicas = req.Caracteristicas
	}
	if req.Destacado != nil {
		product.Destacado = *req.Destacado
	}
	if req.Imagenes != nil {
		product.Imagenes = req.Images()
	}
}

// auditUser returns the session user's email for audit attribution
func auditUser(c *fiber.Ctx) string {
	if user := auth.UserFromContext(c); user != nil {
		return user.Email
	}
	return ""
}
