package routes

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/images"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// UploadHandler handles product image uploads
type UploadHandler struct {
	images        *images.Ingest
	audit         *auditlog.Logger
	maxPerRequest int
	logger        *logrus.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(img *images.Ingest, audit *auditlog.Logger, maxPerRequest int, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		images:        img,
		audit:         audit,
		maxPerRequest: maxPerRequest,
		logger:        logger,
	}
}

// fileResult is the per-file outcome of a multipart upload
type fileResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
	Size   int64  `json:"size"`
}

// Upload stores the multipart images[] files for one product. Each file
// succeeds or fails on its own: full success is 200, a mix is 207 and
// total failure is 500.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.New(apperrors.CodeValidation, "Solicitud multipart inválida", err)
	}

	productID := formValue(form, "productId")
	if productID == "" {
		return apperrors.New(apperrors.CodeValidation, "No se proporcionó ID de producto", nil)
	}

	files := form.File["images"]
	if len(files) == 0 {
		return apperrors.New(apperrors.CodeValidation, "No se proporcionaron imágenes", nil)
	}
	if len(files) > h.maxPerRequest {
		return apperrors.Newf(apperrors.CodeValidation, nil,
			"Se excedió el límite de imágenes. Máximo permitido: %d", h.maxPerRequest)
	}

	imageURLs := []string{}
	uploadErrors := []string{}
	details := make([]fileResult, 0, len(files))

	for _, file := range files {
		result := h.storeFile(file, productID)
		details = append(details, result)

		if result.Status == "success" {
			imageURLs = append(imageURLs, result.URL)
		} else {
			uploadErrors = append(uploadErrors, fmt.Sprintf("%s: %s", result.Name, result.Error))
		}
	}

	h.audit.Info("imagenes_subidas",
		fmt.Sprintf("%d imágenes subidas para el producto %s", len(imageURLs), productID), nil, auditUser(c))

	status := fiber.StatusOK
	state := "success"
	switch {
	case len(imageURLs) == 0:
		status = fiber.StatusInternalServerError
		state = "error"
	case len(uploadErrors) > 0:
		status = fiber.StatusMultiStatus
		state = "partial"
	}

	message := fmt.Sprintf("%d imágenes subidas correctamente", len(imageURLs))
	if len(uploadErrors) > 0 {
		message += fmt.Sprintf(" (con %d errores)", len(uploadErrors))
	}

	response := fiber.Map{
		"success":   len(imageURLs) > 0,
		"status":    state,
		"imageUrls": imageURLs,
		"details":   details,
		"summary": fiber.Map{
			"total":      len(files),
			"successful": len(imageURLs),
			"failed":     len(uploadErrors),
		},
		"message": message,
	}
	if len(uploadErrors) > 0 {
		response["errors"] = uploadErrors
	}

	return c.Status(status).JSON(response)
}

// storeFile reads one multipart file and hands it to the image ingest
func (h *UploadHandler) storeFile(file *multipart.FileHeader, productID string) fileResult {
	result := fileResult{Name: file.Filename, Size: file.Size, Status: "error"}

	src, err := file.Open()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	url, err := h.images.Store(data, file.Filename, file.Header.Get(fiber.HeaderContentType), productID)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInternalError {
			result.Error = appErr.Message
		} else {
			result.Error = err.Error()
		}
		return result
	}

	result.Status = "success"
	result.URL = url
	return result
}

// uploadURLRequest registers an externally hosted image
type uploadURLRequest struct {
	ImageURL  string `json:"imageUrl"`
	ProductID string `json:"productId"`
}

// UploadURL validates and registers an external image URL
func (h *UploadHandler) UploadURL(c *fiber.Ctx) error {
	var req uploadURLRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.New(apperrors.CodeValidation, "Cuerpo de solicitud inválido", err)
	}

	if req.ImageURL == "" {
		return apperrors.New(apperrors.CodeValidation, "No se proporcionó URL de imagen", nil)
	}
	if req.ProductID == "" {
		return apperrors.New(apperrors.CodeValidation, "No se proporcionó ID de producto", nil)
	}

	parsed, err := url.Parse(req.ImageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return apperrors.New(apperrors.CodeValidation, "URL inválida, debe comenzar con http:// o https://", err)
	}

	h.audit.Info("imagen_url_registrada",
		fmt.Sprintf("URL de imagen registrada para el producto %s: %s", req.ProductID, req.ImageURL), nil, auditUser(c))

	return c.JSON(fiber.Map{
		"success":  true,
		"imageUrl": req.ImageURL,
		"message":  "URL de imagen registrada correctamente",
	})
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
