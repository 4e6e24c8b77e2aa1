// Package cleanup identifies products that look like seeded test data
// and removes them after backing up the whole collection.
package cleanup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/images"
	"github.com/superior-pamerca/admin-api/internal/models"
	"github.com/superior-pamerca/admin-api/internal/store"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// testNamePatterns flag product names and descriptions that look like
// seeded data rather than real catalog entries.
var testNamePatterns = regexp.MustCompile(`(?i)ejemplo|test|prueba|demo|temporal|placeholder|muestra|sample`)

// testPriceValues are prices that almost never occur in the real
// catalog but show up constantly in seeded entries.
var testPriceValues = []float64{0.00, 1.00, 9.99, 99.99, 999.99, 123.45, 1234.56}

const minDescriptionLength = 20

// Candidate is one product flagged as probable test data
type Candidate struct {
	ID      string          `json:"id"`
	Nombre  string          `json:"nombre"`
	Precio  float64         `json:"precio"`
	Reasons []string        `json:"reasons"`
	Data    json.RawMessage `json:"data"`
}

// RemoveError records a single failed removal
type RemoveError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// RemoveResult aggregates a best-effort bulk removal
type RemoveResult struct {
	Success bool          `json:"success"`
	Removed []string      `json:"removed"`
	Errors  []RemoveError `json:"errors"`
}

// Service backs the admin cleanup endpoints
type Service struct {
	store      *store.ContentStore
	images     *images.Ingest
	audit      *auditlog.Logger
	logger     *logrus.Logger
	collection string
	backupDir  string

	now func() time.Time
}

// New creates a cleanup service over the product collection
func New(st *store.ContentStore, img *images.Ingest, audit *auditlog.Logger, logger *logrus.Logger, collection, backupDir string) *Service {
	return &Service{
		store:      st,
		images:     img,
		audit:      audit,
		logger:     logger,
		collection: collection,
		backupDir:  backupDir,
		now:        time.Now,
	}
}

// Reasons returns every heuristic the product trips, empty for products
// that look like real catalog data.
func Reasons(p *models.Product) []string {
	reasons := []string{}

	if testNamePatterns.MatchString(p.Nombre) {
		reasons = append(reasons, fmt.Sprintf("Nombre sospechoso: %q", p.Nombre))
	}

	for _, price := range testPriceValues {
		if p.Precio == price {
			reasons = append(reasons, fmt.Sprintf("Precio sospechoso: $%.2f", p.Precio))
			break
		}
	}

	if len(p.Imagenes) == 0 {
		reasons = append(reasons, "Sin imágenes")
	} else {
		for _, img := range p.Imagenes {
			if images.IsPlaceholder(img.URL) {
				reasons = append(reasons, "Contiene imágenes de placeholder")
				break
			}
		}
	}

	desc := strings.TrimSpace(p.Descripcion)
	if len(desc) < minDescriptionLength || testNamePatterns.MatchString(desc) {
		reasons = append(reasons, "Descripción sospechosa o muy corta")
	}

	return reasons
}

// Identify scans the collection and returns every product that matches
// at least one test-data heuristic. Unparseable documents are skipped.
func (s *Service) Identify() ([]Candidate, error) {
	entities, err := s.store.List(s.collection)
	if err != nil {
		return nil, err
	}

	candidates := []Candidate{}
	for _, entity := range entities {
		var product models.Product
		if err := json.Unmarshal(entity.Data, &product); err != nil {
			s.logger.WithError(err).WithField("id", entity.ID).Warn("Skipping unparseable product during cleanup scan")
			continue
		}

		reasons := Reasons(&product)
		if len(reasons) == 0 {
			continue
		}

		candidates = append(candidates, Candidate{
			ID:      entity.ID,
			Nombre:  product.Nombre,
			Precio:  product.Precio,
			Reasons: reasons,
			Data:    entity.Data,
		})
	}

	return candidates, nil
}

// Backup writes the whole collection to a timestamped JSON file and
// returns its path.
func (s *Service) Backup() (string, error) {
	entities, err := s.store.List(s.collection)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", apperrors.Newf(apperrors.CodeIO, err, "failed to create backup directory %s", s.backupDir)
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(s.now().UTC().Format("2006-01-02T15:04:05.000Z"))
	path := filepath.Join(s.backupDir, fmt.Sprintf("%s_backup_%s.json", s.collection, stamp))

	raw, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return "", apperrors.Newf(apperrors.CodeInternalError, err, "failed to serialize backup")
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		s.audit.Error("backup_error", "Error al crear backup: "+err.Error(), nil, "")
		return "", apperrors.Newf(apperrors.CodeIO, err, "failed to write backup %s", path)
	}

	s.audit.Info("backup_creado", "Backup de productos creado: "+filepath.Base(path), nil, "")
	return path, nil
}

// RemoveProducts deletes the given products and their uploaded images,
// collecting per-item errors instead of aborting the batch.
func (s *Service) RemoveProducts(ids []string, user string) RemoveResult {
	result := RemoveResult{Removed: []string{}, Errors: []RemoveError{}}

	for _, id := range ids {
		if err := s.store.Remove(s.collection, id); err != nil {
			result.Errors = append(result.Errors, RemoveError{ID: id, Error: err.Error()})
			s.audit.Error("remove_product_error", fmt.Sprintf("Error al eliminar producto %s: %v", id, err), nil, user)
			continue
		}

		imgResult := s.images.RemoveAll(id)
		if len(imgResult.Errors) > 0 {
			s.logger.WithField("id", id).WithField("errors", imgResult.Errors).Warn("Some product images could not be deleted")
		}

		result.Removed = append(result.Removed, id)
		s.audit.Info("producto_eliminado", "Producto eliminado: "+id, nil, user)
	}

	result.Success = len(result.Errors) == 0
	s.audit.Info("cleanup_completado",
		fmt.Sprintf("Limpieza completada. Eliminados: %d, Errores: %d", len(result.Removed), len(result.Errors)),
		map[string]interface{}{"removed": result.Removed, "errors": result.Errors}, user)

	return result
}
