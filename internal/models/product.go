package models

import "strings"

// ProductImage is one image attached to a product. Tipo distinguishes
// files stored under the uploads root ("local") from external URLs ("url").
type ProductImage struct {
	URL       string `json:"url"`
	Tipo      string `json:"tipo"`
	Principal bool   `json:"principal"`
}

const (
	ImageTypeLocal = "local"
	ImageTypeURL   = "url"
)

// Product is one entity of the "productos" collection, stored as a
// single JSON document per product.
type Product struct {
	ID              string         `json:"id"`
	Nombre          string         `json:"nombre"`
	Precio          float64        `json:"precio"`
	Descripcion     string         `json:"descripcion,omitempty"`
	Imagenes        []ProductImage `json:"imagenes"`
	Stock           int            `json:"stock"`
	Categorias      []string       `json:"categorias,omitempty"`
	Caracteristicas []string       `json:"caracteristicas,omitempty"`
	Destacado       bool           `json:"destacado"`
}

// NormalizeImage converts the legacy bare-string image format into a
// ProductImage, inferring the tipo from the URL scheme.
func NormalizeImage(url string) ProductImage {
	tipo := ImageTypeLocal
	if strings.HasPrefix(url, "http") {
		tipo = ImageTypeURL
	}
	return ProductImage{URL: url, Tipo: tipo, Principal: false}
}

// ProductRequest is the create/update payload. Imagenes accepts both
// the current object format and legacy bare strings.
type ProductRequest struct {
	ID              string        `json:"id"`
	Nombre          string        `json:"nombre"`
	Precio          *float64      `json:"precio"`
	Descripcion     *string       `json:"descripcion"`
	Stock           *int          `json:"stock"`
	Categorias      []string      `json:"categorias"`
	Caracteristicas []string      `json:"caracteristicas"`
	Destacado       *bool         `json:"destacado"`
	Imagenes        []interface{} `json:"imagenes"`
}

// Images normalizes the mixed-format imagenes payload
func (r *ProductRequest) Images() []ProductImage {
	images := make([]ProductImage, 0, len(r.Imagenes))
	for _, raw := range r.Imagenes {
		switch v := raw.(type) {
		case string:
			images = append(images, NormalizeImage(v))
		case map[string]interface{}:
			img := ProductImage{}
			if url, ok := v["url"].(string); ok {
				img.URL = url
			}
			if tipo, ok := v["tipo"].(string); ok && tipo != "" {
				img.Tipo = tipo
			} else {
				img.Tipo = NormalizeImage(img.URL).Tipo
			}
			if principal, ok := v["principal"].(bool); ok {
				img.Principal = principal
			}
			images = append(images, img)
		}
	}
	return images
}
