package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/superior-pamerca/admin-api/internal/models"
)

// Claims is the payload carried by a session token
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Exp   int64  `json:"exp"`
}

// User maps the claims back to a panel user
func (c *Claims) User() *models.User {
	return &models.User{
		ID:    c.Sub,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
}

// Codec encodes and decodes session tokens. Decode returns nil for any
// malformed, tampered or expired token; callers treat nil as
// unauthenticated.
type Codec interface {
	Encode(user *models.User, ttl time.Duration) (string, error)
	Decode(token string) *Claims
}

const insecureSignature = "simulated-signature"

// InsecureCodec produces the legacy three-segment pseudo-JWT: base64url
// header and payload joined with a constant placeholder signature. It
// carries no integrity (anyone can forge a token) and is kept only for
// parity with the legacy panel. Never select it in production.
type InsecureCodec struct {
	now func() time.Time
}

// NewInsecureCodec creates the unsigned demo codec
func NewInsecureCodec() *InsecureCodec {
	return &InsecureCodec{now: time.Now}
}

func (c *InsecureCodec) Encode(user *models.User, ttl time.Duration) (string, error) {
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		Exp:   c.now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", err
	}

	segments := []string{
		base64.RawURLEncoding.EncodeToString(header),
		base64.RawURLEncoding.EncodeToString(payload),
		insecureSignature,
	}

	return strings.Join(segments, "."), nil
}

func (c *InsecureCodec) Decode(token string) *Claims {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return nil
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}

	if claims.Exp < c.now().Unix() {
		return nil
	}

	return &claims
}
