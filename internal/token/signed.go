package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/superior-pamerca/admin-api/internal/models"
)

// SignedCodec issues HS256-signed JWTs with the same claim set as the
// insecure codec. This is the default production codec.
type SignedCodec struct {
	secret []byte
	now    func() time.Time
}

// NewSignedCodec creates an HS256 codec with the given signing secret
func NewSignedCodec(secret string) *SignedCodec {
	return &SignedCodec{secret: []byte(secret), now: time.Now}
}

func (c *SignedCodec) Encode(user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"exp":   c.now().Add(ttl).Unix(),
		"iat":   c.now().Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

func (c *SignedCodec) Decode(tokenString string) *Claims {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(c.now))
	if err != nil || !tok.Valid {
		return nil
	}

	mapClaims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	claims := &Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Sub = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.Exp = int64(exp)
	}

	return claims
}
