// Package auth is the identity boundary. Tokens are minted and roles
// derived upstream; this package only parses and hands the core an
// opaque user id plus role.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusdesk/portal/internal/models"
)

type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Validator struct {
	secret []byte
}

func NewValidator(secret string) (*Validator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Validator{secret: []byte(secret)}, nil
}

// Validate parses an HS256 token and returns the identity it carries.
func (v *Validator) Validate(token string) (models.Identity, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	if !tok.Valid || claims.Subject == "" {
		return models.Identity{}, errors.New("invalid token")
	}
	return models.Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   models.Role(claims.Role),
	}, nil
}
