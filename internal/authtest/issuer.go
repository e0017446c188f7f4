// Package authtest provides a token issuer and a fake clinic API for tests of
// the session subsystem. Nothing in here ships in the binaries.
package authtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Issuer struct {
	secretKey []byte
	issuer    string
	expiry    time.Duration
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{
		secretKey: []byte(secret),
		issuer:    "clinic-system",
		expiry:    expiry,
	}
}

// Issue signs an HS256 token carrying the subject and an AUTHORITIES claim,
// the shape the clinic back-end produces.
func (s *Issuer) Issue(subject string, roles ...string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         subject,
		"AUTHORITIES": roles,
		"iss":         s.issuer,
		"jti":         uuid.NewString(),
		"iat":         jwt.NewNumericDate(now),
		"exp":         jwt.NewNumericDate(now.Add(s.expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// MustIssue is Issue for test setup code.
func (s *Issuer) MustIssue(subject string, roles ...string) string {
	token, err := s.Issue(subject, roles...)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Issuer) Validate(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
