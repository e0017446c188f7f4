package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed token")

// Claim names checked for roles, first present wins. The issuing server writes
// "AUTHORITIES"; the rest cover other conventional issuers.
var roleClaims = []string{"AUTHORITIES", "authorities", "roles", "role", "scope"}

// Fallback claim names for the subject when "sub" is absent, first present wins.
var subjectClaims = []string{"username", "email"}

// DecodeIdentity reads the subject and roles from the token's payload segment.
// The signature is not verified: the server is the authority, this only
// recovers what it told us about the user.
func DecodeIdentity(token string) (*Identity, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, err
	}
	return &Identity{
		Subject: subjectFrom(claims),
		Roles:   rolesFrom(claims),
	}, nil
}

// DecodeClaims base64url-decodes the second dot-separated segment of token
// and parses it as a JSON object.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	segments := strings.Split(token, ".")
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: expected at least 2 segments, got %d", ErrMalformedToken, len(segments))
	}

	payload, err := decodeSegment(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: empty claims", ErrMalformedToken)
	}
	return claims, nil
}

func decodeSegment(seg string) ([]byte, error) {
	b64 := strings.NewReplacer("-", "+", "_", "/").Replace(seg)
	if rem := len(b64) % 4; rem != 0 {
		b64 += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(b64)
}

func rolesFrom(claims jwt.MapClaims) RoleSet {
	for _, name := range roleClaims {
		raw, ok := claims[name]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case []any:
			roles := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					roles = append(roles, strings.TrimSpace(s))
				}
			}
			return NewRoleSet(roles...)
		case string:
			return NewRoleSet(strings.FieldsFunc(v, func(r rune) bool {
				return r == ',' || r == ' '
			})...)
		default:
			return NewRoleSet()
		}
	}
	return NewRoleSet()
}

func subjectFrom(claims jwt.MapClaims) string {
	if raw, ok := claims["sub"]; ok && raw != nil {
		sub, err := claims.GetSubject()
		if err != nil {
			return ""
		}
		return sub
	}
	for _, name := range subjectClaims {
		raw, ok := claims[name]
		if !ok || raw == nil {
			continue
		}
		s, _ := raw.(string)
		return s
	}
	return ""
}
