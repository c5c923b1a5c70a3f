package httpkit

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeAccess = "access"

// RoleCompany is granted to every company account.
const RoleCompany = "company"

// AccessClaims is the decoded content of an access token.
type AccessClaims struct {
	CompanyID   uuid.UUID
	CompanyName string
	Roles       []string
	ExpiresAt   time.Time
}

// NewAccessToken signs an HS256 access token for a company.
func NewAccessToken(secret string, companyID uuid.UUID, companyName string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":       companyID.String(),
		"tenant_id": companyID.String(),
		"name":      companyName,
		"roles":     []string{RoleCompany},
		"type":      tokenTypeAccess,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies signature, expiry and token type.
func ParseAccessToken(rawToken, secret string) (AccessClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, errors.New(errInvalidToken)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, errors.New(errInvalidToken)
	}
	if tokenType, _ := claims["type"].(string); tokenType != tokenTypeAccess {
		return AccessClaims{}, errors.New(errInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	companyID, err := uuid.Parse(sub)
	if err != nil {
		return AccessClaims{}, errors.New(errInvalidToken)
	}
	if tenant, ok := claims["tenant_id"].(string); ok && tenant != "" && tenant != sub {
		return AccessClaims{}, errors.New(errInvalidToken)
	}

	out := AccessClaims{CompanyID: companyID, Roles: extractRoles(claims["roles"])}
	out.CompanyName, _ = claims["name"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func extractRoles(value any) []string {
	roles := make([]string, 0)
	switch typed := value.(type) {
	case []string:
		roles = append(roles, typed...)
	case []any:
		for _, item := range typed {
			if text, ok := item.(string); ok {
				roles = append(roles, text)
			}
		}
	}
	return roles
}
