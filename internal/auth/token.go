package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity the core needs from a verified token: who the caller
// is and, for staff, which branch they work in.
type Claims struct {
	UserID      string
	Email       string
	IsStaff     bool
	IsSuperuser bool
	BranchID    string
}

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's
// Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// ExtractClaims parses a JWT and pulls out the identity claims. Signature
// validation happens in the OIDC middleware before this is called.
func ExtractClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token has no sub claim")
	}

	claims := &Claims{UserID: sub}
	claims.Email, _ = mapClaims["email"].(string)
	claims.IsStaff, _ = mapClaims["is_staff"].(bool)
	claims.IsSuperuser, _ = mapClaims["is_superuser"].(bool)
	claims.BranchID, _ = mapClaims["branch_id"].(string)

	return claims, nil
}
