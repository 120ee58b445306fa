package jwtutil

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey         string
	AccessTokenMinutes int
	RefreshTokenHours  int
}

// UserClaims represents the JWT claims for user authentication.
// TenantID is omitted for platform superadmin tokens.
type UserClaims struct {
	Username     string `json:"username"`
	TenantID     *uint  `json:"tenant_id,omitempty"`
	TenantDomain string `json:"tenant_domain,omitempty"`
	TokenType    string `json:"type"`
	Superadmin   bool   `json:"superadmin,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token.
func (c *UserClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim %q: %w", c.Subject, err)
	}
	return uint(id), nil
}

// TokenPair is an access/refresh token pair issued at login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{config: config}
}

// GeneratePair creates an access/refresh token pair for a user. Pass a nil
// tenantID for platform superadmin tokens.
func (j *JWTUtil) GeneratePair(userID uint, username string, tenantID *uint, tenantDomain string, superadmin bool) (*TokenPair, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	access, err := j.sign(userID, username, tenantID, tenantDomain, superadmin, TokenTypeAccess,
		time.Duration(j.config.AccessTokenMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}
	refresh, err := j.sign(userID, username, tenantID, tenantDomain, superadmin, TokenTypeRefresh,
		time.Duration(j.config.RefreshTokenHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (j *JWTUtil) sign(userID uint, username string, tenantID *uint, tenantDomain string, superadmin bool, tokenType string, ttl time.Duration) (string, error) {
	claims := UserClaims{
		Username:     username,
		TenantID:     tenantID,
		TenantDomain: tenantDomain,
		TokenType:    tokenType,
		Superadmin:   superadmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses a token of the expected type.
func (j *JWTUtil) ValidateToken(tokenString, expectedType string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("expected %s token, got %s", expectedType, claims.TokenType)
	}
	return claims, nil
}
