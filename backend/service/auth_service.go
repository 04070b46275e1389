package service

import (
	"errors"
	"time"

	"formbase/backend/common"
	"formbase/backend/model"

	"github.com/burugo/thing"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     int    `json:"role"`
	jwt.RegisteredClaims
}

func newClaims(user *model.User, expiry time.Duration) JWTClaims {
	return JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "formbase",
			Subject:   user.Username,
		},
	}
}

// GenerateToken creates a new JWT access token for a user
func GenerateToken(user *model.User) (string, error) {
	claims := newClaims(user, time.Duration(common.JWTExpiryHours)*time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(common.JWTSecret))
}

// GenerateRefreshToken creates a refresh token
func GenerateRefreshToken(user *model.User) (string, error) {
	claims := newClaims(user, time.Duration(common.JWTRefreshExpiryHours)*time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(common.JWTRefreshSecret))
}

func parseToken(tokenString string, secret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ValidateToken validates the JWT access token
func ValidateToken(tokenString string) (*JWTClaims, error) {
	return parseToken(tokenString, common.JWTSecret)
}

// ValidateRefreshToken validates the refresh token
func ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return parseToken(tokenString, common.JWTRefreshSecret)
}

// RefreshToken validates a refresh token and generates a new access token
func RefreshToken(refreshToken string) (string, error) {
	claims, err := ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}
	user := &model.User{
		BaseModel: thing.BaseModel{ID: claims.UserID},
		Username:  claims.Username,
		Role:      claims.Role,
	}
	return GenerateToken(user)
}
