package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const RoleReseller = "reseller"

var ErrInvalidToken = errors.New("invalid token")

// Claims is what the storefront reads from a bearer token.
type Claims struct {
	UserID int
	Role   string
}

func (c Claims) IsReseller() bool {
	return c.Role == RoleReseller
}

func ParseToken(tokenString, secret string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return Claims{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	return Claims{UserID: int(userID), Role: role}, nil
}

// SignToken issues an HS256 token carrying the storefront claims.
func SignToken(c Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": c.UserID,
		"role":    c.Role,
	})
	return token.SignedString([]byte(secret))
}
