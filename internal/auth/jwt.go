package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

func GenerateToken(secret []byte, e Employee, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"employee_id": e.EmployeeID,
		"role":        e.Role,
		"exp":         now.Add(ttl).Unix(),
		"iat":         now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (Employee, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Employee{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Employee{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Employee{}, ErrInvalidToken
	}
	id, ok := claims["employee_id"].(float64)
	if !ok || id <= 0 {
		return Employee{}, fmt.Errorf("%w: missing employee_id", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	return Employee{EmployeeID: int(id), Role: role}, nil
}
