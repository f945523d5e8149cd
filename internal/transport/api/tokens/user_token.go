// Package tokens проверяет токены юзеров, выпущенные внешним identity provider'ом (HS256, общий секрет).
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidClaims = errors.New("invalid claims")
)

type UserClaims struct {
	jwt.RegisteredClaims
	ID int64 `json:"uid"`
}

// GenerateUserJWT выпускает токен юзера. В рабочем окружении токены выпускает identity provider,
// функция нужна для тестов и локальной отладки.
func GenerateUserJWT(id int64, expire time.Duration, key []byte) (string, error) {
	userClaims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
		},
		ID: id,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, userClaims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("generating user jwt token: %s", err.Error())
	}
	return tokenString, nil
}

// ValidateUserJWT проверяет подпись и срок действия токена. Ошибки ErrTokenExpired, ErrInvalidClaims.
func ValidateUserJWT(tokenString string, key []byte) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, new(UserClaims), func(_ *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("validating user jwt token: %w", err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || claims.ID <= 0 {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
