// Package signature проверяет подпись вебхуков платежного шлюза: HMAC-SHA512 от сырого тела запроса
// в hex-представлении.
package signature

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fsdevblog/chartcredits/internal/domain"
)

var ErrEmptySecret = errors.New("webhook secret is not set")

type Verifier struct {
	secret []byte
}

func New(secret []byte) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Verifier{secret: secret}, nil
}

// Sign возвращает hex HMAC-SHA512 от body.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify сравнивает подпись за постоянное время. Пустое тело дает domain.ErrInvalidPayload, несовпадение
// или пустая подпись - domain.ErrAuthenticationFailure.
func (v *Verifier) Verify(body []byte, signature string) error {
	if len(body) == 0 {
		return fmt.Errorf("verify signature: %w", domain.ErrInvalidPayload)
	}
	if signature == "" {
		return fmt.Errorf("verify signature: empty signature: %w", domain.ErrAuthenticationFailure)
	}
	expected := v.Sign(body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("verify signature: %w", domain.ErrAuthenticationFailure)
	}
	return nil
}
