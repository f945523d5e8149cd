package repoargs

import (
	"time"

	"github.com/google/uuid"
)

type CreatePurchase struct {
	ID               uuid.UUID
	UserID           int64
	CreditAmount     int64
	CreatedAt        time.Time
	Status           string
	PaymentReference string
}
