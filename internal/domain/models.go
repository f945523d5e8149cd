package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase запись леджера об одном успешно обработанном платеже. PaymentReference уникален в рамках таблицы.
type Purchase struct {
	ID               uuid.UUID
	CreatedAt        time.Time
	UserID           int64
	CreditAmount     int64
	Status           string
	PaymentReference string
}

// CreditPackage пакет кредитов, доступный к покупке. Amount указан в минимальных единицах валюты шлюза.
type CreditPackage struct {
	Credits int64
	Amount  int64
	Price   decimal.Decimal
}

type Chart struct {
	Type   ChartType
	Data   json.RawMessage
	Source string
}
