package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/service"
)

type SignatureVerifier interface {
	Verify(body []byte, signature string) error
}

type PurchaseServicer interface {
	ProcessCharge(ctx context.Context, args service.ChargeArgs) (*service.ChargeResult, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Purchase, error)
}

type CreditServicer interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

type ChartServicer interface {
	DetectType(ctx context.Context, input string) (domain.ChartType, error)
	ExtractDataset(ctx context.Context, research string, chart string) (json.RawMessage, error)
	ExtractSource(ctx context.Context, research string) (string, error)
	Generate(ctx context.Context, userID int64, input string) (*service.ChartResult, error)
}
