package service

import (
	"context"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type UserRepository interface {
	FindIDByEmail(ctx context.Context, email string) (int64, error)
	GetCredits(ctx context.Context, userID int64) (int64, error)
	IncrementCredits(ctx context.Context, userID int64, amount int64) (int64, error)
	DecrementCredits(ctx context.Context, userID int64, amount int64) (int64, error)
}

type PurchaseRepository interface {
	Create(ctx context.Context, args repoargs.CreatePurchase) (*domain.Purchase, error)
	FindByPaymentReference(ctx context.Context, reference string) (*domain.Purchase, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.Purchase, error)
}

// ReferenceCache быстрый путь проверки идемпотентности перед запросом в леджер.
type ReferenceCache interface {
	Seen(ctx context.Context, reference string) (bool, error)
	Remember(ctx context.Context, reference string) error
}

// Completer клиент языковой модели.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type CreditSpender interface {
	Spend(ctx context.Context, userID int64, amount int64) (int64, error)
	Refund(ctx context.Context, userID int64, amount int64) (int64, error)
}
