package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/chartcredits/internal/domain"
	"github.com/fsdevblog/chartcredits/internal/repository/repoargs"
	"github.com/fsdevblog/chartcredits/pkg/uow"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// errReferenceTaken внутренний сигнал отката транзакции, когда параллельная доставка успела записать
// этот же референс.
var errReferenceTaken = errors.New("payment reference already recorded")

type PurchaseService struct {
	uow          uow.UOW
	purchaseRepo PurchaseRepository
	cache        ReferenceCache
	l            *logrus.Entry
	now          func() time.Time
}

// NewPurchaseService создает сервис зачисления кредитов. cache может быть nil, тогда быстрый путь отключен.
func NewPurchaseService(u uow.UOW, cache ReferenceCache, l *logrus.Logger) (*PurchaseService, error) {
	purchaseRepo, err := uow.GetRepositoryAs[PurchaseRepository](u, uow.RepositoryName(repoargs.PurchaseRepoName))
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = noopReferenceCache{}
	}
	return &PurchaseService{
		uow:          u,
		purchaseRepo: purchaseRepo,
		cache:        cache,
		l:            l.WithFields(logrus.Fields{"component": "service", "module": "purchase"}),
		now:          time.Now,
	}, nil
}

type ChargeArgs struct {
	Email        string
	CustomerCode string
	Amount       int64
	Reference    string
	Status       string
	PaidAt       time.Time
}

type ChargeResult struct {
	Outcome  domain.ChargeOutcome
	Purchase *domain.Purchase
	// Mapped false, если сумма платежа не попала в тарифную сетку.
	Mapped  bool
	Credits int64
	Balance int64
}

// ProcessCharge зачисляет кредиты за успешный платеж ровно один раз на референс.
//
// Алгоритм работы:
//  1. Быстрые проверки: отметка в ReferenceCache, затем поиск покупки по референсу в леджере. Найдено -
//     ChargeOutcomeDuplicate без побочных эффектов.
//  2. В одной транзакции: поиск юзера по email (нет юзера - domain.ErrUserNotFound), атомарное увеличение
//     баланса, вставка записи в леджер.
//  3. Если вставка упала на уникальном индексе payment_reference, транзакция откатывается вместе с
//     увеличением баланса и результат - ChargeOutcomeDuplicate.
func (p *PurchaseService) ProcessCharge(ctx context.Context, args ChargeArgs) (*ChargeResult, error) {
	if args.Reference == "" {
		return nil, fmt.Errorf("processing charge: empty reference: %w", domain.ErrInvalidPayload)
	}

	l := p.l.WithFields(logrus.Fields{"reference": args.Reference, "customer_code": args.CustomerCode})

	if duplicate, err := p.isProcessed(ctx, l, args.Reference); err != nil {
		return nil, fmt.Errorf("processing charge: %w", err)
	} else if duplicate != nil {
		return duplicate, nil
	}

	credits, mapped := CreditsForAmount(args.Amount)
	if !mapped {
		l.WithField("amount", MinorToMajor(args.Amount).String()).Warn("payment amount matches no credit tier")
	}

	paidAt := args.PaidAt
	if paidAt.IsZero() {
		paidAt = p.now()
	}

	var result = ChargeResult{Outcome: domain.ChargeOutcomeCredited, Mapped: mapped, Credits: credits}

	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		purchaseRepo, purchaseRepoErr :=
			uow.GetAs[PurchaseRepository](tx, uow.RepositoryName(repoargs.PurchaseRepoName))
		if purchaseRepoErr != nil {
			return purchaseRepoErr //nolint:wrapcheck
		}

		userID, findErr := userRepo.FindIDByEmail(c, args.Email)
		if findErr != nil {
			if errors.Is(findErr, domain.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrUserNotFound, args.Email)
			}
			return findErr //nolint:wrapcheck
		}

		balance, incErr := userRepo.IncrementCredits(c, userID, credits)
		if incErr != nil {
			return incErr //nolint:wrapcheck
		}
		result.Balance = balance

		purchase, createErr := purchaseRepo.Create(c, repoargs.CreatePurchase{
			ID:               uuid.New(),
			UserID:           userID,
			CreditAmount:     credits,
			CreatedAt:        paidAt,
			Status:           args.Status,
			PaymentReference: args.Reference,
		})
		if createErr != nil {
			if errors.Is(createErr, domain.ErrDuplicateKey) {
				return errReferenceTaken
			}
			return createErr //nolint:wrapcheck
		}
		result.Purchase = purchase
		return nil
	})

	if txErr != nil {
		if errors.Is(txErr, errReferenceTaken) {
			l.Info("payment reference recorded by a concurrent delivery")
			p.remember(ctx, l, args.Reference)
			return &ChargeResult{Outcome: domain.ChargeOutcomeDuplicate}, nil
		}
		return nil, fmt.Errorf("processing charge: %w", txErr)
	}

	p.remember(ctx, l, args.Reference)
	return &result, nil
}

// isProcessed возвращает ChargeResult с ChargeOutcomeDuplicate, если референс уже обработан, и nil в обратном
// случае. Ошибка кеша не фатальна, ошибка леджера - фатальна.
func (p *PurchaseService) isProcessed(ctx context.Context, l *logrus.Entry, reference string) (*ChargeResult, error) {
	seen, cacheErr := p.cache.Seen(ctx, reference)
	if cacheErr != nil {
		l.WithError(cacheErr).Warn("reference cache lookup failed")
	}
	if seen {
		return &ChargeResult{Outcome: domain.ChargeOutcomeDuplicate}, nil
	}

	existing, findErr := p.purchaseRepo.FindByPaymentReference(ctx, reference)
	switch {
	case findErr == nil:
		p.remember(ctx, l, reference)
		return &ChargeResult{Outcome: domain.ChargeOutcomeDuplicate, Purchase: existing}, nil
	case errors.Is(findErr, domain.ErrRecordNotFound):
		return nil, nil //nolint:nilnil
	default:
		return nil, findErr //nolint:wrapcheck
	}
}

func (p *PurchaseService) remember(ctx context.Context, l *logrus.Entry, reference string) {
	if err := p.cache.Remember(context.WithoutCancel(ctx), reference); err != nil {
		l.WithError(err).Warn("reference cache write failed")
	}
}

// GetByUserID возвращает покупки юзера, отсортированные по дате создания по убыванию.
func (p *PurchaseService) GetByUserID(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	purchases, err := p.purchaseRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return purchases, nil
}

type noopReferenceCache struct{}

func (noopReferenceCache) Seen(context.Context, string) (bool, error) { return false, nil }

func (noopReferenceCache) Remember(context.Context, string) error { return nil }
